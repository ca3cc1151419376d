package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bookkeeping/internal/auth"
	"bookkeeping/internal/db"
	"bookkeeping/internal/logger"
	"bookkeeping/internal/models"
	"bookkeeping/internal/store"
	"bookkeeping/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const defaultCurrency = "USD"

type registerRequest struct {
	Email             string  `json:"email"`
	Password          string  `json:"password"`
	FullName          *string `json:"full_name"`
	PreferredCurrency string  `json:"preferred_currency"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validator.ValidateEmail(req.Email); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PreferredCurrency == "" {
		req.PreferredCurrency = defaultCurrency
	}
	if err := validator.ValidateCurrency(req.PreferredCurrency); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to secure password")
		return
	}
	user := models.User{
		ID:                uuid.NewString(),
		Email:             req.Email,
		PasswordHash:      passwordHash,
		FullName:          emptyToNil(req.FullName),
		PreferredCurrency: req.PreferredCurrency,
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.users.Create(r.Context(), tx, user); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"ip":         r.RemoteAddr,
			"user_agent": r.UserAgent(),
		})
		return h.audit.Log(r.Context(), tx, user.ID, "user.register", "user", user.ID, string(data))
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			respondError(w, http.StatusConflict, "email already registered")
			return
		}
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("registration failed")
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"token":      token,
		"token_type": "bearer",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	user, err := h.users.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		data, _ := json.Marshal(map[string]string{
			"ip":         r.RemoteAddr,
			"user_agent": r.UserAgent(),
		})
		return h.audit.Log(r.Context(), tx, user.ID, "user.login", "user", user.ID, string(data))
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"token":      token,
		"token_type": "bearer",
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
