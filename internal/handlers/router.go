package handlers

import (
	"net/http"
	"strings"

	"bookkeeping/internal/config"
	"bookkeeping/internal/db"
	"bookkeeping/internal/middleware"
	"bookkeeping/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type Handler struct {
	txRunner     db.TxRunner
	cfg          config.Config
	users        UserStore
	contacts     ContactStore
	transactions TransactionStore
	drafts       DraftStore
	audit        AuditStore
	ledger       LedgerService
	hub          *websocket.Hub
	log          zerolog.Logger
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, contacts ContactStore, transactions TransactionStore, drafts DraftStore, audit AuditStore, ledger LedgerService, hub *websocket.Hub, log zerolog.Logger) *Handler {
	return &Handler{
		txRunner:     txRunner,
		cfg:          cfg,
		users:        users,
		contacts:     contacts,
		transactions: transactions,
		drafts:       drafts,
		audit:        audit,
		ledger:       ledger,
		hub:          hub,
		log:          log,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.RequestLogger(h.log))
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(h.cfg.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	requireAuth := middleware.Auth(h.cfg.JWTSecret)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(requireAuth).Get("/me", h.Me)
	})
	router.Route("/transactions", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.ListTransactions)
		r.Post("/", h.CreateTransaction)
		r.Get("/balances", h.GetBalances)
		r.Get("/open-debts", h.ListOpenDebts)
		r.Get("/export", h.ExportTransactions)
		r.Get("/{id}", h.GetTransaction)
		r.Get("/{id}/payments", h.ListDebtPayments)
		r.Patch("/{id}", h.UpdateTransaction)
		r.Delete("/{id}", h.DeleteTransaction)
	})
	router.Route("/contacts", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.ListContacts)
		r.Post("/", h.CreateContact)
		r.Get("/{id}", h.GetContact)
		r.Patch("/{id}", h.UpdateContact)
		r.Delete("/{id}", h.DeleteContact)
	})
	router.Route("/drafts", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.ListDrafts)
		r.Post("/", h.CreateDraft)
		r.Post("/batch", h.CreateDraftBatch)
		r.Get("/{id}", h.GetDraft)
		r.Patch("/{id}", h.UpdateDraft)
		r.Post("/{id}/confirm", h.ConfirmDraft)
		r.Post("/{id}/discard", h.DiscardDraft)
		r.Delete("/{id}", h.DeleteDraft)
	})
	router.With(requireAuth).Get("/activity", h.ListActivity)
	router.Get("/ws/balances", h.WSBalances)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}

func allowedOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
