package handlers

import (
	"net/http"
	"strings"

	"bookkeeping/internal/auth"
	"bookkeeping/internal/websocket"
)

// WSBalances upgrades to a websocket that receives the caller's balances after every
// ledger write. Browsers cannot set headers on the upgrade, so the token may also come
// from the query string.
func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		header := r.Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
