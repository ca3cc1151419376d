package websocket

import (
	"encoding/json"
	"sync"

	"bookkeeping/internal/ledger"
	"bookkeeping/internal/money"
)

// BalanceUpdate is the message pushed to every open socket of a user after a ledger write.
type BalanceUpdate struct {
	Event  string `json:"event"`
	Cash   string `json:"cash"`
	Bank   string `json:"bank"`
	Credit string `json:"credit"`
	Loan   string `json:"loan"`
}

func NewBalanceUpdate(b ledger.Balances) BalanceUpdate {
	return BalanceUpdate{
		Event:  "balances",
		Cash:   money.Format(b.Cash),
		Bank:   money.Format(b.Bank),
		Credit: money.Format(b.Credit),
		Loan:   money.Format(b.Loan),
	}
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

func (h *Hub) Unregister(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		return
	}
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// Connected reports how many sockets a user has open.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// BroadcastBalances queues the update on every socket of userID. Slow clients whose
// buffer is full miss the message; the next write sends fresh totals anyway.
func (h *Hub) BroadcastBalances(userID string, balances ledger.Balances) {
	payload, err := json.Marshal(NewBalanceUpdate(balances))
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}
