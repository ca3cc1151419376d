package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bookkeeping/internal/ledger"
	"bookkeeping/internal/models"
	"bookkeeping/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type memTransactions struct {
	mu   sync.Mutex
	rows map[string]models.Transaction
	// ids in insertion order
	order []string
}

func newMemTransactions(rows ...models.Transaction) *memTransactions {
	m := &memTransactions{rows: make(map[string]models.Transaction)}
	for _, row := range rows {
		m.rows[row.ID] = row
		m.order = append(m.order, row.ID)
	}
	return m
}

func (m *memTransactions) Create(_ context.Context, _ store.Execer, t models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[t.ID] = t
	m.order = append(m.order, t.ID)
	return nil
}

func (m *memTransactions) GetForUpdate(_ context.Context, _ store.Getter, userID, id string) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.UserID != userID {
		return models.Transaction{}, store.ErrNotFound
	}
	return row, nil
}

func (m *memTransactions) ListOpenDebtsForUpdate(_ context.Context, _ store.Selecter, filter store.DebtFilter) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, row := range m.rows {
		if row.UserID != filter.UserID || !hasType(filter.Types, row.Type) {
			continue
		}
		if row.Status != nil && *row.Status == models.DebtSettled {
			continue
		}
		if filter.ExcludeID != nil && row.ID == *filter.ExcludeID {
			continue
		}
		if filter.ContactID != nil {
			if row.ContactID == nil || *row.ContactID != *filter.ContactID {
				continue
			}
		} else if filter.ContactName != "" {
			if row.ContactName == nil || !strings.EqualFold(*row.ContactName, filter.ContactName) {
				continue
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memTransactions) UpdateDebt(_ context.Context, _ store.Execer, id string, remaining decimal.Decimal, status models.DebtStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.rows[id]
	row.RemainingAmount = decimal.NewNullDecimal(remaining)
	row.Status = &status
	m.rows[id] = row
	return nil
}

func (m *memTransactions) Update(_ context.Context, _ store.Execer, t models.Transaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[t.ID]; !ok || row.UserID != t.UserID {
		return 0, nil
	}
	m.rows[t.ID] = t
	return 1, nil
}

func (m *memTransactions) Delete(_ context.Context, _ store.Execer, userID, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[id]; !ok || row.UserID != userID {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

func (m *memTransactions) ListAllByUser(_ context.Context, userID string) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Transaction
	for _, id := range m.order {
		if row, ok := m.rows[id]; ok && row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memTransactions) get(id string) models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

func (m *memTransactions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func hasType(types []models.TransactionType, t models.TransactionType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

type memContacts struct {
	mu   sync.Mutex
	rows map[string]models.Contact
	// raceName simulates a concurrent insert of the same name landing first.
	raceName string
}

func newMemContacts(rows ...models.Contact) *memContacts {
	m := &memContacts{rows: make(map[string]models.Contact)}
	for _, row := range rows {
		m.rows[row.ID] = row
	}
	return m
}

func (m *memContacts) FindIDByName(_ context.Context, _ store.Getter, userID, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.UserID == userID && strings.EqualFold(row.Name, name) {
			return row.ID, nil
		}
	}
	return "", store.ErrNotFound
}

func (m *memContacts) InsertIfAbsent(_ context.Context, _ store.Execer, id, userID, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.raceName != "" && strings.EqualFold(m.raceName, name) {
		m.rows["raced"] = models.Contact{ID: "raced", UserID: userID, Name: name}
		m.raceName = ""
		return false, nil
	}
	for _, row := range m.rows {
		if row.UserID == userID && strings.EqualFold(row.Name, name) {
			return false, nil
		}
	}
	m.rows[id] = models.Contact{ID: id, UserID: userID, Name: name}
	return true, nil
}

func (m *memContacts) GetByID(_ context.Context, _ store.Getter, userID, id string) (models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.UserID != userID {
		return models.Contact{}, store.ErrNotFound
	}
	return row, nil
}

func (m *memContacts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memDrafts struct {
	rows map[string]models.Draft
}

func (m *memDrafts) GetForUpdate(_ context.Context, _ store.Getter, userID, id string) (models.Draft, error) {
	row, ok := m.rows[id]
	if !ok || row.UserID != userID {
		return models.Draft{}, store.ErrNotFound
	}
	return row, nil
}

func (m *memDrafts) UpdateStatus(_ context.Context, _ store.Execer, id string, status models.DraftStatus) error {
	row := m.rows[id]
	row.Status = status
	m.rows[id] = row
	return nil
}

type stubAuditStore struct {
	mu      sync.Mutex
	actions []string
	data    []string
}

func (s *stubAuditStore) Log(_ context.Context, _ store.Execer, _, action, _, _, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
	s.data = append(s.data, data)
	return nil
}

func (s *stubAuditStore) has(action string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.actions {
		if a == action {
			return true
		}
	}
	return false
}

type stubHub struct {
	calls []ledger.Balances
}

func (s *stubHub) BroadcastBalances(_ string, balances ledger.Balances) {
	s.calls = append(s.calls, balances)
}

type fixture struct {
	transactions *memTransactions
	contacts     *memContacts
	drafts       *memDrafts
	audit        *stubAuditStore
	hub          *stubHub
	service      *LedgerService
}

func newFixture(runner fakeTxRunner, transactions *memTransactions, contacts *memContacts) *fixture {
	f := &fixture{
		transactions: transactions,
		contacts:     contacts,
		drafts:       &memDrafts{rows: make(map[string]models.Draft)},
		audit:        &stubAuditStore{},
		hub:          &stubHub{},
	}
	f.service = NewLedgerService(runner, transactions, f.drafts, NewContactResolver(contacts), f.audit, f.hub, zerolog.Nop())
	return f
}

func debt(id, userID string, t models.TransactionType, amount int64, date time.Time, contactID, contactName string) models.Transaction {
	row := models.Transaction{
		ID:          id,
		UserID:      userID,
		Date:        date,
		Amount:      decimal.NewFromInt(amount),
		Description: "debt " + id,
		Type:        t,
		Account:     models.AccountCash,
	}
	if contactID != "" {
		row.ContactID = stringPtr(contactID)
	}
	if contactName != "" {
		row.ContactName = stringPtr(contactName)
	}
	ledger.OpenDebt(&row)
	return row
}

func stringPtr(value string) *string {
	return &value
}

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 0, 0, 0, 0, time.UTC)
}
