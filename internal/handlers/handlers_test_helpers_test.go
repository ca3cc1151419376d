package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"bookkeeping/internal/auth"
	"bookkeeping/internal/config"
	"bookkeeping/internal/ledger"
	"bookkeeping/internal/models"
	"bookkeeping/internal/services"
	"bookkeeping/internal/store"
	"bookkeeping/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

const (
	testSecret = "secret"
	testUserID = "5f0c7d52-8c1e-4a53-9d7c-2f4cf1f7a001"
	testID     = "0b6a4f1e-3c7d-4a5e-8f9b-1c2d3e4f5a60"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, user models.User) error
	getByEmailFn func(ctx context.Context, email string) (models.User, error)
	getByIDFn    func(ctx context.Context, userID string) (models.User, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, user models.User) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, user)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if s.getByEmailFn == nil {
		return models.User{}, store.ErrNotFound
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{}, store.ErrNotFound
	}
	return s.getByIDFn(ctx, userID)
}

type stubContactStore struct {
	createFn func(ctx context.Context, tx store.Execer, c models.Contact) error
	getFn    func(ctx context.Context, userID, id string) (models.Contact, error)
	listFn   func(ctx context.Context, userID, search string, limit, offset int) ([]models.Contact, int, error)
	updateFn func(ctx context.Context, tx store.Execer, c models.Contact) (int64, error)
	deleteFn func(ctx context.Context, tx store.Execer, userID, id string) (int64, error)
}

func (s stubContactStore) Create(ctx context.Context, tx store.Execer, c models.Contact) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, c)
}

func (s stubContactStore) Get(ctx context.Context, userID, id string) (models.Contact, error) {
	if s.getFn == nil {
		return models.Contact{}, store.ErrNotFound
	}
	return s.getFn(ctx, userID, id)
}

func (s stubContactStore) List(ctx context.Context, userID, search string, limit, offset int) ([]models.Contact, int, error) {
	if s.listFn == nil {
		return nil, 0, nil
	}
	return s.listFn(ctx, userID, search, limit, offset)
}

func (s stubContactStore) Update(ctx context.Context, tx store.Execer, c models.Contact) (int64, error) {
	if s.updateFn == nil {
		return 1, nil
	}
	return s.updateFn(ctx, tx, c)
}

func (s stubContactStore) Delete(ctx context.Context, tx store.Execer, userID, id string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, userID, id)
}

type stubTransactionStore struct {
	getByIDFn       func(ctx context.Context, userID, id string) (models.Transaction, error)
	listByUserFn    func(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, int, error)
	listAllFn       func(ctx context.Context, userID string) ([]models.Transaction, error)
	listOpenDebtsFn func(ctx context.Context, filter store.DebtFilter) ([]models.Transaction, error)
	listPaymentsFn  func(ctx context.Context, userID, debtID string) ([]models.Transaction, error)
}

func (s stubTransactionStore) GetByID(ctx context.Context, userID, id string) (models.Transaction, error) {
	if s.getByIDFn == nil {
		return models.Transaction{}, store.ErrNotFound
	}
	return s.getByIDFn(ctx, userID, id)
}

func (s stubTransactionStore) ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, int, error) {
	if s.listByUserFn == nil {
		return nil, 0, nil
	}
	return s.listByUserFn(ctx, userID, txType, limit, offset)
}

func (s stubTransactionStore) ListAllByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, userID)
}

func (s stubTransactionStore) ListOpenDebts(ctx context.Context, filter store.DebtFilter) ([]models.Transaction, error) {
	if s.listOpenDebtsFn == nil {
		return nil, nil
	}
	return s.listOpenDebtsFn(ctx, filter)
}

func (s stubTransactionStore) ListPayments(ctx context.Context, userID, debtID string) ([]models.Transaction, error) {
	if s.listPaymentsFn == nil {
		return nil, nil
	}
	return s.listPaymentsFn(ctx, userID, debtID)
}

type stubDraftStore struct {
	createFn  func(ctx context.Context, tx store.Execer, d models.Draft) error
	getByIDFn func(ctx context.Context, userID, id string) (models.Draft, error)
	listFn    func(ctx context.Context, userID string, status models.DraftStatus, limit, offset int) ([]models.Draft, int, error)
	updateFn  func(ctx context.Context, tx store.Execer, d models.Draft) (int64, error)
	discardFn func(ctx context.Context, tx store.Execer, userID, id string) (int64, error)
	deleteFn  func(ctx context.Context, tx store.Execer, userID, id string) (int64, error)
}

func (s stubDraftStore) Create(ctx context.Context, tx store.Execer, d models.Draft) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, d)
}

func (s stubDraftStore) GetByID(ctx context.Context, userID, id string) (models.Draft, error) {
	if s.getByIDFn == nil {
		return models.Draft{}, store.ErrNotFound
	}
	return s.getByIDFn(ctx, userID, id)
}

func (s stubDraftStore) List(ctx context.Context, userID string, status models.DraftStatus, limit, offset int) ([]models.Draft, int, error) {
	if s.listFn == nil {
		return nil, 0, nil
	}
	return s.listFn(ctx, userID, status, limit, offset)
}

func (s stubDraftStore) Update(ctx context.Context, tx store.Execer, d models.Draft) (int64, error) {
	if s.updateFn == nil {
		return 1, nil
	}
	return s.updateFn(ctx, tx, d)
}

func (s stubDraftStore) Discard(ctx context.Context, tx store.Execer, userID, id string) (int64, error) {
	if s.discardFn == nil {
		return 1, nil
	}
	return s.discardFn(ctx, tx, userID, id)
}

func (s stubDraftStore) Delete(ctx context.Context, tx store.Execer, userID, id string) (int64, error) {
	if s.deleteFn == nil {
		return 1, nil
	}
	return s.deleteFn(ctx, tx, userID, id)
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listFn func(ctx context.Context, actorID string, limit, offset int) ([]models.AuditEntry, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) ListByActor(ctx context.Context, actorID string, limit, offset int) ([]models.AuditEntry, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, actorID, limit, offset)
}

type stubLedgerService struct {
	createFn   func(ctx context.Context, input services.TransactionInput) (services.CreateResult, error)
	confirmFn  func(ctx context.Context, userID, draftID string) (models.Transaction, error)
	updateFn   func(ctx context.Context, userID, id string, patch services.TransactionPatch) (models.Transaction, error)
	deleteFn   func(ctx context.Context, userID, id string) error
	balancesFn func(ctx context.Context, userID string) (ledger.Balances, error)
}

func (s stubLedgerService) CreateTransaction(ctx context.Context, input services.TransactionInput) (services.CreateResult, error) {
	if s.createFn == nil {
		return services.CreateResult{}, nil
	}
	return s.createFn(ctx, input)
}

func (s stubLedgerService) ConfirmDraft(ctx context.Context, userID, draftID string) (models.Transaction, error) {
	if s.confirmFn == nil {
		return models.Transaction{}, nil
	}
	return s.confirmFn(ctx, userID, draftID)
}

func (s stubLedgerService) UpdateTransaction(ctx context.Context, userID, id string, patch services.TransactionPatch) (models.Transaction, error) {
	if s.updateFn == nil {
		return models.Transaction{}, nil
	}
	return s.updateFn(ctx, userID, id, patch)
}

func (s stubLedgerService) DeleteTransaction(ctx context.Context, userID, id string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, userID, id)
}

func (s stubLedgerService) Balances(ctx context.Context, userID string) (ledger.Balances, error) {
	if s.balancesFn == nil {
		return ledger.Balances{}, nil
	}
	return s.balancesFn(ctx, userID)
}

// testDeps holds the collaborators of a Handler under test. Zero values are usable stubs.
type testDeps struct {
	txRunner     fakeTxRunner
	users        stubUserStore
	contacts     stubContactStore
	transactions stubTransactionStore
	drafts       stubDraftStore
	audit        stubAuditStore
	ledger       stubLedgerService
}

func newTestHandler(deps testDeps) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      testSecret,
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
	}
	return New(deps.txRunner, cfg, deps.users, deps.contacts, deps.transactions, deps.drafts, deps.audit, deps.ledger, websocket.NewHub(), zerolog.Nop())
}

// serve routes a request through the full router, authenticated as testUserID unless
// userID is empty.
func serve(t *testing.T, h *Handler, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		token, err := auth.GenerateToken(testSecret, userID, time.Minute)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)
	return rr
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rr.Code, rr.Body.String())
	}
}
