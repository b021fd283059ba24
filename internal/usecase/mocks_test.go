//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/adapter"
	"digital-checkout/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- Transaction manager ---

// mockTxManager runs the callback directly without a real transaction.
type mockTxManager struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// --- Catalog ---

type mockCatalogRepo struct {
	ResolvePriceFunc func(ctx context.Context, tx repository.Tx, priceID string) (*model.Product, *model.Price, error)
	ListPricesFunc   func(ctx context.Context, tx repository.Tx, productID string) ([]*model.Price, error)
}

func (m *mockCatalogRepo) ResolvePrice(ctx context.Context, tx repository.Tx, priceID string) (*model.Product, *model.Price, error) {
	if m.ResolvePriceFunc != nil {
		return m.ResolvePriceFunc(ctx, tx, priceID)
	}
	return nil, nil, domain.ErrNotFound
}

func (m *mockCatalogRepo) ListPrices(ctx context.Context, tx repository.Tx, productID string) ([]*model.Price, error) {
	if m.ListPricesFunc != nil {
		return m.ListPricesFunc(ctx, tx, productID)
	}
	return nil, nil
}

// --- Transactions ---

type mockTransactionRepo struct {
	mu sync.Mutex

	SaveFunc                  func(ctx context.Context, tx repository.Tx, t *model.Transaction) error
	FindByIDFunc              func(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error)
	UpdateStatusIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus, confirmedAt *time.Time) (bool, error)
	ListPendingOlderThanFunc  func(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Transaction, error)

	saved []*model.Transaction
}

func (m *mockTransactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	m.mu.Lock()
	m.saved = append(m.saved, t)
	m.mu.Unlock()
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, t)
	}
	return nil
}

func (m *mockTransactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockTransactionRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus, confirmedAt *time.Time) (bool, error) {
	if m.UpdateStatusIfPendingFunc != nil {
		return m.UpdateStatusIfPendingFunc(ctx, tx, id, status, confirmedAt)
	}
	return true, nil
}

func (m *mockTransactionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Transaction, error) {
	if m.ListPendingOlderThanFunc != nil {
		return m.ListPendingOlderThanFunc(ctx, tx, olderThan, limit)
	}
	return nil, nil
}

func (m *mockTransactionRepo) lastSaved() *model.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil
	}
	return m.saved[len(m.saved)-1]
}

// --- Verification records ---

// mockVerificationRepo is backed by a map so resolution state is visible
// across calls, the way bulk approval observes it.
type mockVerificationRepo struct {
	mu      sync.Mutex
	records map[string]*model.ManualVerificationRecord

	SaveFunc func(ctx context.Context, tx repository.Tx, rec *model.ManualVerificationRecord) error
}

func newMockVerificationRepo() *mockVerificationRepo {
	return &mockVerificationRepo{records: make(map[string]*model.ManualVerificationRecord)}
}

func (m *mockVerificationRepo) put(rec *model.ManualVerificationRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[rec.ID] = &cp
}

func (m *mockVerificationRepo) Save(ctx context.Context, tx repository.Tx, rec *model.ManualVerificationRecord) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, rec); err != nil {
			return err
		}
	}
	m.put(rec)
	return nil
}

func (m *mockVerificationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ManualVerificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *mockVerificationRepo) ListPendingAutoGenerated(ctx context.Context, tx repository.Tx, limit int) ([]*model.ManualVerificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ManualVerificationRecord
	for _, rec := range m.records {
		if rec.Status == model.VerificationStatusPending && rec.AutoGenerated {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockVerificationRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.VerificationStatus, offset, limit int) ([]*model.ManualVerificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ManualVerificationRecord
	for _, rec := range m.records {
		if rec.Status == status {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- Customers & subscriptions ---

type mockCustomerRepo struct {
	mu        sync.Mutex
	byEmail   map[string]*model.Customer
	passwords map[string]string // customer id -> hash

	FindByEmailFunc func(ctx context.Context, tx repository.Tx, email string) (*model.Customer, error)
}

func newMockCustomerRepo() *mockCustomerRepo {
	return &mockCustomerRepo{byEmail: make(map[string]*model.Customer), passwords: make(map[string]string)}
}

func (m *mockCustomerRepo) Save(ctx context.Context, tx repository.Tx, c *model.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byEmail[c.Email] = c
	return nil
}

func (m *mockCustomerRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byEmail {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCustomerRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Customer, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, tx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (m *mockCustomerRepo) UpdatePassword(ctx context.Context, tx repository.Tx, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passwords[id] = passwordHash
	return nil
}

type mockSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]*model.Subscription

	SaveFunc func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
}

func newMockSubscriptionRepo() *mockSubscriptionRepo {
	return &mockSubscriptionRepo{subs: make(map[string]*model.Subscription)}
}

func (m *mockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, s); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[s.ID] = &cp
	return nil
}

func (m *mockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSubscriptionRepo) ListByCustomer(ctx context.Context, tx repository.Tx, customerID string) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	for _, s := range m.subs {
		if s.CustomerID == customerID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- Settings ---

type mockSettingsRepo struct {
	mu       sync.Mutex
	settings model.OverrideSettings
}

func (m *mockSettingsRepo) FetchOverrideSettings(ctx context.Context, tx repository.Tx) (model.OverrideSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings, nil
}

func (m *mockSettingsRepo) SaveOverrideSettings(ctx context.Context, tx repository.Tx, s model.OverrideSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	return nil
}

// --- Session store ---

type mockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.CheckoutSession

	PutFunc func(ctx context.Context, s *model.CheckoutSession) error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]*model.CheckoutSession)}
}

func (m *mockSessionStore) Put(ctx context.Context, s *model.CheckoutSession) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, id string) (*model.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// --- Gateway ---

type mockGateway struct {
	name string
	kind model.ProviderKind

	CreateSessionFunc func(ctx context.Context, req model.PaymentRequest) (model.ProviderResult, error)
}

func (m *mockGateway) Name() string { return m.name }
func (m *mockGateway) Kind() model.ProviderKind { return m.kind }

func (m *mockGateway) CreateSession(ctx context.Context, req model.PaymentRequest) (model.ProviderResult, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, req)
	}
	return model.ProviderResult{}, domain.ErrOperationFailed
}

var _ adapter.PaymentGateway = (*mockGateway)(nil)

// --- Lead recorder & poller (checkout collaborators) ---

type mockLeadRecorder struct {
	mu    sync.Mutex
	calls int

	RecordFunc func(s *model.CheckoutSession, onLeadID func(leadID string))
}

func (m *mockLeadRecorder) Record(s *model.CheckoutSession, onLeadID func(leadID string)) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.RecordFunc != nil {
		m.RecordFunc(s, onLeadID)
	}
}

func (m *mockLeadRecorder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockStatusPoller struct {
	mu       sync.Mutex
	started  []string
	stops    int
	onStatus func(id string, status model.TransactionStatus)
}

func (m *mockStatusPoller) Start(ctx context.Context, transactionID string, onStatus func(id string, status model.TransactionStatus)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, transactionID)
	m.onStatus = onStatus
}

func (m *mockStatusPoller) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
}

func (m *mockStatusPoller) fire(id string, status model.TransactionStatus) {
	m.mu.Lock()
	cb := m.onStatus
	m.mu.Unlock()
	if cb != nil {
		cb(id, status)
	}
}

// --- Status source ---

type mockStatusSource struct {
	FetchStatusFunc func(ctx context.Context, transactionID string) (model.TransactionStatus, error)
}

func (m *mockStatusSource) FetchStatus(ctx context.Context, transactionID string) (model.TransactionStatus, error) {
	if m.FetchStatusFunc != nil {
		return m.FetchStatusFunc(ctx, transactionID)
	}
	return model.TransactionStatusPending, nil
}

var _ adapter.StatusSource = (*mockStatusSource)(nil)

// --- Provisioner ---

type mockProvisioner struct {
	mu    sync.Mutex
	calls []ProvisionInput

	ProvisionFunc func(ctx context.Context, in ProvisionInput) (ProvisionOutput, error)
}

func (m *mockProvisioner) Provision(ctx context.Context, in ProvisionInput) (ProvisionOutput, error) {
	m.mu.Lock()
	m.calls = append(m.calls, in)
	m.mu.Unlock()
	if m.ProvisionFunc != nil {
		return m.ProvisionFunc(ctx, in)
	}
	return ProvisionOutput{CustomerID: "cust-1", SubscriptionID: "sub-1"}, nil
}

func (m *mockProvisioner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// --- Locker ---

type mockLocker struct {
	mu     sync.Mutex
	locked bool

	TryLockFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)
}

func (m *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.TryLockFunc != nil {
		return m.TryLockFunc(ctx, key, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return "", domain.ErrBulkApproveRunning
	}
	m.locked = true
	return "tok-1", nil
}

func (m *mockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locked = false
	return nil
}
