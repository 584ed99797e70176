package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/akylbek/payment-system/payout-service/internal/apperrors"
	"github.com/akylbek/payment-system/payout-service/internal/interfaces"
	"github.com/akylbek/payment-system/payout-service/internal/models"
)

// MockPayoutRepository is an in-memory store. A single mutex serializes
// Mutate and Delete, standing in for the database row lock.
type MockPayoutRepository struct {
	mu        sync.Mutex
	Records   map[string]*models.PayoutRequest
	Mutations int
}

func NewMockPayoutRepository() *MockPayoutRepository {
	return &MockPayoutRepository{Records: map[string]*models.PayoutRequest{}}
}

// Seed inserts a record directly with the given status and returns its
// external id.
func (m *MockPayoutRepository) Seed(status models.Status, details models.RecipientDetails) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	externalID := uuid.New()
	now := time.Now()
	m.Records[externalID.String()] = &models.PayoutRequest{
		ID:               int64(len(m.Records) + 1),
		ExternalID:       externalID,
		Amount:           decimal.RequireFromString("500.00"),
		Currency:         models.CurrencyUSD,
		RecipientDetails: details,
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return externalID.String()
}

func (m *MockPayoutRepository) Create(ctx context.Context, in *models.CreatePayoutInput) (*models.PayoutRequest, error) {
	if !in.Amount.IsPositive() {
		return nil, apperrors.NewFieldError("amount", "amount must be positive")
	}
	if !models.IsSupportedCurrency(in.Currency) {
		return nil, apperrors.NewFieldError("currency", "unsupported currency "+in.Currency)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	externalID := uuid.New()
	now := time.Now()
	p := &models.PayoutRequest{
		ID:               int64(len(m.Records) + 1),
		ExternalID:       externalID,
		Amount:           in.Amount,
		Currency:         in.Currency,
		RecipientDetails: in.RecipientDetails,
		Status:           models.StatusPending,
		Description:      in.Description,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	m.Records[externalID.String()] = p
	copied := *p
	return &copied, nil
}

func (m *MockPayoutRepository) GetByExternalID(ctx context.Context, externalID string) (*models.PayoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.Records[externalID]
	if !ok {
		return nil, &apperrors.NotFoundError{ExternalID: externalID}
	}
	copied := *p
	return &copied, nil
}

func (m *MockPayoutRepository) List(ctx context.Context, filter models.PayoutFilter) ([]*models.PayoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.PayoutRequest
	for _, p := range m.Records {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Currency != "" && p.Currency != filter.Currency {
			continue
		}
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

func (m *MockPayoutRepository) Mutate(ctx context.Context, externalID string, fn interfaces.MutateFunc) (*models.PayoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.Records[externalID]
	if !ok {
		return nil, &apperrors.NotFoundError{ExternalID: externalID}
	}

	working := *p
	columns, err := fn(&working)
	if err != nil {
		return nil, err
	}
	if len(columns) > 0 {
		working.UpdatedAt = time.Now()
		*p = working
		m.Mutations++
	}
	copied := working
	return &copied, nil
}

func (m *MockPayoutRepository) Delete(ctx context.Context, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.Records[externalID]
	if !ok {
		return &apperrors.NotFoundError{ExternalID: externalID}
	}
	if p.Status != models.StatusPending {
		return &apperrors.ConflictError{
			Reason: "cannot delete payout in \"" + string(p.Status) + "\" status; only pending payouts can be deleted",
		}
	}
	delete(m.Records, externalID)
	return nil
}

func (m *MockPayoutRepository) Status(externalID string) models.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Records[externalID]
	if !ok {
		return ""
	}
	return p.Status
}

// MockVerifier answers every check with a fixed verdict.
type MockVerifier struct {
	Valid bool
}

func (v *MockVerifier) Verify(ctx context.Context, details models.RecipientDetails) bool {
	return v.Valid
}

// MockGateway records submissions and answers with a fixed outcome.
type MockGateway struct {
	mu      sync.Mutex
	Accept  bool
	Message string
	Calls   int
}

func (g *MockGateway) Submit(ctx context.Context, amount decimal.Decimal, currency string, details models.RecipientDetails) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++
	return g.Accept, g.Message
}

func (g *MockGateway) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Calls
}

// MockPublisher records published events.
type MockPublisher struct {
	mu      sync.Mutex
	Created []string
	Changes []string
}

func (p *MockPublisher) PayoutCreated(ctx context.Context, externalID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Created = append(p.Created, externalID)
	return nil
}

func (p *MockPublisher) StatusChanged(ctx context.Context, externalID string, from, to models.Status) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Changes = append(p.Changes, string(from)+"->"+string(to))
	return nil
}

func (p *MockPublisher) CreatedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Created)
}
