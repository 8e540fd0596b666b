package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainerrors "fleetpay/contexts/finance-core/payout-service/domain/errors"
	"fleetpay/contexts/finance-core/payout-service/ports"

	"github.com/google/uuid"
)

// Store is the in-memory payout repository plus clock and id generator.
type Store struct {
	mu sync.RWMutex

	payouts map[string]ports.CourierPayout
	// periodIndex enforces one payout per courier per period start.
	periodIndex map[string]string
}

func NewStore() *Store {
	return &Store{
		payouts:     make(map[string]ports.CourierPayout),
		periodIndex: make(map[string]string),
	}
}

func (s *Store) CreatePayout(_ context.Context, payout ports.CourierPayout) error {
	if payout.PayoutID == "" || payout.CourierID == "" {
		return domainerrors.ErrInvalidPayoutInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := periodKey(payout.CourierID, payout.PeriodStart)
	if _, exists := s.periodIndex[key]; exists {
		return domainerrors.ErrPayoutExists
	}
	if _, exists := s.payouts[payout.PayoutID]; exists {
		return domainerrors.ErrPayoutExists
	}
	s.payouts[payout.PayoutID] = payout
	s.periodIndex[key] = payout.PayoutID
	return nil
}

func (s *Store) GetPayout(_ context.Context, payoutID string) (ports.CourierPayout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payout, ok := s.payouts[payoutID]
	if !ok {
		return ports.CourierPayout{}, domainerrors.ErrPayoutNotFound
	}
	return payout, nil
}

func (s *Store) ListPayoutsByCourier(_ context.Context, courierID string) ([]ports.CourierPayout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.CourierPayout, 0)
	for _, payout := range s.payouts {
		if payout.CourierID == courierID {
			items = append(items, payout)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].PeriodStart.After(items[j].PeriodStart)
	})
	return items, nil
}

func (s *Store) UpdateStatus(_ context.Context, payoutID string, status string, processedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payout, ok := s.payouts[payoutID]
	if !ok {
		return domainerrors.ErrPayoutNotFound
	}
	payout.Status = status
	if processedAt != nil {
		payout.ProcessedAt = processedAt
	}
	s.payouts[payoutID] = payout
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func periodKey(courierID string, periodStart time.Time) string {
	return courierID + "|" + periodStart.UTC().Format("2006-01-02")
}
