package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainerrors "fleetpay/contexts/finance-core/earnings-engine/domain/errors"
	"fleetpay/contexts/finance-core/earnings-engine/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter backing tests and local wiring. It implements
// the tariff and calculation repositories plus the clock and id generator ports.
type Store struct {
	mu sync.RWMutex

	tariffs      []ports.TariffRate
	calculations map[string]ports.EarningsCalculation
}

func NewStore() *Store {
	return &Store{
		calculations: make(map[string]ports.EarningsCalculation),
	}
}

// SeedTariffRate registers a rate card for resolution.
func (s *Store) SeedTariffRate(rate ports.TariffRate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tariffs = append(s.tariffs, rate)
}

func (s *Store) FindActiveRates(_ context.Context, query ports.TariffQuery) ([]ports.TariffRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]ports.TariffRate, 0)
	for _, rate := range s.tariffs {
		if !rate.Active {
			continue
		}
		if rate.EffectiveFrom.After(query.At) {
			continue
		}
		if !rate.EffectiveUntil.IsZero() && !rate.EffectiveUntil.After(query.At) {
			continue
		}
		if rate.VehicleClass != "" && rate.VehicleClass != query.VehicleClass {
			continue
		}
		if rate.Region != "" && rate.Region != query.Region {
			continue
		}
		matches = append(matches, rate)
	}
	return matches, nil
}

func (s *Store) UpsertCalculation(_ context.Context, calculation ports.EarningsCalculation) error {
	if calculation.DeliveryID == "" {
		return domainerrors.ErrInvalidDeliveryInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calculations[calculation.DeliveryID] = calculation
	return nil
}

func (s *Store) GetCalculation(_ context.Context, deliveryID string) (ports.EarningsCalculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calculation, ok := s.calculations[deliveryID]
	if !ok {
		return ports.EarningsCalculation{}, domainerrors.ErrCalculationNotFound
	}
	return calculation, nil
}

func (s *Store) ListByCourier(_ context.Context, courierID string, start, end time.Time) ([]ports.EarningsCalculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.EarningsCalculation, 0)
	for _, calculation := range s.calculations {
		if calculation.CourierID != courierID {
			continue
		}
		if calculation.CalculatedAt.Before(start) || !calculation.CalculatedAt.Before(end) {
			continue
		}
		items = append(items, calculation)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CalculatedAt.After(items[j].CalculatedAt)
	})
	return items, nil
}

func (s *Store) CourierIDsWithCalculations(_ context.Context, start, end time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, calculation := range s.calculations {
		if calculation.CalculatedAt.Before(start) || !calculation.CalculatedAt.Before(end) {
			continue
		}
		if seen[calculation.CourierID] {
			continue
		}
		seen[calculation.CourierID] = true
		ids = append(ids, calculation.CourierID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
