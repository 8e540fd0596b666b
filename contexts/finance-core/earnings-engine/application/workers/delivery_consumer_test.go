package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"fleetpay/contexts/finance-core/earnings-engine/adapters/memory"
	application "fleetpay/contexts/finance-core/earnings-engine/application"
	"fleetpay/contexts/finance-core/earnings-engine/ports"
	"fleetpay/internal/shared/money"
)

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time {
	return c.at
}

type staticIDGen struct {
	id string
}

func (g staticIDGen) NewID(_ context.Context) (string, error) {
	return g.id, nil
}

type recordingPublisher struct {
	topics    []string
	envelopes []ports.EventEnvelope
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, envelope ports.EventEnvelope) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.envelopes = append(p.envelopes, envelope)
	return nil
}

type failingCalcRepo struct {
	err error
}

func (r failingCalcRepo) UpsertCalculation(_ context.Context, _ ports.EarningsCalculation) error {
	return r.err
}

func (r failingCalcRepo) GetCalculation(_ context.Context, _ string) (ports.EarningsCalculation, error) {
	return ports.EarningsCalculation{}, r.err
}

func (r failingCalcRepo) ListByCourier(_ context.Context, _ string, _, _ time.Time) ([]ports.EarningsCalculation, error) {
	return nil, r.err
}

func (r failingCalcRepo) CourierIDsWithCalculations(_ context.Context, _, _ time.Time) ([]string, error) {
	return nil, r.err
}

func newConsumer(t *testing.T, publisher *recordingPublisher, now time.Time) (DeliveryCompletedConsumer, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SeedTariffRate(ports.TariffRate{
		Name:          "standard",
		BaseFee:       money.New(1000, "EUR"),
		PerKmRate:     money.New(50, "EUR"),
		EffectiveFrom: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		Active:        true,
	})
	consumer := DeliveryCompletedConsumer{
		Publisher: publisher,
		Calculator: application.Service{
			Calculations: store,
			Resolver:     application.TariffResolver{Tariffs: store, Config: application.DefaultTariffConfig()},
			Clock:        fixedClock{at: now},
		},
		Cutover: DefaultPayoutCutover(),
		Clock:   fixedClock{at: now},
		IDGen:   staticIDGen{id: "event-1"},
	}
	return consumer, store
}

func deliveryMessage(t *testing.T, payload deliveryCompletedPayload, occurredAt time.Time) ports.EventMessage {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	msg := ports.EventMessage{Topic: "delivery.completed", Partition: 2, Offset: 7}
	msg.EventID = "msg-1"
	msg.EventType = "delivery.completed"
	msg.OccurredAt = occurredAt
	msg.Data = data
	return msg
}

func TestHandleStoresCalculationForValidEvent(t *testing.T) {
	now := time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC)
	publisher := &recordingPublisher{}
	consumer, store := newConsumer(t, publisher, now)

	msg := deliveryMessage(t, deliveryCompletedPayload{
		DeliveryID:   "delivery-1",
		CourierID:    "courier-1",
		DistanceKm:   10,
		VehicleClass: application.VehicleClassMotorcycle,
		CompletedAt:  now.Format(time.RFC3339),
	}, now)

	if err := consumer.handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	calculation, err := store.GetCalculation(context.Background(), "delivery-1")
	if err != nil {
		t.Fatalf("get calculation: %v", err)
	}
	if calculation.TotalEarning.Amount != 1800 {
		t.Fatalf("expected total 1800, got %d", calculation.TotalEarning.Amount)
	}
	if len(publisher.topics) != 0 {
		t.Fatalf("no payout trigger expected outside the cutover window, got %v", publisher.topics)
	}
}

func TestHandleDropsUndecodablePayload(t *testing.T) {
	now := time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC)
	consumer, store := newConsumer(t, &recordingPublisher{}, now)

	msg := ports.EventMessage{Topic: "delivery.completed"}
	msg.Data = []byte("{not-json")

	if err := consumer.handle(context.Background(), msg); err != nil {
		t.Fatalf("undecodable payload must be dropped, not retried: %v", err)
	}
	if _, err := store.GetCalculation(context.Background(), "delivery-1"); err == nil {
		t.Fatal("no calculation should be stored")
	}
}

func TestHandleDropsPayloadWithoutCourier(t *testing.T) {
	now := time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC)
	consumer, _ := newConsumer(t, &recordingPublisher{}, now)

	msg := deliveryMessage(t, deliveryCompletedPayload{DeliveryID: "delivery-1"}, now)
	if err := consumer.handle(context.Background(), msg); err != nil {
		t.Fatalf("payload without courier must be dropped, not retried: %v", err)
	}
}

func TestHandleReturnsCalculationErrorsForRedelivery(t *testing.T) {
	now := time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC)
	storeErr := errors.New("store down")
	consumer, _ := newConsumer(t, &recordingPublisher{}, now)
	consumer.Calculator.Calculations = failingCalcRepo{err: storeErr}

	msg := deliveryMessage(t, deliveryCompletedPayload{
		DeliveryID: "delivery-1",
		CourierID:  "courier-1",
		DistanceKm: 3,
	}, now)

	if err := consumer.handle(context.Background(), msg); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
}

func TestHandleFillsDefaultsFromEnvelope(t *testing.T) {
	now := time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC)
	consumer, store := newConsumer(t, &recordingPublisher{}, now)

	// No delivery id, vehicle class, or completion time in the payload.
	msg := deliveryMessage(t, deliveryCompletedPayload{
		AssignmentID: "assignment-9",
		CourierID:    "courier-1",
		DistanceKm:   2,
	}, now)

	if err := consumer.handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	calculation, err := store.GetCalculation(context.Background(), "assignment-9")
	if err != nil {
		t.Fatalf("expected calculation keyed by assignment id: %v", err)
	}
	if calculation.Details.VehicleMultiplier != 1.0 {
		t.Fatalf("expected walking multiplier 1.0 by default, got %f", calculation.Details.VehicleMultiplier)
	}
}

func TestHandlePublishesPayoutTriggerDuringCutover(t *testing.T) {
	// Monday 03:00 falls inside the default Monday 00:00-06:00 cutover.
	completedAt := time.Date(2026, time.March, 2, 3, 0, 0, 0, time.UTC)
	publisher := &recordingPublisher{}
	consumer, _ := newConsumer(t, publisher, completedAt)

	msg := deliveryMessage(t, deliveryCompletedPayload{
		DeliveryID:  "delivery-1",
		CourierID:   "courier-1",
		DistanceKm:  5,
		CompletedAt: completedAt.Format(time.RFC3339),
	}, completedAt)

	if err := consumer.handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(publisher.topics) != 1 || publisher.topics[0] != "payout.generation.triggered" {
		t.Fatalf("expected one payout trigger, got %v", publisher.topics)
	}

	envelope := publisher.envelopes[0]
	if envelope.PartitionKey != "courier-1" {
		t.Fatalf("expected partition key courier-1, got %s", envelope.PartitionKey)
	}
	var payload payoutTriggeredPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		t.Fatalf("decode trigger payload: %v", err)
	}
	// Period end is the Monday of the completion week.
	if payload.PeriodEnd != "2026-03-02T00:00:00Z" {
		t.Fatalf("expected period end 2026-03-02T00:00:00Z, got %s", payload.PeriodEnd)
	}
}

func TestHandlePublishFailureDoesNotFailTheEvent(t *testing.T) {
	completedAt := time.Date(2026, time.March, 2, 3, 0, 0, 0, time.UTC)
	publisher := &recordingPublisher{err: errors.New("broker down")}
	consumer, _ := newConsumer(t, publisher, completedAt)

	msg := deliveryMessage(t, deliveryCompletedPayload{
		DeliveryID:  "delivery-1",
		CourierID:   "courier-1",
		DistanceKm:  5,
		CompletedAt: completedAt.Format(time.RFC3339),
	}, completedAt)

	if err := consumer.handle(context.Background(), msg); err != nil {
		t.Fatalf("publish failure must not fail the delivery event: %v", err)
	}
}

func TestPayoutCutoverContains(t *testing.T) {
	cutover := DefaultPayoutCutover()

	inside := time.Date(2026, time.March, 2, 5, 59, 0, 0, time.UTC)
	if !cutover.Contains(inside) {
		t.Fatal("Monday 05:59 should be inside the cutover")
	}
	boundary := time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)
	if cutover.Contains(boundary) {
		t.Fatal("Monday 06:00 should be outside the cutover")
	}
	tuesday := time.Date(2026, time.March, 3, 3, 0, 0, 0, time.UTC)
	if cutover.Contains(tuesday) {
		t.Fatal("Tuesday should be outside the cutover")
	}
}

func TestStartOfWeekNormalizesSunday(t *testing.T) {
	sunday := time.Date(2026, time.March, 8, 23, 30, 0, 0, time.UTC)
	got := startOfWeek(sunday)
	want := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
