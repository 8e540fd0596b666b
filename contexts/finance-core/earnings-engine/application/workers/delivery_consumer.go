package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "fleetpay/contexts/finance-core/earnings-engine/application"
	"fleetpay/contexts/finance-core/earnings-engine/ports"
)

const (
	deliveryCompletedTopic = "delivery.completed"
	payoutTriggeredTopic   = "payout.generation.triggered"

	defaultDeliveryConsumerGroup = "earnings-engine-delivery-cg"
)

type locationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

type deliveryCompletedPayload struct {
	DeliveryID      string            `json:"delivery_id"`
	AssignmentID    string            `json:"assignment_id"`
	OrderID         string            `json:"order_id"`
	CourierID       string            `json:"courier_id"`
	Pickup          locationPayload   `json:"pickup"`
	Dropoff         locationPayload   `json:"dropoff"`
	DistanceKm      float64           `json:"distance_km"`
	DurationMinutes float64           `json:"duration_minutes"`
	Express         bool              `json:"express"`
	VehicleClass    string            `json:"vehicle_class"`
	CompletedAt     string            `json:"completed_at"`
	PickedUpAt      string            `json:"picked_up_at"`
	DeliveredAt     string            `json:"delivered_at"`
	Metadata        map[string]string `json:"metadata"`
}

type payoutTriggeredPayload struct {
	CourierID   string `json:"courier_id"`
	PeriodEnd   string `json:"period_end"`
	TriggeredBy string `json:"triggered_by"`
	DeliveryID  string `json:"delivery_id"`
}

// PayoutCutover is the weekday plus early-morning hour range during which a
// completed delivery additionally triggers payout generation for its courier.
type PayoutCutover struct {
	Weekday   time.Weekday
	StartHour int
	EndHour   int
}

func DefaultPayoutCutover() PayoutCutover {
	return PayoutCutover{Weekday: time.Monday, StartHour: 0, EndHour: 6}
}

func (c PayoutCutover) Contains(at time.Time) bool {
	return at.Weekday() == c.Weekday && at.Hour() >= c.StartHour && at.Hour() < c.EndHour
}

// DeliveryCompletedConsumer maps inbound delivery events into deliveries and
// feeds them to the earnings calculator. Malformed payloads are dropped with a
// warning; calculation failures are returned so broker redelivery applies, and
// the idempotent upsert makes reprocessing safe.
type DeliveryCompletedConsumer struct {
	Subscriber    ports.EventSubscriber
	Publisher     ports.EventPublisher
	Calculator    application.Service
	Cutover       PayoutCutover
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	ConsumerGroup string
	Logger        *slog.Logger
}

func (c DeliveryCompletedConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := c.ConsumerGroup
	if group == "" {
		group = defaultDeliveryConsumerGroup
	}
	if err := c.Subscriber.Subscribe(ctx, deliveryCompletedTopic, group, c.handle); err != nil {
		logger.Error("delivery completed consumer subscribe failed",
			"event", "delivery_consumer_subscribe_failed",
			"module", "finance-core/earnings-engine",
			"layer", "worker",
			"topic", deliveryCompletedTopic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("delivery completed consumer subscribed",
		"event", "delivery_consumer_subscribed",
		"module", "finance-core/earnings-engine",
		"layer", "worker",
		"topic", deliveryCompletedTopic,
		"consumer_group", group,
	)
	return nil
}

func (c DeliveryCompletedConsumer) handle(ctx context.Context, msg ports.EventMessage) error {
	logger := application.ResolveLogger(c.Logger)
	started := time.Now()

	var payload deliveryCompletedPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		logger.Warn("delivery completed payload undecodable, dropping",
			"event", "delivery_payload_decode_failed",
			"module", "finance-core/earnings-engine",
			"layer", "worker",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"event_id", msg.EventID,
			"error", err.Error(),
		)
		return nil
	}

	delivery, ok := c.mapDelivery(payload, msg.OccurredAt)
	if !ok {
		logger.Warn("delivery completed payload invalid, dropping",
			"event", "delivery_payload_invalid",
			"module", "finance-core/earnings-engine",
			"layer", "worker",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"event_id", msg.EventID,
			"has_delivery_id", payload.DeliveryID != "" || payload.AssignmentID != "",
			"has_courier_id", payload.CourierID != "",
		)
		return nil
	}

	calculation, err := c.Calculator.Calculate(ctx, delivery)
	if err != nil {
		logger.Error("earnings calculation failed",
			"event", "delivery_calculation_failed",
			"module", "finance-core/earnings-engine",
			"layer", "worker",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"event_id", msg.EventID,
			"delivery_id", delivery.DeliveryID,
			"courier_id", delivery.CourierID,
			"duration_ms", time.Since(started).Milliseconds(),
			"error", err.Error(),
		)
		return err
	}

	logger.Info("delivery earnings calculated",
		"event", "delivery_earnings_calculated",
		"module", "finance-core/earnings-engine",
		"layer", "worker",
		"delivery_id", calculation.DeliveryID,
		"courier_id", calculation.CourierID,
		"total_earning", calculation.TotalEarning.Amount,
		"currency", calculation.TotalEarning.Currency,
		"peak_hour", calculation.Details.PeakHourApplied,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if c.Cutover.Contains(delivery.CompletedAt) {
		c.publishPayoutTrigger(ctx, delivery)
	}
	return nil
}

func (c DeliveryCompletedConsumer) mapDelivery(payload deliveryCompletedPayload, occurredAt time.Time) (ports.Delivery, bool) {
	deliveryID := payload.DeliveryID
	if deliveryID == "" {
		deliveryID = payload.AssignmentID
	}
	if deliveryID == "" || payload.CourierID == "" {
		return ports.Delivery{}, false
	}

	vehicleClass := payload.VehicleClass
	if vehicleClass == "" {
		vehicleClass = application.VehicleClassWalking
	}

	fallback := occurredAt
	if fallback.IsZero() {
		fallback = c.now()
	}

	return ports.Delivery{
		DeliveryID: deliveryID,
		OrderID:    payload.OrderID,
		CourierID:  payload.CourierID,
		Pickup: ports.Location{
			Latitude:  payload.Pickup.Latitude,
			Longitude: payload.Pickup.Longitude,
			Address:   payload.Pickup.Address,
		},
		Dropoff: ports.Location{
			Latitude:  payload.Dropoff.Latitude,
			Longitude: payload.Dropoff.Longitude,
			Address:   payload.Dropoff.Address,
		},
		DistanceKm:      payload.DistanceKm,
		DurationMinutes: payload.DurationMinutes,
		Express:         payload.Express,
		VehicleClass:    vehicleClass,
		CompletedAt:     parseEventTime(payload.CompletedAt, fallback),
		PickedUpAt:      parseEventTime(payload.PickedUpAt, time.Time{}),
		DeliveredAt:     parseEventTime(payload.DeliveredAt, time.Time{}),
		Metadata:        payload.Metadata,
	}, true
}

func (c DeliveryCompletedConsumer) publishPayoutTrigger(ctx context.Context, delivery ports.Delivery) {
	logger := application.ResolveLogger(c.Logger)
	if c.Publisher == nil {
		return
	}

	periodEnd := startOfWeek(delivery.CompletedAt)
	data, err := json.Marshal(payoutTriggeredPayload{
		CourierID:   delivery.CourierID,
		PeriodEnd:   periodEnd.Format(time.RFC3339),
		TriggeredBy: "delivery-cutover",
		DeliveryID:  delivery.DeliveryID,
	})
	if err != nil {
		return
	}

	eventID := ""
	if c.IDGen != nil {
		eventID, _ = c.IDGen.NewID(ctx)
	}
	envelope := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        payoutTriggeredTopic,
		OccurredAt:       c.now(),
		SourceService:    "earnings-engine",
		SchemaVersion:    1,
		PartitionKeyPath: "courier_id",
		PartitionKey:     delivery.CourierID,
		Data:             data,
	}
	if err := c.Publisher.Publish(ctx, payoutTriggeredTopic, envelope); err != nil {
		logger.Error("payout trigger publish failed",
			"event", "payout_trigger_publish_failed",
			"module", "finance-core/earnings-engine",
			"layer", "worker",
			"courier_id", delivery.CourierID,
			"error", err.Error(),
		)
		return
	}
	logger.Info("payout generation triggered",
		"event", "payout_trigger_published",
		"module", "finance-core/earnings-engine",
		"layer", "worker",
		"courier_id", delivery.CourierID,
		"period_end", periodEnd.Format(time.RFC3339),
	)
}

func (c DeliveryCompletedConsumer) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func parseEventTime(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fallback
	}
	return parsed
}

// startOfWeek returns the Monday 00:00 of the week containing at, which is the
// exclusive end of the previous payout period.
func startOfWeek(at time.Time) time.Time {
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}
