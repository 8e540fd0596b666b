package events

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical event shape exchanged over the message bus.
// Align fields with the repository event contract; keep backward compatible.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// Message is an envelope as delivered to a consumer, carrying broker position
// metadata for audit logging. Offsets advance per topic partition.
type Message struct {
	Envelope
	Topic     string
	Partition int
	Offset    int64
}
