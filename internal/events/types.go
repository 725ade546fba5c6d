package events

import "time"

// EventType represents the type of event broadcast to dashboard clients
type EventType string

const (
	// EventTypeDetection is emitted when a document produced placeholder
	// substitutions on the inlet path.
	EventTypeDetection EventType = "detection"
	// EventTypeRequestLog is emitted for every processed HTTP request.
	EventTypeRequestLog EventType = "request_log"
	// EventTypeConnection is emitted when dashboard clients come and go.
	EventTypeConnection EventType = "connection"
)

// Event is one message sent to connected clients
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	Data      any       `json:"data"`
}

// DetectionEvent reports entity substitutions for one document. It carries
// counts only, never the substituted text.
type DetectionEvent struct {
	RequestID     string  `json:"request_id"`
	CorrelationID string  `json:"correlation_id"`
	Profile       string  `json:"profile"`
	Direction     string  `json:"direction"`
	EntityCount   int     `json:"entity_count"`
	ProcessingMS  float64 `json:"processing_ms"`
}

// RequestLogEvent reports one completed HTTP request
type RequestLogEvent struct {
	RequestID  string        `json:"request_id"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	StatusCode int           `json:"status_code"`
	ClientIP   string        `json:"client_ip"`
	Duration   time.Duration `json:"duration"`
}

// ConnectionEvent reports a dashboard client connecting or disconnecting
type ConnectionEvent struct {
	Action   string `json:"action"` // connected or disconnected
	ClientID string `json:"client_id"`
	ClientIP string `json:"client_ip"`
}
