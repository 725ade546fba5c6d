package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/seclyra/veil/internal/anonymizer"
	"github.com/seclyra/veil/internal/audit"
	"github.com/seclyra/veil/internal/events"
)

// maxBodySize caps inlet/outlet request bodies.
const maxBodySize = 20 << 20 // 20 MB

// handleInlet anonymizes an outbound payload before it leaves the trust
// boundary. The response is the same document with sensitive spans replaced
// by placeholders and a correlation id embedded in its metadata.
func (s *Server) handleInlet(w http.ResponseWriter, r *http.Request) {
	requestID := getRequestID(r.Context())
	log := s.logger.WithRequestID(requestID)
	start := time.Now()

	doc, err := decodeDocument(r)
	if err != nil {
		log.Warn("Rejected inlet payload", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	profileName := r.URL.Query().Get("profile")
	if profileName == "" {
		profileName = s.config.Privacy.DefaultProfile
	}

	result, mappings := s.pipeline.Anonymize(r.Context(), doc, profileName)

	correlationID, _ := anonymizer.CorrelationID(result)
	if correlationID != "" {
		s.setLatestMapping(correlationID)
	}

	duration := time.Since(start)

	if len(mappings) > 0 {
		s.hub.BroadcastEvent(events.Event{
			Type:      events.EventTypeDetection,
			Timestamp: time.Now(),
			RequestID: requestID,
			Data: events.DetectionEvent{
				RequestID:     requestID,
				CorrelationID: correlationID,
				Profile:       profileName,
				Direction:     "inlet",
				EntityCount:   len(mappings),
				ProcessingMS:  float64(duration.Nanoseconds()) / 1e6,
			},
		})
	}

	if s.audit != nil {
		s.audit.Record(r.Context(), &audit.Event{
			RequestID:     requestID,
			CorrelationID: correlationID,
			Profile:       profileName,
			Direction:     "inlet",
			EntityCount:   len(mappings),
			Duration:      duration,
		})
	}

	log.Info("Inlet processed",
		zap.String("profile", profileName),
		zap.Int("entities", len(mappings)),
		zap.Duration("duration", duration),
	)

	writeJSON(w, http.StatusOK, result)
}

// handleOutlet reverses placeholder substitution on an inbound response.
// Payloads arriving without a correlation id inherit the most recent inlet
// id before resolution, then fall back to store-wide lookup.
func (s *Server) handleOutlet(w http.ResponseWriter, r *http.Request) {
	requestID := getRequestID(r.Context())
	log := s.logger.WithRequestID(requestID)
	start := time.Now()

	doc, err := decodeDocument(r)
	if err != nil {
		log.Warn("Rejected outlet payload", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	correlationID, ok := anonymizer.CorrelationID(doc)
	if !ok {
		if latest := s.getLatestMapping(); latest != "" {
			doc = withCorrelationID(doc, latest)
			correlationID = latest
			log.Debug("Outlet payload had no correlation id, using latest",
				zap.String("correlation_id", latest),
			)
		}
	}

	result := s.pipeline.Deanonymize(r.Context(), doc)
	duration := time.Since(start)

	if s.audit != nil {
		s.audit.Record(r.Context(), &audit.Event{
			RequestID:     requestID,
			CorrelationID: correlationID,
			Direction:     "outlet",
			Duration:      duration,
		})
	}

	log.Info("Outlet processed",
		zap.String("correlation_id", correlationID),
		zap.Duration("duration", duration),
	)

	writeJSON(w, http.StatusOK, result)
}

// decodeDocument reads and parses a JSON request body.
func decodeDocument(r *http.Request) (any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	r.Body.Close()

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// withCorrelationID returns doc with the correlation id set in its metadata.
// Non-object documents are returned unchanged.
func withCorrelationID(doc any, id string) any {
	m, ok := doc.(map[string]any)
	if !ok {
		return doc
	}
	meta, ok := m["metadata"].(map[string]any)
	if !ok {
		meta = map[string]any{}
		m["metadata"] = meta
	}
	meta[anonymizer.MappingIDKey] = id
	return m
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
