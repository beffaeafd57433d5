package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/iskisraell/obsidian-ai-agent/internal/gateway"
)

// maxPayloadLogLen is the maximum length for logged payloads before
// truncation.
const maxPayloadLogLen = 200

// slowRequestThreshold is the duration above which commands are logged at
// WARN level.
const slowRequestThreshold = 100 * time.Millisecond

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs every command with its operation name and timing.
// Slow requests (>100ms) are logged at WARN level; payloads are truncated.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		op, payload := peekCommand(r)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		attrs := []any{
			"op", op,
			"status", rec.status,
			"duration_ms", duration.Milliseconds(),
		}
		if payload != "" {
			attrs = append(attrs, "payload", truncate(payload, maxPayloadLogLen))
		}

		if duration > slowRequestThreshold {
			logger.Warn("slow command", attrs...)
		} else {
			logger.Debug("command completed", attrs...)
		}
	})
}

// peekCommand reads the envelope for logging and restores the body for the
// handler.
func peekCommand(r *http.Request) (op, payload string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", ""
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var req commandRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", ""
	}
	if req.Op == gateway.OpSaveCredential {
		// Never log credential material.
		return req.Op, "[redacted]"
	}
	return req.Op, string(req.Payload)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
