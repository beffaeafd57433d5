// Package server exposes the daemon command API: a single POST endpoint
// carrying {op, payload} envelopes, plus a WebSocket feed of job events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iskisraell/obsidian-ai-agent/internal/gateway"
	"github.com/iskisraell/obsidian-ai-agent/internal/model"
	"github.com/iskisraell/obsidian-ai-agent/internal/service"
)

const shutdownTimeout = 5 * time.Second

// Server wraps the HTTP command server with lifecycle management.
type Server struct {
	svc      *service.Service
	logger   *slog.Logger
	http     *http.Server
	upgrader websocket.Upgrader
}

// New creates a server listening on addr.
func New(addr string, svc *service.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		svc:    svc,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/command", loggingMiddleware(s.logger, http.HandlerFunc(s.handleCommand)))
	mux.HandleFunc("/api/events", s.handleEvents)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("command server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("command server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown command server: %w", err)
	}
	return nil
}

// commandRequest is the request envelope.
type commandRequest struct {
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// commandResponse is the response envelope.
type commandResponse struct {
	OK     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, s.logger, commandResponse{OK: false, Error: "malformed command request"})
		return
	}

	result, err := s.dispatch(req.Op, req.Payload)
	if err != nil {
		writeResponse(w, s.logger, commandResponse{OK: false, Error: err.Error()})
		return
	}
	writeResponse(w, s.logger, commandResponse{OK: true, Result: result})
}

func writeResponse(w http.ResponseWriter, logger *slog.Logger, resp commandResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Warn("failed to write command response", "error", err)
	}
}

// dispatch routes one operation to the service layer. The returned error
// lands in the envelope's error field; soft declines use result payloads
// instead.
func (s *Server) dispatch(op string, payload json.RawMessage) (any, error) {
	switch op {
	case gateway.OpEnqueueIngestion:
		var req gateway.EnqueueIngestionRequest
		if err := decodePayload(payload, &req); err != nil {
			return nil, err
		}
		jobID, err := s.svc.Enqueue(req.FilePaths, req.NoteTitle)
		if err != nil {
			return nil, err
		}
		return gateway.EnqueueIngestionResponse{JobID: jobID}, nil

	case gateway.OpListJobs:
		jobs := s.svc.ListJobs()
		if jobs == nil {
			jobs = []model.Job{}
		}
		return jobs, nil

	case gateway.OpGetJob:
		jobID, err := decodeJobID(payload)
		if err != nil {
			return nil, err
		}
		return s.svc.GetJob(jobID), nil

	case gateway.OpRetryJob:
		jobID, err := decodeJobID(payload)
		if err != nil {
			return nil, err
		}
		ok, err := s.svc.Retry(jobID)
		if err != nil {
			return nil, err
		}
		return gateway.UpdateJobResponse{OK: ok}, nil

	case gateway.OpCancelJob:
		jobID, err := decodeJobID(payload)
		if err != nil {
			return nil, err
		}
		ok, err := s.svc.Cancel(jobID)
		if err != nil {
			return nil, err
		}
		return gateway.UpdateJobResponse{OK: ok}, nil

	case gateway.OpGetSettings:
		return s.svc.GetSettings(), nil

	case gateway.OpSaveSettings:
		var payloadSettings model.Settings
		if err := decodePayload(payload, &payloadSettings); err != nil {
			return nil, err
		}
		return s.svc.SaveSettings(payloadSettings)

	case gateway.OpGetCredentialStatus:
		return s.svc.CredentialStatus()

	case gateway.OpSaveCredential:
		var req gateway.SaveCredentialRequest
		if err := decodePayload(payload, &req); err != nil {
			return nil, err
		}
		if err := s.svc.SaveCredential(req.Value); err != nil {
			return nil, err
		}
		return gateway.UpdateJobResponse{OK: true}, nil

	case gateway.OpClearCredential:
		if err := s.svc.ClearCredential(); err != nil {
			return nil, err
		}
		return gateway.UpdateJobResponse{OK: true}, nil

	case gateway.OpPreviewNote:
		jobID, err := decodeJobID(payload)
		if err != nil {
			return nil, err
		}
		markdown, err := s.svc.PreviewNote(jobID)
		if err != nil {
			return nil, err
		}
		return gateway.PreviewNoteResponse{Markdown: markdown}, nil

	case gateway.OpPublishNote:
		jobID, err := decodeJobID(payload)
		if err != nil {
			return nil, err
		}
		result, err := s.svc.PublishNote(jobID)
		if err != nil {
			return nil, err
		}
		return gateway.PublishNoteResponse{NotePath: result.NotePath, Method: result.Method}, nil

	default:
		return nil, fmt.Errorf("unknown operation: %q", op)
	}
}

func decodePayload(payload json.RawMessage, into any) error {
	if len(payload) == 0 {
		return errors.New("missing command payload")
	}
	if err := json.Unmarshal(payload, into); err != nil {
		return fmt.Errorf("malformed command payload: %w", err)
	}
	return nil
}

func decodeJobID(payload json.RawMessage) (string, error) {
	var req gateway.JobIDRequest
	if err := decodePayload(payload, &req); err != nil {
		return "", err
	}
	if req.JobID == "" {
		return "", errors.New("job_id is required")
	}
	return req.JobID, nil
}

// handleEvents upgrades to WebSocket and streams job events until the client
// disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := s.svc.Events().Subscribe()
	defer cancel()

	// Reader goroutine notices the disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.logger.Info("event feed client connected", "remote", conn.RemoteAddr().String())
	for {
		select {
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				s.logger.Warn("event feed write failed", "error", err)
				return
			}
		}
	}
}
