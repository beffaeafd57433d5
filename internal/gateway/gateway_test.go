package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iskisraell/obsidian-ai-agent/internal/metrics"
	"github.com/iskisraell/obsidian-ai-agent/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commandServer fakes the daemon command endpoint for one handler func.
func commandServer(t *testing.T, handle func(op string, payload json.RawMessage) (any, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/command", r.URL.Path)

		var req commandRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, errMsg := handle(req.Op, req.Payload)
		resp := commandResponse{OK: errMsg == ""}
		if errMsg != "" {
			resp.Error = errMsg
		} else if result != nil {
			raw, err := json.Marshal(result)
			require.NoError(t, err)
			resp.Result = raw
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestListJobs(t *testing.T) {
	srv := commandServer(t, func(op string, _ json.RawMessage) (any, string) {
		require.Equal(t, OpListJobs, op)
		return []model.Job{
			{ID: "a", Title: "Capture batch (1 files)", Status: model.JobStatusQueued, CreatedAt: 100, UpdatedAt: 100, AssetCount: 1},
		}, ""
	})
	defer srv.Close()

	c := New(srv.URL)
	jobs, err := c.ListJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "a", jobs[0].ID)
	assert.Equal(t, model.JobStatusQueued, jobs[0].Status)
}

func TestGetJobAbsent(t *testing.T) {
	srv := commandServer(t, func(op string, payload json.RawMessage) (any, string) {
		var req JobIDRequest
		require.NoError(t, json.Unmarshal(payload, &req))
		assert.Equal(t, "missing", req.JobID)
		return nil, ""
	})
	defer srv.Close()

	c := New(srv.URL)
	details, err := c.GetJob(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestInvokeErrorCarriesOperation(t *testing.T) {
	srv := commandServer(t, func(op string, _ json.RawMessage) (any, string) {
		return nil, "vault path not configured"
	})
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.PublishNote(context.Background(), "a")
	require.Error(t, err)

	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, OpPublishNote, gwErr.Op)
	assert.Contains(t, gwErr.Message, "vault path")
}

func TestTransportFailureIsTypedError(t *testing.T) {
	c := New("http://127.0.0.1:1") // nothing listens here
	_, err := c.ListJobs(context.Background())
	require.Error(t, err)

	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, OpListJobs, gwErr.Op)
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	srv := commandServer(t, func(op string, payload json.RawMessage) (any, string) {
		require.Equal(t, OpSaveSettings, op)
		var s model.Settings
		require.NoError(t, json.Unmarshal(payload, &s))
		// Server-side normalization: fill default model.
		if s.GeminiModel == "" {
			s.GeminiModel = "gemini-1.5-flash"
		}
		return s, ""
	})
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.SaveSettings(context.Background(), model.Settings{
		VaultPath: "/vault",
		WriteMode: model.WriteModeCLIFallback,
	})
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-flash", got.GeminiModel)
	assert.Equal(t, "/vault", got.VaultPath)
}

func TestStatsRecording(t *testing.T) {
	srv := commandServer(t, func(op string, _ json.RawMessage) (any, string) {
		if op == OpClearCredential {
			return nil, ""
		}
		return nil, "boom"
	})
	defer srv.Close()

	stats := metrics.NewCollector()
	c := New(srv.URL).WithStats(stats)

	require.NoError(t, c.ClearCredential(context.Background()))
	err := c.SaveCredential(context.Background(), "key")
	require.Error(t, err)

	snap := stats.Snapshot()
	require.Len(t, snap.Operations, 2)
	assert.Equal(t, OpClearCredential, snap.Operations[0].Op)
	assert.Equal(t, int64(0), snap.Operations[0].Failures)
	assert.Equal(t, OpSaveCredential, snap.Operations[1].Op)
	assert.Equal(t, int64(1), snap.Operations[1].Failures)
}
