package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iskisraell/obsidian-ai-agent/internal/model"
	"github.com/iskisraell/obsidian-ai-agent/internal/obsidian"
	"github.com/iskisraell/obsidian-ai-agent/internal/secrets"
	"github.com/iskisraell/obsidian-ai-agent/internal/store"
)

type fakePublisher struct {
	result obsidian.Result
	err    error

	gotTitle    string
	gotMarkdown string
}

func (f *fakePublisher) Publish(_ model.Settings, title, markdown string) (obsidian.Result, error) {
	f.gotTitle = title
	f.gotMarkdown = markdown
	return f.result, f.err
}

type fakeSummarizer struct {
	summary string
	err     error
}

func (f *fakeSummarizer) GenerateJobSummary(context.Context, string, string, []string) (string, error) {
	return f.summary, f.err
}

type fixture struct {
	svc   *Service
	store *store.Store
	keys  *secrets.Keystore
	pub   *fakePublisher
	sum   *fakeSummarizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	st, err := store.Open(filepath.Join(dir, "state.json"))
	require.NoError(t, err)

	keys := secrets.NewKeystore(filepath.Join(dir, "credentials"))
	t.Setenv("GEMINI_API_KEY", "")

	pub := &fakePublisher{result: obsidian.Result{NotePath: "/vault/AI Captures/note.md", Method: obsidian.MethodCLI}}
	sum := &fakeSummarizer{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		svc:   New(st, keys, pub, sum, NewEventBus(100), logger),
		store: st,
		keys:  keys,
		pub:   pub,
		sum:   sum,
	}
}

func writeTempMedia(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("media"), 0o644))
	return path
}

func TestEnqueueRequiresFiles(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Enqueue(nil, "")
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestEnqueueCreatesQueuedJob(t *testing.T) {
	f := newFixture(t)
	audio := writeTempMedia(t, "memo.mp3")

	jobID, err := f.svc.Enqueue([]string{audio}, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(jobID, "job-"))

	details := f.svc.GetJob(jobID)
	require.NotNil(t, details)
	assert.Equal(t, model.JobStatusQueued, details.Job.Status)
	assert.Equal(t, "Capture batch (1 files)", details.Job.Title)
	require.Len(t, details.Assets, 1)
	assert.Equal(t, "audio", details.Assets[0].MediaType)
	assert.NotEmpty(t, details.Assets[0].ContentHash)

	events := f.svc.Events().Since(0)
	require.Len(t, events, 1)
	assert.Equal(t, model.JobStatusQueued, events[0].Status)
}

func TestRetryOnlyFromFailed(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.InsertJobWithAssets(model.Job{ID: "done", Status: model.JobStatusCompleted}, nil))
	require.NoError(t, f.store.InsertJobWithAssets(model.Job{ID: "broken", Status: model.JobStatusFailed}, nil))

	ok, err := f.svc.Retry("done")
	require.NoError(t, err)
	assert.False(t, ok, "completed jobs cannot be retried")

	ok, err = f.svc.Retry("ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.Retry("broken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.JobStatusQueued, f.svc.GetJob("broken").Job.Status)
}

func TestCancelLegality(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.InsertJobWithAssets(model.Job{ID: "waiting", Status: model.JobStatusQueued}, nil))
	require.NoError(t, f.store.InsertJobWithAssets(model.Job{ID: "done", Status: model.JobStatusCompleted}, nil))

	ok, err := f.svc.Cancel("waiting")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, model.JobStatusCancelled, f.svc.GetJob("waiting").Job.Status)

	ok, err = f.svc.Cancel("done")
	require.NoError(t, err)
	assert.False(t, ok, "terminal jobs cannot be cancelled")
}

func TestWorkerCompletesJob(t *testing.T) {
	f := newFixture(t)
	audio := writeTempMedia(t, "memo.mp3")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.svc.Run(ctx)

	jobID, err := f.svc.Enqueue([]string{audio}, "Standup")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		details := f.svc.GetJob(jobID)
		return details != nil && details.Job.Status == model.JobStatusCompleted
	}, 3*time.Second, 5*time.Millisecond)

	var statuses []model.JobStatus
	for _, e := range f.svc.Events().Since(0) {
		statuses = append(statuses, e.Status)
	}
	assert.Equal(t, []model.JobStatus{
		model.JobStatusQueued,
		model.JobStatusProcessing,
		model.JobStatusCompleted,
	}, statuses)
}

func TestWorkerFailsJobWithMissingSource(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.svc.Run(ctx)

	jobID, err := f.svc.Enqueue([]string{"/nowhere/clip.mp4"}, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		details := f.svc.GetJob(jobID)
		return details != nil && details.Job.Status == model.JobStatusFailed
	}, 3*time.Second, 5*time.Millisecond)

	// A failed job can be re-queued and will fail again the same way.
	ok, err := f.svc.Retry(jobID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWorkerGeneratesInsightsWhenConfigured(t *testing.T) {
	f := newFixture(t)
	f.sum.summary = "- Ponto um\n- Ponto dois\n- Ponto tres"
	require.NoError(t, f.keys.Save("sk-test"))
	audio := writeTempMedia(t, "memo.mp3")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.svc.Run(ctx)

	jobID, err := f.svc.Enqueue([]string{audio}, "Standup")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		details := f.svc.GetJob(jobID)
		return details != nil && details.Job.Status == model.JobStatusCompleted
	}, 3*time.Second, 5*time.Millisecond)

	markdown, err := f.svc.PreviewNote(jobID)
	require.NoError(t, err)
	assert.Contains(t, markdown, "- Ponto um\n- Ponto dois\n- Ponto tres\n")
	assert.NotContains(t, markdown, "scaffold")
}

func TestSummarizerFailureKeepsScaffold(t *testing.T) {
	f := newFixture(t)
	f.sum.err = errors.New("quota exhausted")
	require.NoError(t, f.keys.Save("sk-test"))
	audio := writeTempMedia(t, "memo.mp3")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.svc.Run(ctx)

	jobID, err := f.svc.Enqueue([]string{audio}, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		details := f.svc.GetJob(jobID)
		return details != nil && details.Job.Status == model.JobStatusCompleted
	}, 3*time.Second, 5*time.Millisecond,
		"an insight failure must not fail the job")

	markdown, err := f.svc.PreviewNote(jobID)
	require.NoError(t, err)
	assert.Contains(t, markdown, "Insights extraction scaffold is active.")
}

func TestPreviewNote(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.InsertJobWithAssets(
		model.Job{ID: "job-1", Title: "Standup", Status: model.JobStatusCompleted},
		[]model.JobAsset{{OriginalPath: "/tmp/memo.mp3", MediaType: "audio"}},
	))

	markdown, err := f.svc.PreviewNote("job-1")
	require.NoError(t, err)
	assert.Contains(t, markdown, `title: "[AI Capture] Standup"`)
	assert.Contains(t, markdown, "- /tmp/memo.mp3 (audio)")

	_, err = f.svc.PreviewNote("ghost")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestPublishNote(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.InsertJobWithAssets(
		model.Job{ID: "job-1", Title: "Standup", Status: model.JobStatusCompleted}, nil))

	result, err := f.svc.PublishNote("job-1")
	require.NoError(t, err)
	assert.Equal(t, obsidian.MethodCLI, result.Method)
	assert.Equal(t, "Standup", f.pub.gotTitle)
	assert.Contains(t, f.pub.gotMarkdown, "[AI Capture] Standup")

	_, err = f.svc.PublishNote("ghost")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestCredentialRoundTrip(t *testing.T) {
	f := newFixture(t)

	status, err := f.svc.CredentialStatus()
	require.NoError(t, err)
	assert.False(t, status.Configured)

	require.NoError(t, f.svc.SaveCredential(" sk-key "))
	status, err = f.svc.CredentialStatus()
	require.NoError(t, err)
	assert.Equal(t, model.CredentialSourceKeychain, status.Source)

	require.NoError(t, f.svc.ClearCredential())
	status, err = f.svc.CredentialStatus()
	require.NoError(t, err)
	assert.False(t, status.Configured)
}
