package control

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// refetchTimeout bounds invalidation-driven background refetches.
const refetchTimeout = 10 * time.Second

// Controller composes the sync layer: the cache, the job poller, the
// mutation coordinator, the drafts, and the selection. Consumers (TUI and
// CLI commands) talk to the controller; invalidation-driven refetches happen
// behind it.
type Controller struct {
	gw        Gateway
	Cache     *Cache
	Poller    *Poller
	Drafts    *DraftManager
	Selection *Selection
	Mutations *Coordinator

	logger *slog.Logger

	mu      sync.Mutex
	preview string
	started bool
}

// NewController wires up a controller over the given gateway.
func NewController(gw Gateway, logger *slog.Logger, notifier Notifier, pollOpts ...PollerOption) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		gw:     gw,
		Cache:  NewCache(),
		Drafts: NewDraftManager(),
		logger: logger,
	}

	c.Selection = NewSelection(func(string) {
		go c.refreshPreviewAsync()
	})
	c.Poller = NewPoller(gw, c.Cache, logger, notifier, pollOpts...)
	c.Mutations = NewCoordinator(gw, c.Cache, c.Drafts, c.Selection, notifier, logger)

	c.Cache.Subscribe(c.onResourceChanged)
	return c
}

// Start begins background polling and performs the initial settings and
// credential fetches. The returned stop function halts the poller.
func (c *Controller) Start(ctx context.Context) (stop func()) {
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()

	if err := c.RefreshSettings(ctx); err != nil {
		c.logger.Warn("initial settings fetch failed", "error", err)
	}
	if err := c.RefreshCredentialStatus(ctx); err != nil {
		c.logger.Warn("initial credential status fetch failed", "error", err)
	}

	return c.Poller.Start(ctx)
}

// onResourceChanged reacts to cache events. A fresh snapshot only needs a
// re-render; an invalidated one triggers a background refetch of that
// resource.
func (c *Controller) onResourceChanged(key ResourceKey) {
	if key == ResourceJobs {
		if jobs, ok := c.Cache.Jobs(); ok {
			c.Selection.ObserveJobs(jobs)
		}
	}

	if c.Cache.Valid(key) {
		return
	}

	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refetchTimeout)
		defer cancel()

		var err error
		switch key {
		case ResourceJobs:
			c.Poller.Poll(ctx)
		case ResourceSettings:
			err = c.RefreshSettings(ctx)
		case ResourceCredentialStatus:
			err = c.RefreshCredentialStatus(ctx)
		}
		if err != nil {
			c.logger.Warn("refetch after invalidation failed", "resource", string(key), "error", err)
		}
	}()
}

// RefreshSettings fetches the authoritative snapshot and re-seeds the draft
// when it has no unsaved edits.
func (c *Controller) RefreshSettings(ctx context.Context) error {
	settings, err := c.gw.GetSettings(ctx)
	if err != nil {
		return err
	}
	c.Cache.Put(ResourceSettings, settings)
	c.Drafts.ObserveSnapshot(settings)
	return nil
}

// RefreshCredentialStatus fetches the credential status; a confirmed
// keychain save clears the write-only credential draft.
func (c *Controller) RefreshCredentialStatus(ctx context.Context) error {
	status, err := c.gw.GetCredentialStatus(ctx)
	if err != nil {
		return err
	}
	c.Cache.Put(ResourceCredentialStatus, status)
	c.Drafts.ObserveCredentialStatus(status)
	return nil
}

// RefreshPreview re-fetches the preview for the current selection without
// changing it.
func (c *Controller) RefreshPreview(ctx context.Context) error {
	jobID, ok := c.Selection.Active()
	if !ok {
		c.mu.Lock()
		c.preview = ""
		c.mu.Unlock()
		return nil
	}

	resp, err := c.gw.PreviewNote(ctx, jobID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.preview = resp.Markdown
	c.mu.Unlock()
	return nil
}

func (c *Controller) refreshPreviewAsync() {
	ctx, cancel := context.WithTimeout(context.Background(), refetchTimeout)
	defer cancel()
	if err := c.RefreshPreview(ctx); err != nil {
		c.logger.Warn("preview fetch failed", "error", err)
	}
}

// Preview returns the markdown for the active job, or the fixed placeholder
// when nothing is selected.
func (c *Controller) Preview() string {
	if _, ok := c.Selection.Active(); !ok {
		return PreviewPlaceholder
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.preview == "" {
		return "Loading preview..."
	}
	return c.preview
}

// PublishEnabled reports whether a publish action is currently allowed.
func (c *Controller) PublishEnabled() bool {
	_, ok := c.Selection.Active()
	return ok
}
