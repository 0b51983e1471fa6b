// Package controller owns the alert list, the device position and the delete
// confirmation gate for one session.
//
// The remote store is the only source of truth: every mutation is followed by
// a full List, and the displayed alerts are always the latest List result
// as returned, never a locally patched copy.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rxkshit04/nightpulse/internal/broadcast"
	"github.com/rxkshit04/nightpulse/internal/location"
	"github.com/rxkshit04/nightpulse/internal/models"
	"github.com/rxkshit04/nightpulse/internal/store"
)

const (
	msgTitleRequired    = "Title is required"
	msgLocationRequired = "Location not available. Please allow location access."
)

type Option func(*Controller)

// WithClock sets the clock used to timestamp new alerts.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

type Controller struct {
	store   store.Client
	tracker *location.Tracker
	now     func() time.Time
	updates *broadcast.Broadcaster[Snapshot]

	mu       sync.Mutex
	state    State
	alerts   []models.Alert
	position *models.Position
	locErr   *location.Error
	gotFix   bool
	loaded   bool
	// fetchSeq numbers List calls as they start. Results from calls that
	// started before fenceSeq predate a mutation and are discarded.
	fetchSeq uint64
	fenceSeq uint64
	pending  models.DeleteConfirmation
	form     models.Form
	notice   string
	version  uint64
	started  bool
	closed   bool

	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// New builds a controller. A nil tracker behaves like a platform without
// location support.
func New(client store.Client, tracker *location.Tracker, opts ...Option) *Controller {
	if tracker == nil {
		tracker = location.NewTracker(nil, location.DefaultOptions())
	}
	c := &Controller{
		store:   client,
		tracker: tracker,
		now:     time.Now,
		updates: broadcast.New[Snapshot](),
		alerts:  []models.Alert{},
		form:    models.Form{Category: models.DefaultCategory()},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins tracking the device position. The first fix triggers the
// initial List.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.started {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	events, err := c.tracker.Start(runCtx)
	if err != nil {
		cancel()
		return err
	}

	c.started = true
	c.cancel = cancel
	c.done = make(chan struct{})
	c.state = LocationPending
	c.publishLocked()

	go c.consume(runCtx, events)
	return nil
}

// Close releases the location subscription, waits for in-flight refreshes
// triggered by location events, and closes all subscribers.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		c.tracker.Stop()
		<-done
	}
	c.wg.Wait()
	c.updates.Close()
}

func (c *Controller) consume(ctx context.Context, events <-chan location.Event) {
	defer close(c.done)
	for ev := range events {
		c.handle(ctx, ev)
	}
	c.wg.Wait()
}

// Done is closed once the location source has ended and every event from it
// has been handled, including the list fetched after the first fix. It is nil
// before Start.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Controller) handle(ctx context.Context, ev location.Event) {
	c.mu.Lock()

	if ev.Err != nil {
		c.locErr = ev.Err
		c.state = LocationError
		c.publishLocked()
		c.mu.Unlock()
		slog.Warn("location error", "code", ev.Err.Code.String(), "message", ev.Err.Message)
		return
	}
	if ev.Position == nil {
		c.mu.Unlock()
		return
	}

	pos := *ev.Position
	c.position = &pos
	c.locErr = nil
	c.state = Ready
	first := !c.gotFix
	c.gotFix = true
	c.publishLocked()
	c.mu.Unlock()

	slog.Debug("location updated", "lat", pos.Lat, "lng", pos.Lng)

	if first {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			_ = c.refresh(ctx, true)
		}()
	}
}

// Refresh replaces the alert list with the store's current collection. On
// failure the previous list is kept and a notice is set.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.refresh(ctx, false)
}

func (c *Controller) refresh(ctx context.Context, initial bool) error {
	c.mu.Lock()
	c.fetchSeq++
	seq := c.fetchSeq
	c.mu.Unlock()

	alerts, err := c.store.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if initial {
		c.loaded = true
	}
	if seq < c.fenceSeq {
		slog.Debug("discarding alert list started before a mutation", "seq", seq, "fence", c.fenceSeq)
		if initial {
			c.publishLocked()
		}
		return nil
	}
	if err != nil {
		slog.Error("error fetching alerts", "error", err)
		c.notice = "Failed to load alerts: " + err.Error()
		c.publishLocked()
		return err
	}

	if alerts == nil {
		alerts = []models.Alert{}
	}
	c.alerts = alerts
	c.publishLocked()
	slog.Debug("fetched alerts", "count", len(alerts))
	return nil
}

// Submit creates an alert at the current position from form and, once the
// store acknowledges it, re-lists and clears the title and description.
func (c *Controller) Submit(ctx context.Context, form models.Form) error {
	if form.Category == "" {
		form.Category = models.DefaultCategory()
	}

	c.mu.Lock()
	c.form = form
	c.notice = ""

	var rejected error
	switch {
	case form.Title == "":
		rejected = &ValidationError{Message: msgTitleRequired}
	case c.position == nil:
		rejected = &ValidationError{Message: msgLocationRequired}
	case c.state == LocationError:
		rejected = ErrLocationUnavailable
	}
	if rejected != nil {
		if c.locErr != nil && rejected == ErrLocationUnavailable {
			c.notice = c.locErr.Message
		} else {
			c.notice = rejected.Error()
		}
		c.publishLocked()
		c.mu.Unlock()
		return rejected
	}

	draft := models.Draft{
		Title:       form.Title,
		Description: form.Description,
		Category:    form.Category,
		Lat:         c.position.Lat,
		Lng:         c.position.Lng,
		Timestamp:   c.now(),
	}
	c.fenceLocked()
	c.publishLocked()
	c.mu.Unlock()

	created, err := c.store.Create(ctx, draft)
	if err != nil {
		slog.Error("error posting alert", "error", err)
		c.mu.Lock()
		c.notice = "Failed to post alert: " + err.Error()
		c.publishLocked()
		c.mu.Unlock()
		return err
	}
	slog.Info("alert posted", "id", created.ID, "category", draft.Category)

	// A failed refresh is reported through the notice; the alert itself was
	// stored.
	_ = c.Refresh(ctx)

	c.mu.Lock()
	c.form.Title = ""
	c.form.Description = ""
	c.publishLocked()
	c.mu.Unlock()

	return nil
}

// RequestDelete opens the confirmation gate for one alert, replacing any
// pending request.
func (c *Controller) RequestDelete(id, title string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = models.DeleteConfirmation{AlertID: id, AlertTitle: title}
	c.notice = ""
	c.publishLocked()
}

// CancelDelete closes the confirmation gate without touching the store.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = models.DeleteConfirmation{}
	c.publishLocked()
}

// ConfirmDelete removes the pending alert, re-lists, and closes the gate.
// If Remove fails the gate stays open so the user can retry.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	req := c.pending
	c.notice = ""
	if req.Pending() {
		c.fenceLocked()
	}
	c.mu.Unlock()

	if !req.Pending() {
		return ErrNoPendingDelete
	}

	if err := c.store.Remove(ctx, req.AlertID); err != nil {
		slog.Error("error deleting alert", "id", req.AlertID, "error", err)
		c.mu.Lock()
		c.notice = "Failed to delete alert: " + err.Error()
		c.publishLocked()
		c.mu.Unlock()
		return err
	}
	slog.Info("alert deleted", "id", req.AlertID)

	_ = c.Refresh(ctx)

	c.mu.Lock()
	// A newer request made while this one was in flight stays open.
	if c.pending == req {
		c.pending = models.DeleteConfirmation{}
	}
	c.publishLocked()
	c.mu.Unlock()

	return nil
}

// DismissNotice clears the current one-shot notice.
func (c *Controller) DismissNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.notice == "" {
		return
	}
	c.notice = ""
	c.publishLocked()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel that receives a Snapshot after every change.
// Slow subscribers miss intermediate snapshots but never block the
// controller.
func (c *Controller) Subscribe() (uint64, <-chan Snapshot) {
	return c.updates.Subscribe()
}

func (c *Controller) Unsubscribe(id uint64) {
	c.updates.Unsubscribe(id)
}

// Await blocks until the initial alert list has been fetched after the first
// fix. A location error reported before that ends the wait with
// ErrLocationUnavailable.
func (c *Controller) Await(ctx context.Context) (Snapshot, error) {
	id, updates := c.Subscribe()
	defer c.Unsubscribe(id)

	snap := c.Snapshot()
	for {
		switch {
		case snap.State == LocationError:
			return snap, fmt.Errorf("%w: %s", ErrLocationUnavailable, snap.LocationError)
		case snap.Loaded:
			return snap, nil
		}

		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case next, ok := <-updates:
			if !ok {
				return c.Snapshot(), ErrClosed
			}
			snap = next
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		Version: c.version,
		State:   c.state,
		Alerts:  append([]models.Alert(nil), c.alerts...),
		Delete:  c.pending,
		Form:    c.form,
		Notice:  c.notice,
		Loaded:  c.loaded,
	}
	if s.Alerts == nil {
		s.Alerts = []models.Alert{}
	}
	if c.position != nil {
		pos := *c.position
		s.Position = &pos
	}
	if c.locErr != nil {
		s.LocationError = c.locErr.Message
	}
	return s
}

// fenceLocked invalidates every List already in flight. It is called before
// a mutation reaches the store.
func (c *Controller) fenceLocked() {
	c.fetchSeq++
	c.fenceSeq = c.fetchSeq
}

func (c *Controller) publishLocked() {
	c.version++
	c.updates.Broadcast(c.snapshotLocked())
}
