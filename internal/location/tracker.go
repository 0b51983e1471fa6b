package location

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rxkshit04/nightpulse/internal/models"
)

// Options mirror the platform watch configuration.
type Options struct {
	HighAccuracy bool
	// MaximumAge is how old a fix may be, relative to the start of the
	// watch, and still be accepted. Zero rejects cached fixes.
	MaximumAge time.Duration
	// Timeout is how long to wait for a fix before reporting Timeout. The
	// wait runs until the first fix and again after an error; a position
	// that simply stops changing never times out.
	Timeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		MaximumAge:   0,
		Timeout:      10 * time.Second,
	}
}

// Event is either a new Position or an Error.
type Event struct {
	Position *models.Position
	Err      *Error
}

// Tracker holds at most one subscription to a Source at a time.
type Tracker struct {
	src  Source
	opts Options
	now  func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewTracker(src Source, opts Options) *Tracker {
	return &Tracker{
		src:  src,
		opts: opts,
		now:  time.Now,
	}
}

// Start subscribes to the source and returns the event stream. The stream
// is closed after Stop, when ctx is done, or when the source ends.
func (t *Tracker) Start(ctx context.Context) (<-chan Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done != nil {
		return nil, ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Event, 16)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	if t.src == nil {
		go func() {
			defer close(done)
			defer close(out)
			emit(ctx, out, Event{Err: NewError(Unsupported, "")})
		}()
		return out, nil
	}

	id, readings := t.src.Subscribe()
	slog.Debug("location watch started", "subscriber_id", id, "high_accuracy", t.opts.HighAccuracy, "timeout", t.opts.Timeout)
	go t.run(ctx, id, readings, out, done, t.now())

	return out, nil
}

// Stop releases the subscription and waits until no further events can be
// delivered. It is safe to call more than once.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *Tracker) run(ctx context.Context, id uint64, readings <-chan Reading, out chan<- Event, done chan<- struct{}, startedAt time.Time) {
	defer close(done)
	defer close(out)
	defer func() {
		t.src.Unsubscribe(id)
		slog.Debug("location watch stopped", "subscriber_id", id)
	}()

	cutoff := startedAt.Add(-t.opts.MaximumAge)

	// timeout is nil while a fix is held and no error has followed it.
	var timeout <-chan time.Time
	var timer *time.Timer
	arm := func() {
		if t.opts.Timeout <= 0 {
			return
		}
		if timer == nil {
			timer = time.NewTimer(t.opts.Timeout)
		} else {
			timer.Stop()
			timer.Reset(t.opts.Timeout)
		}
		timeout = timer.C
	}
	disarm := func() {
		if timer != nil {
			timer.Stop()
		}
		timeout = nil
	}
	defer disarm()
	arm()

	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-readings:
			if !ok {
				return
			}
			var ev Event
			switch {
			case r.Fix != nil:
				if !r.Fix.Time.IsZero() && r.Fix.Time.Before(cutoff) {
					slog.Debug("dropping stale fix", "fix_time", r.Fix.Time, "cutoff", cutoff)
					continue
				}
				ev.Position = &models.Position{Lat: r.Fix.Lat, Lng: r.Fix.Lng}
				disarm()
			case r.Err != nil:
				ev.Err = asLocationError(r.Err)
				arm()
			default:
				continue
			}
			if !emit(ctx, out, ev) {
				return
			}
		case <-timeout:
			if !emit(ctx, out, Event{Err: NewError(Timeout, "")}) {
				return
			}
			arm()
		}
	}
}

func emit(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
