package location

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Fix is one reading from the platform. A zero Time means "now".
type Fix struct {
	Lat      float64
	Lng      float64
	Accuracy float64
	Time     time.Time
}

// Reading carries either a Fix or an error, never both.
type Reading struct {
	Fix *Fix
	Err error
}

// Source is a continuous position watch. Each subscriber receives readings in
// the order they were produced until it unsubscribes.
type Source interface {
	Subscribe() (uint64, <-chan Reading)
	Unsubscribe(id uint64)
}

// Feed is a Source driven by explicit Push and Fail calls. Delivery is
// lossless: a reading waits for every current subscriber to accept it or to
// unsubscribe, so each subscriber sees every reading in push order.
type Feed struct {
	// send serializes deliveries so concurrent pushes keep a single order.
	send sync.Mutex

	mu     sync.Mutex
	subs   map[uint64]*feedSub
	nextID uint64
	closed bool
}

type feedSub struct {
	ch   chan Reading
	gone chan struct{}
}

const feedBuffer = 100

func NewFeed() *Feed {
	return &Feed{subs: make(map[uint64]*feedSub)}
}

// Subscribe registers a subscriber. After Close the returned channel is
// already closed.
func (f *Feed) Subscribe() (uint64, <-chan Reading) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	sub := &feedSub{
		ch:   make(chan Reading, feedBuffer),
		gone: make(chan struct{}),
	}
	if f.closed {
		close(sub.ch)
		return f.nextID, sub.ch
	}
	f.subs[f.nextID] = sub
	return f.nextID, sub.ch
}

// Unsubscribe stops delivery to id and releases any push waiting on it. The
// channel is left open; the subscriber stops reading it.
func (f *Feed) Unsubscribe(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if sub, ok := f.subs[id]; ok {
		close(sub.gone)
		delete(f.subs, id)
	}
}

func (f *Feed) Push(fix Fix) {
	f.deliver(Reading{Fix: &fix})
}

func (f *Feed) Fail(err error) {
	f.deliver(Reading{Err: err})
}

func (f *Feed) deliver(r Reading) {
	f.send.Lock()
	defer f.send.Unlock()

	f.mu.Lock()
	subs := make([]*feedSub, 0, len(f.subs))
	for _, sub := range f.subs {
		subs = append(subs, sub)
	}
	f.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.ch <- r:
		case <-sub.gone:
		}
	}
}

func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close ends every subscription once in-flight pushes are delivered.
// Subscribers drain what is buffered and then see the channel closed.
func (f *Feed) Close() {
	f.send.Lock()
	defer f.send.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	for id, sub := range f.subs {
		close(sub.ch)
		delete(f.subs, id)
	}
}

type replayLine struct {
	Lat       *float64  `json:"lat"`
	Lng       *float64  `json:"lng"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

// ReplaySource feeds readings from JSON lines, one reading per line:
//
//	{"lat": 12.9, "lng": 77.6}
//	{"error": "permission_denied"}
//
// Blank lines and lines starting with '#' are skipped.
type ReplaySource struct {
	*Feed
	r        io.Reader
	interval time.Duration
}

func NewReplaySource(r io.Reader, interval time.Duration) *ReplaySource {
	return &ReplaySource{
		Feed:     NewFeed(),
		r:        r,
		interval: interval,
	}
}

// Run pushes every line to current subscribers, waiting interval between
// readings. It returns at EOF or when ctx is done.
func (s *ReplaySource) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.r)
	lineNo := 0
	first := true
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var rl replayLine
		if err := json.Unmarshal([]byte(line), &rl); err != nil {
			return fmt.Errorf("error decoding replay line %d: %w", lineNo, err)
		}

		if !first && s.interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.interval):
			}
		}
		first = false

		switch {
		case rl.Error != "":
			s.Fail(NewError(ParseErrorCode(rl.Error), rl.Message))
		case rl.Lat != nil && rl.Lng != nil:
			s.Push(Fix{Lat: *rl.Lat, Lng: *rl.Lng, Accuracy: rl.Accuracy, Time: rl.Timestamp})
		default:
			slog.Warn("skipping replay line without position or error", "line", lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading replay input: %w", err)
	}
	return nil
}
