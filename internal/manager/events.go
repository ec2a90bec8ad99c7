package manager

import (
	"sync"
	"time"

	"horse.fit/lingo/internal/translation"
)

// EventType names one dispatcher lifecycle event.
type EventType string

const (
	EventTranslateStarted  EventType = "translating_started"
	EventTranslateFinished EventType = "translating_finished"
	EventTranslateError    EventType = "translating_error"
	EventPronounceStarted  EventType = "pronouncing_started"
	EventPronounceFinished EventType = "pronouncing_finished"
	EventPronounceError    EventType = "pronouncing_error"
)

// Event is one timestamped dispatcher notification. Timestamps are strictly
// increasing across all events, so consumers can discard stale messages that
// arrive out of order.
type Event struct {
	Type      EventType           `json:"type"`
	Timestamp int64               `json:"timestamp"`
	Text      string              `json:"text,omitempty"`
	Result    *translation.Result `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// eventBus fans events out to subscriber channels. A slow subscriber drops
// events instead of blocking the dispatcher.
type eventBus struct {
	clock func() time.Time

	mu          sync.Mutex
	lastStamp   int64
	subscribers map[int]chan Event
	nextSub     int
}

func newEventBus(clock func() time.Time) *eventBus {
	if clock == nil {
		clock = time.Now
	}
	return &eventBus{
		clock:       clock,
		subscribers: make(map[int]chan Event),
	}
}

// stamp returns a strictly increasing millisecond timestamp.
func (b *eventBus) stamp() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	stamp := b.clock().UnixMilli()
	if stamp <= b.lastStamp {
		stamp = b.lastStamp + 1
	}
	b.lastStamp = stamp
	return stamp
}

func (b *eventBus) publish(event Event) {
	b.mu.Lock()
	channels := make([]chan Event, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		channels = append(channels, ch)
	}
	b.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- event:
		default:
		}
	}
}

func (b *eventBus) subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subscribers[id] = ch
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		if _, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(ch)
		}
		b.mu.Unlock()
	}
}
