package publisherfake

import (
	"sync"

	"github.com/agrobridge/auth-service/events"
)

var _ events.Publisher = (*FakePublisher)(nil)

// Published records a single Publish call.
type Published struct {
	Topic string
	Event interface{}
}

// FakePublisher records published events for assertions in tests.
type FakePublisher struct {
	mu        sync.Mutex
	published []Published
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (p *FakePublisher) Publish(topic string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, Published{Topic: topic, Event: event})
	return nil
}

// Events returns a copy of everything published so far.
func (p *FakePublisher) Events() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Published, len(p.published))
	copy(out, p.published)
	return out
}
