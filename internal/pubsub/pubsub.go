package pubsub

import "sync"

type Event interface {
}

type Publisher[E Event] interface {
	PublishEvent(*E) error
	AddSubscriber(Subscriber[E])
}

type Subscriber[E Event] interface {
	ConsumeEvent(*E) error
}

// SimplePublisher calls ConsumeEvent on each subscriber in the order they were added. Every
// subscriber sees the event even if an earlier one fails; the first error is returned.
type SimplePublisher[E Event] struct {
	mu          sync.RWMutex
	subscribers []Subscriber[E]
}

func NewSimplePublisher[E Event]() *SimplePublisher[E] {
	return &SimplePublisher[E]{
		subscribers: make([]Subscriber[E], 0),
	}
}

func (p *SimplePublisher[E]) PublishEvent(e *E) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var first error
	for _, s := range p.subscribers {
		if err := s.ConsumeEvent(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (p *SimplePublisher[E]) AddSubscriber(s Subscriber[E]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, s)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc[E Event] func(*E) error

func (f SubscriberFunc[E]) ConsumeEvent(e *E) error {
	return f(e)
}
