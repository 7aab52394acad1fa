package timer

import "sync"

// Handler receives events on the subscriber's own goroutine.
type Handler func(Event)

// Channel fans events out to subscribers. Publish never blocks: every
// subscriber owns an unbounded queue drained by a dedicated goroutine, so
// per-subscriber order matches publish order and a slow handler only
// delays itself.
type Channel struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	closed bool
}

// NewChannel creates an empty channel.
func NewChannel() *Channel {
	return &Channel{subs: make(map[uint64]*subscriber)}
}

// Subscription is returned by Subscribe.
type Subscription struct {
	channel *Channel
	id      uint64
	sub     *subscriber
}

type subscriber struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Event
	handler Handler
	removed bool
	done    chan struct{}
}

// Subscribe registers handler. Events published before the call are never
// delivered; callers resynchronize with a state query.
func (c *Channel) Subscribe(handler Handler) *Subscription {
	sub := &subscriber{handler: handler, done: make(chan struct{})}
	sub.cond = sync.NewCond(&sub.mu)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		sub.removed = true
		close(sub.done)
		return &Subscription{channel: c, sub: sub}
	}
	c.nextID++
	id := c.nextID
	c.subs[id] = sub
	c.mu.Unlock()

	go sub.run()
	return &Subscription{channel: c, id: id, sub: sub}
}

// Publish enqueues event for every current subscriber.
func (c *Channel) Publish(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sub := range c.subs {
		sub.enqueue(event)
	}
}

// Len returns the number of attached subscribers.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Close detaches every subscriber. Later subscriptions are inert.
func (c *Channel) Close() {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[uint64]*subscriber)
	c.closed = true
	c.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
}

// Remove detaches the subscription. It is safe to call more than once and
// from inside the handler; no event is delivered after it returns, except
// the one whose handler is currently executing.
func (s *Subscription) Remove() {
	if s == nil || s.sub == nil {
		return
	}
	if s.channel != nil {
		s.channel.mu.Lock()
		delete(s.channel.subs, s.id)
		s.channel.mu.Unlock()
	}
	s.sub.stop()
}

// Done is closed once the subscriber goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.sub.done
}

func (s *subscriber) enqueue(event Event) {
	s.mu.Lock()
	if !s.removed {
		s.queue = append(s.queue, event)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscriber) stop() {
	s.mu.Lock()
	s.removed = true
	s.queue = nil
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *subscriber) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.removed {
			s.cond.Wait()
		}
		if s.removed {
			s.mu.Unlock()
			return
		}
		event := s.queue[0]
		s.queue[0] = Event{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.handler(event)
	}
}
