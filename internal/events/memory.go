package events

import (
	"context"
	"sync"
)

// MemoryChannel is an in-process Channel for tests and single-node
// development runs.
type MemoryChannel struct {
	mu     sync.Mutex
	topics map[string][]*memorySubscription
}

func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{topics: make(map[string][]*memorySubscription)}
}

func (c *MemoryChannel) Publish(_ context.Context, matchID string, evt Event) error {
	c.mu.Lock()
	subs := make([]*memorySubscription, len(c.topics[matchID]))
	copy(subs, c.topics[matchID])
	c.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(evt)
	}
	return nil
}

func (c *MemoryChannel) Subscribe(_ context.Context, matchID, selfID string) (Subscription, error) {
	sub := &memorySubscription{
		channel: c,
		matchID: matchID,
		selfID:  selfID,
		events:  make(chan Event, 64),
	}
	c.mu.Lock()
	c.topics[matchID] = append(c.topics[matchID], sub)
	c.mu.Unlock()
	return sub, nil
}

func (c *MemoryChannel) remove(sub *memorySubscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	subs := c.topics[sub.matchID]
	for i, s := range subs {
		if s == sub {
			c.topics[sub.matchID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(c.topics[sub.matchID]) == 0 {
		delete(c.topics, sub.matchID)
	}
}

type memorySubscription struct {
	channel *MemoryChannel
	matchID string
	selfID  string
	events  chan Event

	mu     sync.Mutex
	closed bool
}

func (s *memorySubscription) deliver(evt Event) {
	if evt.SenderID == s.selfID {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- evt:
	default:
	}
}

func (s *memorySubscription) Events() <-chan Event { return s.events }

func (s *memorySubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.channel.remove(s)
	close(s.events)
	return nil
}
