package mocks

import (
	"sync"
)

// MockMessageQueue is an in-memory implementation of queue.MessageQueue that
// records published messages and delivers to local subscribers.
type MockMessageQueue struct {
	mu          sync.Mutex
	Published   map[string][][]byte
	subscribers map[string][]func(data []byte) error

	PublishFunc func(subject string, data []byte) error
}

func NewMockMessageQueue() *MockMessageQueue {
	return &MockMessageQueue{
		Published:   make(map[string][][]byte),
		subscribers: make(map[string][]func(data []byte) error),
	}
}

func (m *MockMessageQueue) Publish(subject string, data []byte) error {
	if m.PublishFunc != nil {
		if err := m.PublishFunc(subject, data); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.Published[subject] = append(m.Published[subject], data)
	handlers := append([]func(data []byte) error(nil), m.subscribers[subject]...)
	m.mu.Unlock()

	for _, h := range handlers {
		h(data)
	}
	return nil
}

func (m *MockMessageQueue) Subscribe(subject string, handler func(data []byte) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[subject] = append(m.subscribers[subject], handler)
	return nil
}

func (m *MockMessageQueue) Close() error { return nil }

// LastPublished returns the most recent payload on a subject, or nil.
func (m *MockMessageQueue) LastPublished(subject string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.Published[subject]
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}
