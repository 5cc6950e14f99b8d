package store

import (
	"sync"
	"time"
)

// MessageLog is an append-only, in-memory list of chat messages.
// Append is the only mutation; readers get copies.
type MessageLog struct {
	mu       sync.Mutex
	messages []Message
	lastID   int64
	now      func() time.Time

	subs    map[int]chan []Message
	nextSub int
	closed  bool
}

func NewMessageLog() *MessageLog {
	return &MessageLog{
		messages: make([]Message, 0, 16),
		now:      time.Now,
		subs:     make(map[int]chan []Message),
	}
}

// Append assigns ids and timestamps to msgs, stores them after the existing
// entries and returns the stored copies.
func (l *MessageLog) Append(msgs ...Message) []Message {
	if len(msgs) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	stored := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		l.lastID++
		m.ID = l.lastID
		if m.CreatedAt.IsZero() {
			m.CreatedAt = l.now()
		}
		l.messages = append(l.messages, m)
		stored = append(stored, m)
	}

	l.publishLocked()
	return stored
}

// Snapshot returns a copy of all messages, oldest first.
func (l *MessageLog) Snapshot() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// Subscribe returns a channel that receives a fresh snapshot after every
// append. The channel holds at most one pending snapshot: a slow reader skips
// intermediate states but always sees the latest one. Call cancel to stop.
// The channel is closed by cancel or by Close, whichever comes first.
func (l *MessageLog) Subscribe() (<-chan []Message, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan []Message, 1)
	if l.closed {
		close(ch)
		return ch, func() {}
	}

	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch

	cancel := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if _, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Close ends every subscription. Snapshot and Append keep working.
func (l *MessageLog) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	for id, ch := range l.subs {
		delete(l.subs, id)
		close(ch)
	}
}

func (l *MessageLog) snapshotLocked() []Message {
	copied := make([]Message, len(l.messages))
	copy(copied, l.messages)
	return copied
}

func (l *MessageLog) publishLocked() {
	if len(l.subs) == 0 {
		return
	}
	for _, ch := range l.subs {
		// Replace any unread snapshot with the newest one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- l.snapshotLocked():
		default:
		}
	}
}
