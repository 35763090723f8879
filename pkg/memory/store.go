// Package memory provides the append-only message store shared by all
// roles, plus the optional vector-indexed long-term layer.
package memory

import (
	"iter"
	"sync"

	"github.com/ensembleai/ensemble/pkg/core"
	"github.com/ensembleai/ensemble/pkg/errors"
)

// Store is the canonical append-only message log. It has exactly one
// writer (the environment, at round end) and many readers; readers work on
// immutable snapshots so no lock is held while a role cycle runs.
type Store struct {
	mu       sync.RWMutex
	history  []core.Message
	ids      map[string]struct{}
	byAction map[string][]core.Message
	lastTS   int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		ids:      make(map[string]struct{}),
		byAction: make(map[string][]core.Message),
	}
}

// Add appends a message in arrival order. The message must carry the
// timestamp assigned by the environment. Fails with DUPLICATE_MESSAGE if
// the id is already present and with MEMORY_ERROR if the timestamp does
// not advance the logical clock; both violate the total-order invariant
// and are fatal to the run.
func (s *Store) Add(msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(msg)
}

// AddBatch appends messages in order, stopping at the first failure.
func (s *Store) AddBatch(msgs []core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msg := range msgs {
		if err := s.addLocked(msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) addLocked(msg core.Message) error {
	if _, dup := s.ids[msg.ID]; dup {
		return errors.New(errors.CodeDuplicateMessage, "message id already present", nil).
			WithContext("id", msg.ID)
	}
	if msg.Timestamp <= s.lastTS {
		return errors.New(errors.CodeMemoryError, "timestamp does not advance logical clock", nil).
			WithContext("timestamp", msg.Timestamp).
			WithContext("last", s.lastTS)
	}
	s.ids[msg.ID] = struct{}{}
	s.history = append(s.history, msg)
	s.byAction[msg.CauseBy] = append(s.byAction[msg.CauseBy], msg)
	s.lastTS = msg.Timestamp
	return nil
}

// GetByAction returns all messages whose cause-by tag matches, in arrival
// order.
func (s *Store) GetByAction(tag string) []core.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Message(nil), s.byAction[tag]...)
}

// Since returns a lazy, restartable sequence of messages with a timestamp
// strictly greater than ts, in arrival order. The sequence iterates over a
// snapshot: appends after the call are not visible.
func (s *Store) Since(ts int64) iter.Seq[core.Message] {
	snapshot := s.Snapshot()
	return func(yield func(core.Message) bool) {
		for _, msg := range snapshot {
			if msg.Timestamp <= ts {
				continue
			}
			if !yield(msg) {
				return
			}
		}
	}
}

// FindNews returns up to k of the most recent messages addressed to role
// whose cause-by tag is in watch, with timestamps after the seen cursor.
// Results come back in arrival order. Seen-tracking is the caller's
// concern: the role keeps its own cursor.
func (s *Store) FindNews(role string, watch core.WatchSet, seen int64, k int) []core.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var news []core.Message
	for i := len(s.history) - 1; i >= 0; i-- {
		msg := s.history[i]
		if msg.Timestamp <= seen {
			break
		}
		if !watch.Contains(msg.CauseBy) || !msg.AddressedTo(role) {
			continue
		}
		news = append(news, msg)
		if k > 0 && len(news) == k {
			break
		}
	}

	// Collected newest-first; restore arrival order.
	for i, j := 0, len(news)-1; i < j; i, j = i+1, j-1 {
		news[i], news[j] = news[j], news[i]
	}
	return news
}

// Snapshot returns an immutable copy of the full history in emission order.
func (s *Store) Snapshot() []core.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Message(nil), s.history...)
}

// LastTimestamp returns the highest timestamp appended so far.
func (s *Store) LastTimestamp() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTS
}

// Len returns the number of stored messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}
