// Package core defines the message model and shared primitives of the
// Ensemble runtime.
package core

import (
	"fmt"

	"github.com/google/uuid"
)

// Broadcast is the wildcard recipient: every registered role receives the
// message.
const Broadcast = "*"

// Reserved cause-by tags. TagUserRequest seeds a run; TagDone terminates it.
const (
	TagUserRequest = "ensemble.user_request"
	TagDone        = "ensemble.done"
)

// Message is an immutable unit of inter-role communication. Once appended
// to the store a message is never mutated or removed; Timestamp is a
// logical clock assigned by the environment at append time.
type Message struct {
	ID        string
	Content   string
	Role      string
	CauseBy   string
	SentTo    []string
	Timestamp int64
}

// NewMessage creates a message with a generated id and no timestamp.
// An empty sentTo defaults to broadcast.
func NewMessage(content, role, causeBy string, sentTo ...string) Message {
	if len(sentTo) == 0 {
		sentTo = []string{Broadcast}
	}
	return Message{
		ID:      uuid.NewString(),
		Content: content,
		Role:    role,
		CauseBy: causeBy,
		SentTo:  append([]string(nil), sentTo...),
	}
}

// UserRequest builds the seed message that kicks off a run.
func UserRequest(content string) Message {
	return NewMessage(content, "user", TagUserRequest)
}

// AddressedTo reports whether the message is visible to the named role.
func (m Message) AddressedTo(role string) bool {
	for _, to := range m.SentTo {
		if to == Broadcast || to == role {
			return true
		}
	}
	return false
}

// IsDone reports whether the message is the run-termination sentinel.
func (m Message) IsDone() bool {
	return m.CauseBy == TagDone
}

// String renders a short log form of the message.
func (m Message) String() string {
	return fmt.Sprintf("%d %s[%s]: %.60s", m.Timestamp, m.Role, m.CauseBy, m.Content)
}
