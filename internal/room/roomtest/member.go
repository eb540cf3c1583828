// Package roomtest provides a room member that records what it is sent.
package roomtest

import (
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
)

type Member struct {
	id string

	mu       sync.Mutex
	messages []*protocol.Message
}

func NewMember(id string) *Member {
	return &Member{id: id}
}

func (that *Member) ID() string {
	return that.id
}

func (that *Member) Send(msg *protocol.Message) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.messages = append(that.messages, msg)
}

func (that *Member) Messages() []*protocol.Message {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]*protocol.Message(nil), that.messages...)
}

// Actions returns the actions of every message received so far, in order.
func (that *Member) Actions() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	actions := make([]string, 0, len(that.messages))
	for _, msg := range that.messages {
		actions = append(actions, msg.Action)
	}

	return actions
}

// Last returns the latest message with the action, or nil.
func (that *Member) Last(action string) *protocol.Message {
	that.mu.Lock()
	defer that.mu.Unlock()

	for i := len(that.messages) - 1; i >= 0; i-- {
		if that.messages[i].Action == action {
			return that.messages[i]
		}
	}

	return nil
}

// Reset forgets every recorded message.
func (that *Member) Reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.messages = nil
}
