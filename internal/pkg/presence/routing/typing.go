package routing

import (
	"go-relay/internal/pkg/presence/registry"
)

// TypingSignal is a stateless pass-through from a sender's connection to a
// single target connection. Nothing is persisted and nothing is acknowledged.
type TypingSignal struct {
	registry *registry.ConnectionRegistry
}

func NewTypingSignal(reg *registry.ConnectionRegistry) *TypingSignal {
	return &TypingSignal{registry: reg}
}

// Signal emits user-typing to the target's connection only. Silently a no-op
// when the sender is not registered or the target does not resolve.
func (t *TypingSignal) Signal(senderConnID, to string, isTyping bool) {
	sender, ok := t.registry.Get(senderConnID)
	if !ok {
		return
	}
	target, ok := t.registry.Lookup(to)
	if !ok {
		return
	}
	_ = target.Sink.Emit(EventUserTyping, TypingPayload{
		From:     sender.Username,
		IsTyping: isTyping,
	})
}
