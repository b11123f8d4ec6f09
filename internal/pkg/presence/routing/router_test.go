package routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	presence "go-relay/internal/pkg/presence/domain"
	"go-relay/internal/pkg/presence/registry"
)

type fixture struct {
	registry *registry.ConnectionRegistry
	store    *fakeStore
	router   *Router
}

func newFixture() *fixture {
	reg := registry.New()
	store := newFakeStore()
	return &fixture{
		registry: reg,
		store:    store,
		router:   NewRouter(reg, store, nil),
	}
}

func (f *fixture) join(t *testing.T, connID, username string) *fakeSink {
	t.Helper()
	sink := &fakeSink{}
	_, _, err := f.registry.Register(connID, username, sink)
	require.NoError(t, err)
	return sink
}

func TestSendDirectDelivered(t *testing.T) {
	f := newFixture()
	alice := f.join(t, "conn-a", "alice")
	bob := f.join(t, "conn-b", "bob")

	err := f.router.SendDirect(context.Background(), "conn-a", "bob", "hi")
	require.NoError(t, err)

	inbox := bob.byEvent(EventNewMessage)
	require.Len(t, inbox, 1)
	got := inbox[0].(NewMessagePayload)
	assert.Equal(t, "alice", got.From)
	assert.Equal(t, "hi", got.Message)
	assert.True(t, got.Delivered)

	acks := alice.byEvent(EventMessageSent)
	require.Len(t, acks, 1)
	ack := acks[0].(MessageSentPayload)
	assert.Equal(t, got.ID, ack.ID)
	assert.Equal(t, "bob", ack.To)
	assert.True(t, ack.Delivered)
	assert.True(t, ack.Persisted)
	assert.Equal(t, StatusDelivered, ack.Status)

	// Persisted under the durable id with the delivered flag flipped
	// (queue client is nil, so the update ran inline).
	stored, ok := f.store.get(ack.ID)
	require.True(t, ok)
	assert.True(t, stored.Delivered)
	assert.False(t, stored.Read)
}

func TestSendDirectAckPrecedesDeliveredUpdate(t *testing.T) {
	f := newFixture()
	alice := f.join(t, "conn-a", "alice")
	f.join(t, "conn-b", "bob")

	// The inline delivered-flag fallback must run only after the sender's
	// ack is out, so a slow store cannot delay the acknowledgment.
	acksAtUpdate := -1
	f.store.onMarkDelivered = func() {
		acksAtUpdate = alice.count(EventMessageSent)
	}

	require.NoError(t, f.router.SendDirect(context.Background(), "conn-a", "bob", "hi"))
	assert.Equal(t, 1, acksAtUpdate)
}

func TestSendDirectOffline(t *testing.T) {
	f := newFixture()
	alice := f.join(t, "conn-a", "alice")
	bob := f.join(t, "conn-b", "bob")

	err := f.router.SendDirect(context.Background(), "conn-a", "carol", "anyone home?")
	require.NoError(t, err)

	assert.Zero(t, bob.count(EventNewMessage))
	assert.Zero(t, alice.count(EventNewMessage))

	acks := alice.byEvent(EventMessageSent)
	require.Len(t, acks, 1)
	ack := acks[0].(MessageSentPayload)
	assert.False(t, ack.Delivered)
	assert.True(t, ack.Persisted)
	assert.Equal(t, StatusOffline, ack.Status)

	// Retrievable via history only, delivered stays false.
	stored, ok := f.store.get(ack.ID)
	require.True(t, ok)
	assert.False(t, stored.Delivered)
	assert.Equal(t, "carol", stored.Receiver)
}

func TestSendDirectRejections(t *testing.T) {
	f := newFixture()
	f.join(t, "conn-a", "alice")

	err := f.router.SendDirect(context.Background(), "conn-ghost", "bob", "hi")
	assert.ErrorIs(t, err, presence.ErrNotJoined)

	err = f.router.SendDirect(context.Background(), "conn-a", "", "hi")
	assert.ErrorIs(t, err, presence.ErrInvalidInput)

	err = f.router.SendDirect(context.Background(), "conn-a", "bob", "  ")
	assert.ErrorIs(t, err, presence.ErrInvalidInput)

	// Rejected sends leave no trace in the store.
	n, _ := f.store.CountMessages(context.Background())
	assert.Zero(t, n)
}

func TestSendDirectDegradedStore(t *testing.T) {
	f := newFixture()
	f.store.failing = true
	alice := f.join(t, "conn-a", "alice")
	bob := f.join(t, "conn-b", "bob")

	err := f.router.SendDirect(context.Background(), "conn-a", "bob", "still here")
	require.NoError(t, err)

	// Live delivery is independent of the store.
	inbox := bob.byEvent(EventNewMessage)
	require.Len(t, inbox, 1)
	got := inbox[0].(NewMessagePayload)
	assert.True(t, got.Delivered)
	assert.True(t, presence.IsTransientID(got.ID))

	acks := alice.byEvent(EventMessageSent)
	require.Len(t, acks, 1)
	ack := acks[0].(MessageSentPayload)
	assert.True(t, ack.Delivered)
	assert.False(t, ack.Persisted)
	assert.True(t, presence.IsTransientID(ack.ID))
}

func TestBroadcast(t *testing.T) {
	f := newFixture()
	alice := f.join(t, "conn-a", "alice")
	bob := f.join(t, "conn-b", "bob")
	carol := f.join(t, "conn-c", "carol")

	err := f.router.Broadcast(context.Background(), "conn-a", "hello all")
	require.NoError(t, err)

	// Self-inclusive fan-out.
	for _, sink := range []*fakeSink{alice, bob, carol} {
		got := sink.byEvent(EventBroadcast)
		require.Len(t, got, 1)
		payload := got[0].(BroadcastPayload)
		assert.Equal(t, "alice", payload.From)
		assert.Equal(t, "hello all", payload.Message)
	}

	// Persisted against the everyone sentinel, no delivered flag semantics.
	stored, ok := f.store.get("msg-1")
	require.True(t, ok)
	assert.Equal(t, presence.Everyone, stored.Receiver)
	assert.False(t, stored.Delivered)
}

func TestBroadcastRejections(t *testing.T) {
	f := newFixture()
	f.join(t, "conn-a", "alice")

	assert.ErrorIs(t, f.router.Broadcast(context.Background(), "conn-ghost", "hi"), presence.ErrNotJoined)
	assert.ErrorIs(t, f.router.Broadcast(context.Background(), "conn-a", ""), presence.ErrInvalidInput)
}

func TestMarkRead(t *testing.T) {
	f := newFixture()
	f.join(t, "conn-a", "alice")
	f.join(t, "conn-b", "bob")

	require.NoError(t, f.router.SendDirect(context.Background(), "conn-a", "bob", "read me"))
	stored, ok := f.store.get("msg-1")
	require.True(t, ok)
	require.False(t, stored.Read)

	// Only the receiver's connection can acknowledge.
	f.router.MarkRead(context.Background(), "conn-a", "msg-1")
	stored, _ = f.store.get("msg-1")
	assert.False(t, stored.Read)

	f.router.MarkRead(context.Background(), "conn-b", "msg-1")
	stored, _ = f.store.get("msg-1")
	require.True(t, stored.Read)
	require.NotNil(t, stored.ReadAt)
	firstReadAt := *stored.ReadAt

	// Monotone: repeat acknowledgments never move readAt.
	f.router.MarkRead(context.Background(), "conn-b", "msg-1")
	stored, _ = f.store.get("msg-1")
	assert.Equal(t, firstReadAt, *stored.ReadAt)
}

func TestMarkReadSilentPaths(t *testing.T) {
	f := newFixture()
	f.join(t, "conn-b", "bob")

	// None of these may panic or emit anything; they only log.
	f.router.MarkRead(context.Background(), "conn-ghost", "msg-1")
	f.router.MarkRead(context.Background(), "conn-b", "")
	f.router.MarkRead(context.Background(), "conn-b", presence.NewTransientID())
	f.router.MarkRead(context.Background(), "conn-b", "msg-unknown")

	f.store.failing = true
	f.router.MarkRead(context.Background(), "conn-b", "msg-1")
}

func TestConversationRoundTrip(t *testing.T) {
	f := newFixture()
	f.join(t, "conn-a", "alice")
	f.join(t, "conn-b", "bob")

	require.NoError(t, f.router.SendDirect(context.Background(), "conn-a", "bob", "one"))
	require.NoError(t, f.router.SendDirect(context.Background(), "conn-b", "alice", "two"))

	msgs, err := f.store.GetConversation(context.Background(), "alice", "bob", 50)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "alice", msgs[0].Sender)
	assert.Equal(t, "bob", msgs[0].Receiver)
	assert.Equal(t, "one", msgs[0].Content)
	assert.Equal(t, "two", msgs[1].Content)
}

func TestValidationMessage(t *testing.T) {
	assert.Equal(t, "join before sending messages", ValidationMessage(presence.ErrNotJoined))
	assert.Equal(t, "recipient and message are required", ValidationMessage(presence.ErrInvalidInput))
}
