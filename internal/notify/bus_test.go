package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"QA_Community/internal/model"
	"QA_Community/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	name string
	err  error

	mu     sync.Mutex
	events []Event
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Deliver(_ context.Context, ev Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return r.err
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestBusContinuesAfterSinkError(t *testing.T) {
	broken := &recorder{name: "broken", err: errors.New("boom")}
	ok := &recorder{name: "ok"}
	bus := NewBus(broken)
	bus.Add(ok)

	ev, err := CommunityEvent(TypeDeleted, &model.Community{ID: 3})
	require.NoError(t, err)
	bus.Publish(context.Background(), ev)

	assert.Equal(t, 1, broken.len())
	require.Equal(t, 1, ok.len())
	assert.Equal(t, uint64(3), ok.events[0].EntityID)
}

func TestBusIgnoresCanceledRequestContext(t *testing.T) {
	ok := &recorder{name: "ok"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev, _ := CommunityEvent(TypeCreated, &model.Community{ID: 1})
	NewBus(ok).Publish(ctx, ev)
	assert.Equal(t, 1, ok.len())
}

func TestEventPayloadShape(t *testing.T) {
	ev, err := CollectionEvent(TypeCreated, &model.Collection{ID: 11, Name: "faves", Username: "alice", IsPrivate: true})
	require.NoError(t, err)
	assert.Equal(t, ChannelCollection, ev.Channel)
	assert.Equal(t, []string{"alice"}, ev.Audience)
	assert.True(t, ev.Visible("alice"))
	assert.False(t, ev.Visible("bob"))

	var data struct {
		Type       string `json:"type"`
		Collection struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"collection"`
	}
	require.NoError(t, json.Unmarshal(ev.Data, &data))
	assert.Equal(t, "created", data.Type)
	assert.Equal(t, "11", data.Collection.ID)
	assert.Equal(t, "faves", data.Collection.Name)

	b, err := ev.wireBytes()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"event":"collectionUpdate"`)
	assert.NotContains(t, string(b), "audience")
}

type fakeWriter struct {
	key   string
	value []byte
}

func (w *fakeWriter) Send(_ context.Context, key string, value []byte) error {
	w.key = key
	w.value = value
	return nil
}

func TestKafkaSinkKeysByEntity(t *testing.T) {
	w := &fakeWriter{}
	ev, _ := CommunityEvent(TypeUpdated, &model.Community{ID: 42})
	require.NoError(t, NewKafkaSink(w).Deliver(context.Background(), ev))

	assert.Equal(t, "42", w.key)
	var got Event
	require.NoError(t, json.Unmarshal(w.value, &got))
	assert.Equal(t, ChannelCommunity, got.Channel)
	assert.Equal(t, TypeUpdated, got.Type)
	assert.Equal(t, uint64(42), got.EntityID)
}

func TestRedisRelaySkipsOwnOrigin(t *testing.T) {
	rdb, _ := testutil.NewRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	localA := &recorder{name: "a"}
	localB := &recorder{name: "b"}
	a := NewRedisRelay(rdb, "test:notify", localA)
	b := NewRedisRelay(rdb, "test:notify", localB)
	go func() { _ = a.Run(ctx) }()
	go func() { _ = b.Run(ctx) }()
	<-a.Ready()
	<-b.Ready()

	ev, _ := CollectionEvent(TypeCreated, &model.Collection{ID: 9, Username: "alice", IsPrivate: true})
	require.NoError(t, a.Deliver(ctx, ev))

	assert.Eventually(t, func() bool { return localB.len() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, localA.len())

	localB.mu.Lock()
	got := localB.events[0]
	localB.mu.Unlock()
	assert.Equal(t, uint64(9), got.EntityID)
	assert.Equal(t, []string{"alice"}, got.Audience)
	assert.JSONEq(t, string(ev.Data), string(got.Data))
}
