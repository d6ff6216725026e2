package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"QA_Community/internal/model"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, r.URL.Query().Get("username"))
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, username string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?username=" + username
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	f := read(t, conn)
	require.Equal(t, "connected", f.Event)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func entityID(t *testing.T, f frame, key string) string {
	t.Helper()
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(f.Data, &data))
	var entity struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data[key], &entity))
	return entity.ID
}

func TestHubBroadcastsToEveryone(t *testing.T) {
	hub, srv := newHubServer(t)
	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")
	assert.Equal(t, 2, hub.Count())

	ev, err := CommunityEvent(TypeCreated, &model.Community{ID: 5, Name: "Cats", Admin: "alice", Participants: []string{"alice"}})
	require.NoError(t, err)
	require.NoError(t, hub.Deliver(context.Background(), ev))

	for _, conn := range []*websocket.Conn{alice, bob} {
		f := read(t, conn)
		assert.Equal(t, "communityUpdate", f.Event)
		assert.Equal(t, "5", entityID(t, f, "community"))
		assert.Contains(t, string(f.Data), `"type":"created"`)
	}
}

func TestHubPrivateCollectionOnlyReachesOwner(t *testing.T) {
	hub, srv := newHubServer(t)
	alice := dial(t, srv, "alice")
	bob := dial(t, srv, "bob")

	priv, err := CollectionEvent(TypeUpdated, &model.Collection{ID: 7, Username: "alice", IsPrivate: true})
	require.NoError(t, err)
	pub, err := CollectionEvent(TypeUpdated, &model.Collection{ID: 8, Username: "alice"})
	require.NoError(t, err)

	require.NoError(t, hub.Deliver(context.Background(), priv))
	require.NoError(t, hub.Deliver(context.Background(), pub))

	assert.Equal(t, "7", entityID(t, read(t, alice), "collection"))
	assert.Equal(t, "8", entityID(t, read(t, alice), "collection"))
	assert.Equal(t, "8", entityID(t, read(t, bob), "collection"))
}

func TestHubRoomScoping(t *testing.T) {
	hub, srv := newHubServer(t)
	bob := dial(t, srv, "bob")

	require.NoError(t, bob.WriteJSON(ClientMessage{Action: ActionJoinCommunity, ID: "5"}))
	assert.Equal(t, "ack", read(t, bob).Event)

	other, _ := CommunityEvent(TypeUpdated, &model.Community{ID: 6})
	mine, _ := CommunityEvent(TypeUpdated, &model.Community{ID: 5})
	coll, _ := CollectionEvent(TypeCreated, &model.Collection{ID: 9, Username: "carol"})
	require.NoError(t, hub.Deliver(context.Background(), other))
	require.NoError(t, hub.Deliver(context.Background(), mine))
	require.NoError(t, hub.Deliver(context.Background(), coll))

	assert.Equal(t, "5", entityID(t, read(t, bob), "community"))
	// 没订阅收藏夹频道，收全部
	assert.Equal(t, "9", entityID(t, read(t, bob), "collection"))

	require.NoError(t, bob.WriteJSON(ClientMessage{Action: ActionLeaveCommunity, ID: "5"}))
	assert.Equal(t, "ack", read(t, bob).Event)
	require.NoError(t, hub.Deliver(context.Background(), other))
	assert.Equal(t, "6", entityID(t, read(t, bob), "community"))

	require.NoError(t, bob.WriteJSON(ClientMessage{Action: "dance", ID: "5"}))
	assert.Equal(t, "error", read(t, bob).Event)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, srv := newHubServer(t)
	conn := dial(t, srv, "alice")
	require.Equal(t, 1, hub.Count())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	c := &Client{ID: "slow", Username: "alice", hub: hub, send: make(chan []byte, 1), rooms: map[Channel]map[uint64]struct{}{}}
	hub.register(c)

	ev, _ := CommunityEvent(TypeCreated, &model.Community{ID: 1})
	require.NoError(t, hub.Deliver(context.Background(), ev))
	assert.Equal(t, 1, hub.Count())

	require.NoError(t, hub.Deliver(context.Background(), ev))
	assert.Equal(t, 0, hub.Count())

	// 已关闭的客户端再投递不会 panic
	require.NoError(t, hub.Deliver(context.Background(), ev))
	c.enqueue([]byte("x"))
}
