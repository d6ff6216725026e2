package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"QA_Community/internal/notify"
	"QA_Community/internal/pkg"
	"QA_Community/internal/router"
	"QA_Community/internal/service"
	"QA_Community/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	questions := service.NewQuestionService(db, rdb)
	users := service.NewUserService(db, rdb)
	hub := notify.NewHub()

	engine := router.InitRouter(router.Deps{
		Communities: service.NewCommunityService(db),
		Collections: service.NewCollectionService(db, questions),
		Questions:   questions,
		Users:       users,
		Reset:       service.NewResetService(db, rdb, users, nil),
		Hub:         hub,
		Publisher:   notify.NewBus(hub),
	})
	srv := httptest.NewServer(engine)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	c, err := New(Config{URL: srv.URL})
	require.NoError(t, err)
	return c
}

func next(t *testing.T, l *Live) Event {
	t.Helper()
	select {
	case ev, ok := <-l.Events():
		require.True(t, ok, "live channel closed: %v", l.Err())
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestClientCommunityFlowWithLiveFeed(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	live, err := c.Subscribe(ctx, "bob")
	require.NoError(t, err)
	defer live.Close()

	feed := NewCommunityFeed(nil, 0)

	created, err := c.CreateCommunity(ctx, CreateCommunityRequest{Name: "Cats", Description: "d", Admin: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, created.Participants)

	ev := next(t, live)
	assert.Equal(t, "created", ev.Type)
	assert.Equal(t, created.ID, ev.EntityID())
	require.True(t, feed.Apply(ev))

	_, err = c.ToggleMembership(ctx, created.ID, "bob")
	require.NoError(t, err)
	require.True(t, feed.Apply(next(t, live)))
	require.Len(t, feed.Items(), 1)
	assert.Equal(t, []string{"alice", "bob"}, feed.Items()[0].Participants)

	_, err = c.ToggleMembership(ctx, created.ID, "alice")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	list, err := c.ListCommunities(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = c.DeleteCommunity(ctx, created.ID, "alice")
	require.NoError(t, err)
	require.True(t, feed.Apply(next(t, live)))
	assert.Empty(t, feed.Items())
}

func TestClientPrivateCollectionEventsStayWithOwner(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	bob, err := c.Subscribe(ctx, "bob")
	require.NoError(t, err)
	defer bob.Close()
	alice, err := c.Subscribe(ctx, "alice")
	require.NoError(t, err)
	defer alice.Close()

	q, err := c.AskQuestion(ctx, AskQuestionRequest{Title: "why?", AskedBy: "carol"})
	require.NoError(t, err)

	priv, err := c.CreateCollection(ctx, CreateCollectionRequest{
		Name: "secret", Description: "d", Username: "alice", IsPrivate: true,
		Questions: []string{pkg.FormatID(q.ID)},
	})
	require.NoError(t, err)
	require.Len(t, priv.Questions, 1)

	pub, err := c.CreateCollection(ctx, CreateCollectionRequest{Name: "open", Description: "d", Username: "alice"})
	require.NoError(t, err)

	assert.Equal(t, priv.ID, next(t, alice).EntityID())
	assert.Equal(t, pub.ID, next(t, alice).EntityID())
	assert.Equal(t, pub.ID, next(t, bob).EntityID())

	visible, err := c.UserCollections(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "open", visible[0].Name)

	_, err = c.GetCollection(ctx, priv.ID, "bob")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	toggled, err := c.ToggleQuestion(ctx, priv.ID, q.ID, "alice")
	require.NoError(t, err)
	assert.Empty(t, toggled.Questions)

	deleted, err := c.DeleteCollection(ctx, pub.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, pub.ID, deleted.ID)
}

func TestClientQuestions(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	q, err := c.AskQuestion(ctx, AskQuestionRequest{Title: "t", Text: "x", AskedBy: "alice"})
	require.NoError(t, err)

	res, err := c.Upvote(ctx, q.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Count)
	assert.Equal(t, []string{"bob"}, res.UpVotes)

	got, err := c.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)

	_, err = c.GetQuestion(ctx, 12345)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
