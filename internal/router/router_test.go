package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"QA_Community/internal/notify"
	"QA_Community/internal/service"
	"QA_Community/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev notify.Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, string(ev.Channel)+"/"+string(ev.Type))
	}
	return out
}

type testApp struct {
	engine *gin.Engine
	pub    *recordingPublisher
	users  *service.UserService
}

func newTestApp(t *testing.T, authRequired bool) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	rdb, _ := testutil.NewRedis(t)
	questions := service.NewQuestionService(db, rdb)
	users := service.NewUserService(db, rdb)
	pub := &recordingPublisher{}

	engine := InitRouter(Deps{
		Communities:  service.NewCommunityService(db),
		Collections:  service.NewCollectionService(db, questions),
		Questions:    questions,
		Users:        users,
		Reset:        service.NewResetService(db, rdb, users, nil),
		Publisher:    pub,
		AuthRequired: authRequired,
	})
	return &testApp{engine: engine, pub: pub, users: users}
}

func (a *testApp) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (a *testApp) list(t *testing.T, path string) []map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCommunityScenario(t *testing.T) {
	app := newTestApp(t, false)

	w, body := app.do(t, http.MethodPost, "/api/community", gin.H{
		"name": "Cats", "description": "all about cats", "admin": "alice",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []any{"alice"}, body["participants"])
	assert.Equal(t, "PUBLIC", body["visibility"])
	id := body["id"].(string)

	w, body = app.do(t, http.MethodPost, "/api/community/membership", gin.H{"communityId": id, "username": "bob"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"alice", "bob"}, body["participants"])

	w, body = app.do(t, http.MethodPost, "/api/community/membership", gin.H{"communityId": id, "username": "alice"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotEmpty(t, body["error"])

	w, _ = app.do(t, http.MethodPost, "/api/community/membership", gin.H{"communityId": id}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodDelete, "/api/community/"+id, gin.H{"username": "bob"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = app.do(t, http.MethodDelete, "/api/community/"+id, gin.H{"username": "alice"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Community deleted successfully", body["message"])
	assert.Equal(t, id, body["community"].(map[string]any)["id"])

	w, _ = app.do(t, http.MethodGet, "/api/community/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = app.do(t, http.MethodGet, "/api/community/not-a-number", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, []string{
		"communityUpdate/created",
		"communityUpdate/updated",
		"communityUpdate/deleted",
	}, app.pub.kinds())
}

func TestCommunityListAndQuestions(t *testing.T) {
	app := newTestApp(t, false)

	_, body := app.do(t, http.MethodPost, "/api/community", gin.H{
		"name": "Hidden", "description": "d", "admin": "alice", "visibility": "private",
	}, "")
	id := body["id"].(string)

	assert.Len(t, app.list(t, "/api/community"), 1)

	w, q := app.do(t, http.MethodPost, "/api/question", gin.H{"title": "t", "text": "x", "askedBy": "alice", "communityId": id}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, id, q["communityId"])

	w, _ = app.do(t, http.MethodPost, "/api/question", gin.H{"title": "t", "askedBy": "eve", "communityId": id}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = app.do(t, http.MethodGet, "/api/community/"+id+"/questions?username=eve", nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, page := app.do(t, http.MethodGet, "/api/community/"+id+"/questions?username=alice", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, page["list"], 1)
}

func TestCollectionEndpoints(t *testing.T) {
	app := newTestApp(t, false)

	_, q := app.do(t, http.MethodPost, "/api/question", gin.H{"title": "why?", "askedBy": "carol"}, "")
	qid := q["id"].(string)

	w, _ := app.do(t, http.MethodPost, "/api/collection", gin.H{"name": "", "username": "alice"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, app.list(t, "/api/collection/user/alice?currentUsername=alice"))

	w, priv := app.do(t, http.MethodPost, "/api/collection", gin.H{
		"name": "secret", "description": "d", "username": "alice", "isPrivate": true, "questions": []string{qid},
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, priv["questions"], 1)
	privID := priv["id"].(string)

	_, _ = app.do(t, http.MethodPost, "/api/collection", gin.H{"name": "open", "description": "d", "username": "alice"}, "")

	assert.Len(t, app.list(t, "/api/collection/user/alice?currentUsername=alice"), 2)
	others := app.list(t, "/api/collection/user/alice?currentUsername=bob")
	require.Len(t, others, 1)
	assert.Equal(t, "open", others[0]["name"])

	w, _ = app.do(t, http.MethodGet, "/api/collection/user/alice", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodGet, "/api/collection/"+privID+"?username=bob", nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := app.do(t, http.MethodPatch, "/api/collection/toggle-question", gin.H{"collectionId": privID, "questionId": qid, "username": "alice"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["questions"])

	w, _ = app.do(t, http.MethodPatch, "/api/collection/toggle-question", gin.H{"collectionId": privID, "questionId": qid, "username": "bob"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = app.do(t, http.MethodDelete, "/api/collection/delete/"+privID, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = app.do(t, http.MethodDelete, "/api/collection/delete/"+privID+"?username=bob", nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, body = app.do(t, http.MethodDelete, "/api/collection/delete/"+privID+"?username=alice", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, privID, body["id"])

	assert.Equal(t, []string{
		"collectionUpdate/created",
		"collectionUpdate/created",
		"collectionUpdate/updated",
		"collectionUpdate/deleted",
	}, app.pub.kinds())
}

func TestQuestionUpvote(t *testing.T) {
	app := newTestApp(t, false)

	_, q := app.do(t, http.MethodPost, "/api/question", gin.H{"title": "t", "askedBy": "alice"}, "")
	qid := q["id"].(string)

	w, body := app.do(t, http.MethodPost, "/api/question/"+qid+"/upvote", gin.H{"username": "bob"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"bob"}, body["upVotes"])
	assert.Equal(t, float64(1), body["count"])

	w, body = app.do(t, http.MethodGet, "/api/question/"+qid, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["views"])

	w, _ = app.do(t, http.MethodPost, "/api/question/"+qid+"/upvote", gin.H{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthRequiredBindsIdentity(t *testing.T) {
	app := newTestApp(t, true)

	w, _ := app.do(t, http.MethodPost, "/api/user/register", gin.H{"username": "alice", "password": "secret1", "email": "alice@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = app.do(t, http.MethodPost, "/api/user/login", gin.H{"username": "alice", "password": "bad-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, pair := app.do(t, http.MethodPost, "/api/user/login", gin.H{"username": "alice", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token := pair["access_token"].(string)

	community := gin.H{"name": "Cats", "description": "d", "admin": "alice"}
	w, _ = app.do(t, http.MethodPost, "/api/community", community, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/community", gin.H{"name": "Cats", "description": "d", "admin": "mallory"}, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/community", community, token)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/community", community, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = app.do(t, http.MethodPost, "/api/user/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = app.do(t, http.MethodPost, "/api/community", community, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	app := newTestApp(t, false)

	w, body := app.do(t, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "qa_community_http_requests_total")
}
