// Package client is a typed Go client for the Q&A community HTTP API and its
// live update channel.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"QA_Community/internal/model"
	"QA_Community/internal/pkg"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Config struct {
	URL string
	// Token 可选，AUTH_REQUIRED 部署下需要
	Token      string
	HTTPClient *http.Client
}

// APIError 服务端返回的非 2xx 响应
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		token:      cfg.Token,
		httpClient: httpClient,
	}, nil
}

// SetToken 登录后设置 access token
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(respBody))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ---- community ----

type CreateCommunityRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Admin        string   `json:"admin"`
	Visibility   string   `json:"visibility,omitempty"`
	Participants []string `json:"participants,omitempty"`
}

func (c *Client) CreateCommunity(ctx context.Context, req CreateCommunityRequest) (*model.Community, error) {
	var out model.Community
	if err := c.do(ctx, http.MethodPost, "/api/community", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCommunity(ctx context.Context, id uint64) (*model.Community, error) {
	var out model.Community
	if err := c.do(ctx, http.MethodGet, "/api/community/"+pkg.FormatID(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCommunities(ctx context.Context) ([]model.Community, error) {
	var out []model.Community
	if err := c.do(ctx, http.MethodGet, "/api/community", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToggleMembership 加入或退出
func (c *Client) ToggleMembership(ctx context.Context, communityID uint64, username string) (*model.Community, error) {
	body := map[string]string{"communityId": pkg.FormatID(communityID), "username": username}
	var out model.Community
	if err := c.do(ctx, http.MethodPost, "/api/community/membership", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCommunity(ctx context.Context, id uint64, username string) (*model.Community, error) {
	var out struct {
		Community model.Community `json:"community"`
		Message   string          `json:"message"`
	}
	body := map[string]string{"username": username}
	if err := c.do(ctx, http.MethodDelete, "/api/community/"+pkg.FormatID(id), nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Community, nil
}

type QuestionPage struct {
	List       []model.Question `json:"list"`
	NextLastID string           `json:"next_last_id"`
}

func (c *Client) CommunityQuestions(ctx context.Context, id uint64, username string, lastID uint64, size int) (*QuestionPage, error) {
	q := url.Values{}
	if username != "" {
		q.Set("username", username)
	}
	if lastID != 0 {
		q.Set("last_id", pkg.FormatID(lastID))
	}
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	var out QuestionPage
	if err := c.do(ctx, http.MethodGet, "/api/community/"+pkg.FormatID(id)+"/questions", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- collection ----

type CreateCollectionRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Username    string   `json:"username"`
	Questions   []string `json:"questions"`
	IsPrivate   bool     `json:"isPrivate"`
}

func (c *Client) CreateCollection(ctx context.Context, req CreateCollectionRequest) (*model.Collection, error) {
	if req.Questions == nil {
		req.Questions = []string{}
	}
	var out model.Collection
	if err := c.do(ctx, http.MethodPost, "/api/collection", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCollection(ctx context.Context, id uint64, username string) (*model.Collection, error) {
	var out model.Collection
	q := url.Values{"username": {username}}
	if err := c.do(ctx, http.MethodDelete, "/api/collection/delete/"+pkg.FormatID(id), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ToggleQuestion(ctx context.Context, collectionID, questionID uint64, username string) (*model.Collection, error) {
	body := map[string]string{
		"collectionId": pkg.FormatID(collectionID),
		"questionId":   pkg.FormatID(questionID),
		"username":     username,
	}
	var out model.Collection
	if err := c.do(ctx, http.MethodPatch, "/api/collection/toggle-question", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserCollections owner 的收藏夹；current 不是 owner 时看不到私有的
func (c *Client) UserCollections(ctx context.Context, owner, current string) ([]model.Collection, error) {
	var out []model.Collection
	q := url.Values{"currentUsername": {current}}
	if err := c.do(ctx, http.MethodGet, "/api/collection/user/"+url.PathEscape(owner), q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCollection(ctx context.Context, id uint64, username string) (*model.Collection, error) {
	var out model.Collection
	q := url.Values{"username": {username}}
	if err := c.do(ctx, http.MethodGet, "/api/collection/"+pkg.FormatID(id), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- question ----

type AskQuestionRequest struct {
	Title       string `json:"title"`
	Text        string `json:"text"`
	AskedBy     string `json:"askedBy"`
	CommunityID string `json:"communityId,omitempty"`
}

func (c *Client) AskQuestion(ctx context.Context, req AskQuestionRequest) (*model.Question, error) {
	var out model.Question
	if err := c.do(ctx, http.MethodPost, "/api/question", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetQuestion(ctx context.Context, id uint64) (*model.Question, error) {
	var out model.Question
	if err := c.do(ctx, http.MethodGet, "/api/question/"+pkg.FormatID(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type UpvoteResult struct {
	UpVotes []string `json:"upVotes"`
	Count   int64    `json:"count"`
}

func (c *Client) Upvote(ctx context.Context, id uint64, username string) (*UpvoteResult, error) {
	var out UpvoteResult
	body := map[string]string{"username": username}
	if err := c.do(ctx, http.MethodPost, "/api/question/"+pkg.FormatID(id)+"/upvote", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- user ----

// Login 成功后自动设置 token
func (c *Client) Login(ctx context.Context, username, password string) (*pkg.Pair, error) {
	var out pkg.Pair
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/user/login", nil, body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

func (c *Client) Register(ctx context.Context, username, password, email string) error {
	body := map[string]string{"username": username, "password": password, "email": email}
	return c.do(ctx, http.MethodPost, "/api/user/register", nil, body, nil)
}
