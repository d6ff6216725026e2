package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"QA_Community/internal/model"
	"QA_Community/internal/pkg"

	"github.com/gorilla/websocket"
)

// Event 一条实时变更；Community 与 Collection 只有一个非空
type Event struct {
	Channel    string
	Type       string
	Community  *model.Community
	Collection *model.Collection
}

// EntityID 事件涉及的实体 id
func (e Event) EntityID() uint64 {
	switch {
	case e.Community != nil:
		return e.Community.ID
	case e.Collection != nil:
		return e.Collection.ID
	}
	return 0
}

// Live 实时通道订阅
type Live struct {
	conn   *websocket.Conn
	events chan Event

	writeMu sync.Mutex
	once    sync.Once
	done    chan struct{}
	errMu   sync.Mutex
	err     error
}

type liveFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type liveData struct {
	Type       string            `json:"type"`
	Community  *model.Community  `json:"community"`
	Collection *model.Collection `json:"collection"`
}

// Subscribe 连接实时通道；username 决定能否收到私有收藏夹的事件
func (c *Client) Subscribe(ctx context.Context, username string) (*Live, error) {
	wsURL := c.baseURL
	switch {
	case strings.HasPrefix(wsURL, "https"):
		wsURL = "wss" + wsURL[len("https"):]
	case strings.HasPrefix(wsURL, "http"):
		wsURL = "ws" + wsURL[len("http"):]
	}
	wsURL += "/api/ws?username=" + url.QueryEscape(username)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	// 等服务端确认注册完成
	var hello liveFrame
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	if err := conn.ReadJSON(&hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("websocket handshake: %w", err)
	}
	if hello.Event != "connected" {
		conn.Close()
		return nil, fmt.Errorf("websocket handshake: unexpected %q", hello.Event)
	}
	_ = conn.SetReadDeadline(time.Time{})

	l := &Live{
		conn:   conn,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	go l.readLoop()
	return l, nil
}

// Events 连接断开后关闭
func (l *Live) Events() <-chan Event {
	return l.events
}

// Err 读循环退出的原因
func (l *Live) Err() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.err
}

func (l *Live) JoinCommunity(id uint64) error   { return l.send("joinCommunity", id) }
func (l *Live) LeaveCommunity(id uint64) error  { return l.send("leaveCommunity", id) }
func (l *Live) JoinCollection(id uint64) error  { return l.send("joinCollection", id) }
func (l *Live) LeaveCollection(id uint64) error { return l.send("leaveCollection", id) }

func (l *Live) send(action string, id uint64) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.conn.WriteJSON(map[string]string{"action": action, "id": pkg.FormatID(id)})
}

func (l *Live) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		l.writeMu.Lock()
		_ = l.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		l.writeMu.Unlock()
		err = l.conn.Close()
	})
	return err
}

func (l *Live) readLoop() {
	defer close(l.events)
	for {
		var f liveFrame
		if err := l.conn.ReadJSON(&f); err != nil {
			select {
			case <-l.done:
			default:
				l.errMu.Lock()
				l.err = err
				l.errMu.Unlock()
			}
			return
		}
		if f.Event != "communityUpdate" && f.Event != "collectionUpdate" {
			continue
		}
		var d liveData
		if err := json.Unmarshal(f.Data, &d); err != nil {
			continue
		}
		ev := Event{Channel: f.Event, Type: d.Type, Community: d.Community, Collection: d.Collection}
		select {
		case l.events <- ev:
		case <-l.done:
			return
		}
	}
}
