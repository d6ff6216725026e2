package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"QA_Community/internal/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer     = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
)

const (
	ActionJoinCommunity   = "joinCommunity"
	ActionLeaveCommunity  = "leaveCommunity"
	ActionJoinCollection  = "joinCollection"
	ActionLeaveCollection = "leaveCollection"
)

// Hub 管理本实例上的所有 websocket 连接
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*Client
}

type Client struct {
	ID       string
	Username string

	hub  *Hub
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
	rooms  map[Channel]map[uint64]struct{}
}

// ClientMessage 客户端发来的订阅指令
type ClientMessage struct {
	Action string `json:"action"`
	ID     string `json:"id"`
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[string]*Client),
	}
}

func (h *Hub) Name() string { return "hub" }

// Count 当前连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS 升级连接，阻塞到连接断开
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, username string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Client{
		ID:       uuid.NewString(),
		Username: username,
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		rooms:    make(map[Channel]map[uint64]struct{}),
	}
	h.register(c)
	c.reply("connected", map[string]string{"id": c.ID, "username": username})

	go c.writePump()
	c.readPump()
	return nil
}

// Deliver 非阻塞投递；发送队列满的连接直接断开
func (h *Hub) Deliver(_ context.Context, ev Event) error {
	msg, err := ev.wireBytes()
	if err != nil {
		return err
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if ev.Visible(c.Username) && c.wants(ev) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(msg) {
			pkg.DroppedConnections.Inc()
			pkg.Logger.WithField("client_id", c.ID).Warn("websocket client too slow, dropping")
			h.unregister(c)
		}
	}
	return nil
}

// Close 断开所有连接
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.unregister(c)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	pkg.LiveConnections.Inc()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.ID]
	delete(h.clients, c.ID)
	h.mu.Unlock()

	if ok {
		pkg.LiveConnections.Dec()
	}
	c.close()
}

func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// wants 某个频道没有订阅任何实体时接收该频道的全部事件
func (c *Client) wants(ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	room := c.rooms[ev.Channel]
	if len(room) == 0 {
		return true
	}
	_, ok := room[ev.EntityID]
	return ok
}

func (c *Client) reply(event string, data any) {
	b, err := json.Marshal(map[string]any{"event": event, "data": data})
	if err != nil {
		return
	}
	c.enqueue(b)
}

func (c *Client) handle(m ClientMessage) {
	id, ok := pkg.ParseID(m.ID)
	if !ok {
		c.reply("error", map[string]string{"message": "invalid id"})
		return
	}

	var ch Channel
	join := false
	switch m.Action {
	case ActionJoinCommunity:
		ch, join = ChannelCommunity, true
	case ActionLeaveCommunity:
		ch = ChannelCommunity
	case ActionJoinCollection:
		ch, join = ChannelCollection, true
	case ActionLeaveCollection:
		ch = ChannelCollection
	default:
		c.reply("error", map[string]string{"message": "unknown action"})
		return
	}

	c.mu.Lock()
	room := c.rooms[ch]
	if room == nil {
		room = make(map[uint64]struct{})
		c.rooms[ch] = room
	}
	if join {
		room[id] = struct{}{}
	} else {
		delete(room, id)
	}
	c.mu.Unlock()

	c.reply("ack", m)
}

func (c *Client) readPump() {
	defer c.hub.unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var m ClientMessage
		if err := c.conn.ReadJSON(&m); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				pkg.Logger.WithError(err).WithField("client_id", c.ID).Debug("websocket read failed")
			}
			return
		}
		c.handle(m)
	}
}

// writePump 每个连接唯一的写协程
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
