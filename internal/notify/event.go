// Package notify fans community and collection change events out to live
// websocket clients, other instances (redis pub/sub) and kafka.
package notify

import (
	"encoding/json"

	"QA_Community/internal/model"
)

type Channel string

const (
	ChannelCommunity  Channel = "communityUpdate"
	ChannelCollection Channel = "collectionUpdate"
)

type Type string

const (
	TypeCreated Type = "created"
	TypeUpdated Type = "updated"
	TypeDeleted Type = "deleted"
)

// Event 一次变更通知。Data 是发给客户端的 {type, community|collection}
type Event struct {
	Channel  Channel         `json:"event"`
	Data     json.RawMessage `json:"data"`
	EntityID uint64          `json:"entityId,string"`
	// Audience 为空表示所有连接都能收到
	Audience []string `json:"audience,omitempty"`
	Type     Type     `json:"type"`
}

type communityData struct {
	Type      Type             `json:"type"`
	Community *model.Community `json:"community"`
}

type collectionData struct {
	Type       Type              `json:"type"`
	Collection *model.Collection `json:"collection"`
}

func CommunityEvent(t Type, c *model.Community) (Event, error) {
	data, err := json.Marshal(communityData{Type: t, Community: c})
	if err != nil {
		return Event{}, err
	}
	return Event{Channel: ChannelCommunity, Type: t, Data: data, EntityID: c.ID}, nil
}

// CollectionEvent 私有收藏夹的事件只推给拥有者
func CollectionEvent(t Type, c *model.Collection) (Event, error) {
	data, err := json.Marshal(collectionData{Type: t, Collection: c})
	if err != nil {
		return Event{}, err
	}
	ev := Event{Channel: ChannelCollection, Type: t, Data: data, EntityID: c.ID}
	if c.IsPrivate {
		ev.Audience = []string{c.Username}
	}
	return ev, nil
}

// Visible 判断该事件能否推给 username
func (e Event) Visible(username string) bool {
	if len(e.Audience) == 0 {
		return true
	}
	for _, u := range e.Audience {
		if u == username {
			return true
		}
	}
	return false
}

// wire 推给 websocket 客户端的格式
type wire struct {
	Event Channel         `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (e Event) wireBytes() ([]byte, error) {
	return json.Marshal(wire{Event: e.Channel, Data: e.Data})
}
