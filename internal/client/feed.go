package client

import (
	"context"
	"sync"

	"QA_Community/internal/model"
)

// Feed 本地缓存的实体列表，按实时事件合并：created 追加，updated 替换，deleted 移除
type Feed[T any] struct {
	mu      sync.RWMutex
	items   []T
	idOf    func(T) uint64
	extract func(Event) (T, bool)
	only    uint64
}

// NewCommunityFeed only 非 0 时只关心这一个社区
func NewCommunityFeed(initial []model.Community, only uint64) *Feed[model.Community] {
	return newFeed(initial, only,
		func(c model.Community) uint64 { return c.ID },
		func(ev Event) (model.Community, bool) {
			if ev.Channel != "communityUpdate" || ev.Community == nil {
				return model.Community{}, false
			}
			return *ev.Community, true
		})
}

func NewCollectionFeed(initial []model.Collection, only uint64) *Feed[model.Collection] {
	return newFeed(initial, only,
		func(c model.Collection) uint64 { return c.ID },
		func(ev Event) (model.Collection, bool) {
			if ev.Channel != "collectionUpdate" || ev.Collection == nil {
				return model.Collection{}, false
			}
			return *ev.Collection, true
		})
}

func newFeed[T any](initial []T, only uint64, idOf func(T) uint64, extract func(Event) (T, bool)) *Feed[T] {
	items := make([]T, 0, len(initial))
	for _, it := range initial {
		if only == 0 || idOf(it) == only {
			items = append(items, it)
		}
	}
	return &Feed[T]{items: items, idOf: idOf, extract: extract, only: only}
}

// Apply 返回 true 表示本地状态发生了变化
func (f *Feed[T]) Apply(ev Event) bool {
	item, ok := f.extract(ev)
	if !ok {
		return false
	}
	id := f.idOf(item)
	if f.only != 0 && id != f.only {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	idx := -1
	for i := range f.items {
		if f.idOf(f.items[i]) == id {
			idx = i
			break
		}
	}

	switch ev.Type {
	case "created":
		if idx >= 0 {
			f.items[idx] = item
		} else {
			f.items = append(f.items, item)
		}
	case "updated":
		if idx < 0 {
			return false
		}
		f.items[idx] = item
	case "deleted":
		if idx < 0 {
			return false
		}
		f.items = append(f.items[:idx], f.items[idx+1:]...)
	default:
		return false
	}
	return true
}

// Items 返回副本
func (f *Feed[T]) Items() []T {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]T, len(f.items))
	copy(out, f.items)
	return out
}

// Follow 持续消费事件直到 ctx 结束或通道关闭；onChange 可为 nil
func (f *Feed[T]) Follow(ctx context.Context, events <-chan Event, onChange func([]T)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if f.Apply(ev) && onChange != nil {
				onChange(f.Items())
			}
		}
	}
}
