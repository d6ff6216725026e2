package notify

import (
	"context"
	"sync"
	"time"

	"QA_Community/internal/pkg"

	"github.com/sirupsen/logrus"
)

const deliverTimeout = 3 * time.Second

// Sink 事件的一个去向
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev Event) error
}

// Publisher handler 只依赖这个接口
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Bus 把事件依次交给所有 sink。投递失败只记日志，不影响调用方
type Bus struct {
	mu    sync.RWMutex
	sinks []Sink
}

func NewBus(sinks ...Sink) *Bus {
	return &Bus{sinks: sinks}
}

func (b *Bus) Add(s Sink) {
	b.mu.Lock()
	b.sinks = append(b.sinks, s)
	b.mu.Unlock()
}

func (b *Bus) Publish(ctx context.Context, ev Event) {
	// 请求结束不应打断投递
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deliverTimeout)
	defer cancel()

	b.mu.RLock()
	sinks := b.sinks
	b.mu.RUnlock()

	pkg.EventsPublished.WithLabelValues(string(ev.Channel), string(ev.Type)).Inc()
	for _, s := range sinks {
		if err := s.Deliver(ctx, ev); err != nil {
			pkg.SinkErrors.WithLabelValues(s.Name()).Inc()
			pkg.Log(ctx).WithError(err).WithFields(logrus.Fields{
				"sink":      s.Name(),
				"channel":   ev.Channel,
				"entity_id": ev.EntityID,
			}).Warn("notify deliver failed")
		}
	}
}

// Nop 不推送任何事件，用于未启用通知的场景
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
