package notify

import (
	"context"
	"encoding/json"

	"QA_Community/internal/pkg"
)

// MessageWriter 由 pkg.KafkaProducer 实现
type MessageWriter interface {
	Send(ctx context.Context, key string, value []byte) error
}

// KafkaSink 按实体 id 做 key 写入 kafka，同一实体的事件落在同一分区
type KafkaSink struct {
	w MessageWriter
}

func NewKafkaSink(w MessageWriter) *KafkaSink {
	return &KafkaSink{w: w}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Deliver(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.w.Send(ctx, pkg.FormatID(ev.EntityID), b)
}
