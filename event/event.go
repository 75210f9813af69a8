package event

import (
	"context"
	"encoding/json"

	"github.com/cloudflare/cfssl/log"

	"github.com/poolfund/meta"
)

// Sink 接收已提交调用产生的事件
type Sink interface {
	Publish(ctx context.Context, events []meta.ContractEvent) error
}

// Recorder 缓存一次调用内产生的事件，调用成功提交后才交给 Sink
type Recorder struct {
	txID   string
	events []meta.ContractEvent
}

func NewRecorder(txID string) *Recorder {
	return &Recorder{txID: txID}
}

func (r *Recorder) Emit(contract meta.Identifier, topic string, data map[string]interface{}) {
	if r == nil {
		return
	}
	r.events = append(r.events, meta.ContractEvent{
		TxID:     r.txID,
		Contract: contract,
		Topic:    topic,
		Data:     data,
	})
}

// Events 返回事件的副本
func (r *Recorder) Events() []meta.ContractEvent {
	if r == nil {
		return nil
	}
	out := make([]meta.ContractEvent, len(r.events))
	copy(out, r.events)
	return out
}

// LogSink 将事件写入日志
type LogSink struct{}

func (LogSink) Publish(_ context.Context, events []meta.ContractEvent) error {
	for _, e := range events {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return err
		}
		log.Infof("[event] tx=%s contract=%s topic=%s data=%s", e.TxID, e.Contract, e.Topic, data)
	}
	return nil
}

// Broadcast 依次发布到所有 Sink，单个 Sink 失败只记录日志
func Broadcast(ctx context.Context, sinks []Sink, events []meta.ContractEvent) {
	if len(events) == 0 {
		return
	}
	for _, s := range sinks {
		if err := s.Publish(ctx, events); err != nil {
			log.Errorf("[Broadcast] publish %d events failed: %s", len(events), err)
		}
	}
}
