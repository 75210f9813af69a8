package redis

import (
	"context"
	"encoding/json"

	"github.com/cloudflare/cfssl/log"
	"github.com/go-redis/redis/v8"

	"github.com/poolfund/common"
	"github.com/poolfund/meta"
	"github.com/poolfund/util"
)

// Sink 把已提交的合约事件追加到 redis 列表，供外部服务消费
type Sink struct {
	rdb *redis.Client
	key string
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Key      string // 事件列表，默认 contractEvents
}

func NewSink(opts Options) *Sink {
	key := opts.Key
	if key == "" {
		key = common.ContractEventsKey
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &Sink{rdb: rdb, key: key}
}

// Ping 检查 redis 是否可用
func (s *Sink) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Publish 每个事件编码为一条 json，按产生顺序 push 到列表尾部
func (s *Sink) Publish(ctx context.Context, events []meta.ContractEvent) error {
	if len(events) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			util.DealJsonErr("Sink.Publish", err)
			return err
		}
		values = append(values, string(data))
	}
	if err := s.rdb.RPush(ctx, s.key, values...).Err(); err != nil {
		log.Errorf("event push to list error: %s", err)
		return err
	}
	return nil
}

// Events 读取列表中的全部事件
func (s *Sink) Events(ctx context.Context) ([]meta.ContractEvent, error) {
	vals, err := s.rdb.LRange(ctx, s.key, 0, -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	events := make([]meta.ContractEvent, 0, len(vals))
	for _, v := range vals {
		var e meta.ContractEvent
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			util.DealJsonErr("Sink.Events", err)
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func (s *Sink) Close() error {
	return s.rdb.Close()
}
