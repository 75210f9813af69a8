package state

import "errors"

var ErrNotFound = errors.New("state: key not found")

// KV 合约和代币账本共用的键值存储
// Get 在 key 不存在时返回 ErrNotFound
type KV interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Put(key, value []byte) error
}

// Prefixed 为所有 key 加上前缀，用来隔离不同合约、不同代币的状态
func Prefixed(kv KV, prefix string) KV {
	return &prefixed{kv: kv, prefix: []byte(prefix)}
}

type prefixed struct {
	kv     KV
	prefix []byte
}

func (p *prefixed) key(k []byte) []byte {
	out := make([]byte, 0, len(p.prefix)+len(k))
	out = append(out, p.prefix...)
	return append(out, k...)
}

func (p *prefixed) Get(key []byte) ([]byte, error) {
	return p.kv.Get(p.key(key))
}

func (p *prefixed) Has(key []byte) (bool, error) {
	return p.kv.Has(p.key(key))
}

func (p *prefixed) Put(key, value []byte) error {
	return p.kv.Put(p.key(key), value)
}
