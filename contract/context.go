package contract

import (
	"github.com/poolfund/event"
	"github.com/poolfund/meta"
)

// LedgerClient 合约访问外部代币账本的接口
type LedgerClient interface {
	Balance(id meta.Identifier) (int64, error)
	TransferFrom(sig meta.Signature, nonce uint64, from, to meta.Identifier, amount int64) error
	Transfer(sig meta.Signature, nonce uint64, to meta.Identifier, amount int64) error
}

// LedgerFactory 根据初始化时记录的代币标识构造账本客户端
type LedgerFactory func(token meta.TokenID) LedgerClient

// Env 合约调用上下文，由宿主在每次调用前构造
type Env struct {
	Invoker meta.Identifier // 调用者地址（合约账户、外部账户）
	Self    meta.Identifier // 当前合约地址
	Storage Storage
	Ledger  LedgerFactory
	Events  *event.Recorder
}

func (e *Env) emit(topic string, data map[string]interface{}) {
	e.Events.Emit(e.Self, topic, data)
}
