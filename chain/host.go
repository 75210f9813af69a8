package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cloudflare/cfssl/log"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"

	"github.com/poolfund/account"
	"github.com/poolfund/common"
	"github.com/poolfund/contract"
	"github.com/poolfund/event"
	"github.com/poolfund/levelDB"
	"github.com/poolfund/meta"
	"github.com/poolfund/state"
	"github.com/poolfund/util"
)

/* Host 合约的执行环境
 * 所有调用串行执行，每次调用使用一个 levelDB 事务：
 * 合约状态、代币余额、回执在同一个事务里提交，调用返回错误时全部丢弃，
 * 事件也只在提交成功之后才发布
 */
type Host struct {
	mu    sync.Mutex
	db    *levelDB.DB
	sinks []event.Sink
	now   func() time.Time
}

func NewHost(db *levelDB.DB, sinks ...event.Sink) *Host {
	return &Host{db: db, sinks: sinks, now: time.Now}
}

// Call 描述一次调用
type Call struct {
	Invoker  meta.Identifier
	Contract meta.Identifier
	Method   string
}

// Tx 一次调用内可以访问的状态
type Tx struct {
	ID      string
	Invoker meta.Identifier
	kv      state.KV
	events  *event.Recorder
}

// Distribution 以当前调用者身份访问某个分配合约
func (tx *Tx) Distribution(contractID meta.Identifier) *contract.Distribution {
	env := &contract.Env{
		Invoker: tx.Invoker,
		Self:    contractID,
		Storage: contract.NewStorage(tx.kv, contractID),
		// 合约调用账本时，调用者是合约本身
		Ledger: func(token meta.TokenID) contract.LedgerClient {
			return account.NewClient(tx.Token(token), contractID)
		},
		Events: tx.events,
	}
	return contract.NewDistribution(env)
}

// KV 本次调用的状态存储，供自定义合约环境使用
func (tx *Tx) KV() state.KV {
	return tx.kv
}

// Token 直接访问某种代币的账本
func (tx *Tx) Token(token meta.TokenID) *account.Ledger {
	return account.NewLedger(tx.kv, token).WithEvents(tx.events)
}

// Invoke 在一个事务中执行 fn，fn 返回错误时所有写入被丢弃
func (h *Host) Invoke(ctx context.Context, call Call, fn func(tx *Tx) error) (*meta.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	txn, err := h.db.Begin()
	if err != nil {
		return nil, err
	}
	defer txn.Discard()

	tx := &Tx{
		ID:      uuid.New().String(),
		Invoker: call.Invoker,
		kv:      txn,
	}
	tx.events = event.NewRecorder(tx.ID)

	if err := fn(tx); err != nil {
		log.Infof("[Invoke] %s.%s by %s rolled back: %s", call.Contract, call.Method, call.Invoker, err)
		return nil, err
	}

	receipt := meta.Receipt{
		TxID:      tx.ID,
		Invoker:   call.Invoker,
		Contract:  call.Contract,
		Method:    call.Method,
		Timestamp: h.now().UnixNano(),
		Events:    tx.events.Events(),
	}
	if err := appendReceipt(txn, &receipt); err != nil {
		return nil, err
	}
	if err := txn.Commit(); err != nil {
		log.Errorf("[Invoke] commit %s failed: %s", tx.ID, err)
		return nil, err
	}

	log.Infof("[Invoke] %s.%s by %s committed, tx=%s", call.Contract, call.Method, call.Invoker, tx.ID)
	if log.Level <= log.LevelDebug {
		log.Debugf("[Invoke] receipt: %s", spew.Sdump(receipt))
	}
	event.Broadcast(ctx, h.sinks, receipt.Events)
	return &receipt, nil
}

// View 只读执行，写入总是被丢弃
func (h *Host) View(ctx context.Context, invoker meta.Identifier, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	txn, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer txn.Discard()
	return fn(&Tx{Invoker: invoker, kv: txn})
}

// VerifyReceipts 重新计算每个回执的 hash 并检查链接关系
func VerifyReceipts(receipts []meta.Receipt) error {
	var prev []byte
	for i, r := range receipts {
		if !bytes.Equal(r.PrevHash, prev) {
			return fmt.Errorf("receipt %d (%s): prev hash mismatch", i, r.TxID)
		}
		want := r
		want.Hash = nil
		h, err := util.CalculateJSONHash(want)
		if err != nil {
			return err
		}
		if !bytes.Equal(h, r.Hash) {
			return fmt.Errorf("receipt %d (%s): hash mismatch", i, r.TxID)
		}
		prev = r.Hash
	}
	return nil
}

// Receipts 按提交顺序返回全部回执
func (h *Host) Receipts(ctx context.Context) ([]meta.Receipt, error) {
	var receipts []meta.Receipt
	err := h.View(ctx, meta.Identifier{}, func(tx *Tx) error {
		var err error
		receipts, err = readReceipts(tx.kv)
		return err
	})
	return receipts, err
}

// ContractAddress 由合约名称生成合约地址
func ContractAddress(name string) meta.Identifier {
	h, _ := util.CalculateHash([]byte(name))
	return meta.Contract(hex.EncodeToString(h[:20]))
}

func readReceipts(kv state.KV) ([]meta.Receipt, error) {
	receipts := []meta.Receipt{}
	data, err := kv.Get([]byte(common.ReceiptsKey))
	if err == state.ErrNotFound {
		return receipts, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &receipts); err != nil {
		util.DealJsonErr("readReceipts", err)
		return nil, err
	}
	return receipts, nil
}

// appendReceipt 计算回执 hash 并接到上一个回执之后
func appendReceipt(kv state.KV, r *meta.Receipt) error {
	receipts, err := readReceipts(kv)
	if err != nil {
		return err
	}
	if n := len(receipts); n > 0 {
		r.PrevHash = receipts[n-1].Hash
	}
	if r.Hash, err = util.CalculateJSONHash(r); err != nil {
		return err
	}
	receipts = append(receipts, *r)
	data, err := json.Marshal(receipts)
	if err != nil {
		util.DealJsonErr("appendReceipt", err)
		return err
	}
	return kv.Put([]byte(common.ReceiptsKey), data)
}
