package account

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"

	"github.com/cloudflare/cfssl/log"

	"github.com/poolfund/common"
	"github.com/poolfund/event"
	"github.com/poolfund/meta"
	"github.com/poolfund/state"
	"github.com/poolfund/util"
)

/* 这里封装了对同质化代币账户的全部操作
 * 每种代币一个 Ledger，状态存放在 token/<代币id>/ 前缀下，
 * 和合约状态共用同一个 state.KV，由宿主保证一次调用内的原子性
 */

var (
	ErrNotInitialized        = errors.New("token not initialized")
	ErrAlreadyInitialized    = errors.New("token already initialized")
	ErrNotAuthorized         = errors.New("not authorized by token admin")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrNegativeAmount        = errors.New("negative amount")
	ErrOverflow              = errors.New("balance overflow")
	ErrBadNonce              = errors.New("invoker signature requires nonce 0")
	ErrUnsupportedSignature  = errors.New("unsupported signature")
)

const (
	metadataKey     = "metadata"
	balancePrefix   = "balance/"
	allowancePrefix = "allowance/"
)

type Ledger struct {
	kv     state.KV
	token  meta.TokenID
	events *event.Recorder
}

func NewLedger(kv state.KV, token meta.TokenID) *Ledger {
	return &Ledger{
		kv:    state.Prefixed(kv, common.TokenStatePrefix+token.String()+"/"),
		token: token,
	}
}

// WithEvents 记录转账、铸币等事件
func (l *Ledger) WithEvents(r *event.Recorder) *Ledger {
	l.events = r
	return l
}

func (l *Ledger) Token() meta.TokenID {
	return l.token
}

func (l *Ledger) self() meta.Identifier {
	return meta.Contract(l.token.String())
}

// 创建代币
func (l *Ledger) Initialize(admin meta.Identifier, decimals uint32, name, symbol string) error {
	ok, err := l.kv.Has([]byte(metadataKey))
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyInitialized
	}
	md := meta.TokenMetadata{Admin: admin, Decimals: decimals, Name: name, Symbol: symbol}
	if err := l.putJSON(metadataKey, md); err != nil {
		return err
	}
	l.events.Emit(l.self(), common.TopicInitialize, map[string]interface{}{
		"admin":  admin.String(),
		"name":   name,
		"symbol": symbol,
	})
	return nil
}

func (l *Ledger) Metadata() (meta.TokenMetadata, error) {
	var md meta.TokenMetadata
	err := l.getJSON(metadataKey, &md)
	if err == state.ErrNotFound {
		return md, ErrNotInitialized
	}
	return md, err
}

// 管理员铸币
func (l *Ledger) Mint(invoker, to meta.Identifier, amount int64) error {
	md, err := l.Metadata()
	if err != nil {
		return err
	}
	if invoker != md.Admin {
		return ErrNotAuthorized
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	if err := l.AddBalance(to, amount); err != nil {
		return err
	}
	l.events.Emit(l.self(), common.TopicMint, map[string]interface{}{
		"to":     to.String(),
		"amount": amount,
	})
	return nil
}

// Approve 增加 spender 可以从 owner 账户转出的额度
func (l *Ledger) Approve(owner, spender meta.Identifier, amount int64) error {
	if _, err := l.Metadata(); err != nil {
		return err
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	cur, err := l.Allowance(owner, spender)
	if err != nil {
		return err
	}
	if cur > math.MaxInt64-amount {
		return ErrOverflow
	}
	if err := l.putInt(allowanceKey(owner, spender), cur+amount); err != nil {
		return err
	}
	l.events.Emit(l.self(), common.TopicApprove, map[string]interface{}{
		"owner":   owner.String(),
		"spender": spender.String(),
		"amount":  amount,
	})
	return nil
}

func (l *Ledger) Allowance(owner, spender meta.Identifier) (int64, error) {
	return l.getInt(allowanceKey(owner, spender))
}

// 获取账户余额，未出现过的账户余额为 0
func (l *Ledger) Balance(id meta.Identifier) (int64, error) {
	return l.getInt(balanceKey(id))
}

// 判断转出方是否有足够余额
func (l *Ledger) CanTransfer(from meta.Identifier, amount int64) (bool, error) {
	bal, err := l.Balance(from)
	if err != nil {
		return false, err
	}
	if bal < amount {
		log.Infof("[CanTransfer]: Insufficient balance. account=%s balance=%d amount=%d", from, bal, amount)
		return false, nil
	}
	return true, nil
}

func (l *Ledger) SubBalance(from meta.Identifier, amount int64) error {
	bal, err := l.Balance(from)
	if err != nil {
		return err
	}
	if bal < amount {
		return ErrInsufficientBalance
	}
	return l.putInt(balanceKey(from), bal-amount)
}

func (l *Ledger) AddBalance(to meta.Identifier, amount int64) error {
	bal, err := l.Balance(to)
	if err != nil {
		return err
	}
	if bal > math.MaxInt64-amount {
		return ErrOverflow
	}
	return l.putInt(balanceKey(to), bal+amount)
}

// Transfer 由 from 向 to 转账
func (l *Ledger) Transfer(from, to meta.Identifier, amount int64) error {
	if _, err := l.Metadata(); err != nil {
		return err
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	ok, err := l.CanTransfer(from, amount)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientBalance
	}
	if err := l.SubBalance(from, amount); err != nil {
		return err
	}
	if err := l.AddBalance(to, amount); err != nil {
		return err
	}
	l.events.Emit(l.self(), common.TopicTransfer, map[string]interface{}{
		"from":   from.String(),
		"to":     to.String(),
		"amount": amount,
	})
	return nil
}

// TransferFrom 由 spender 使用额度，从 from 向 to 转账
func (l *Ledger) TransferFrom(spender, from, to meta.Identifier, amount int64) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	allowance, err := l.Allowance(from, spender)
	if err != nil {
		return err
	}
	if allowance < amount {
		return ErrInsufficientAllowance
	}
	if err := l.Transfer(from, to, amount); err != nil {
		return err
	}
	return l.putInt(allowanceKey(from, spender), allowance-amount)
}

func balanceKey(id meta.Identifier) string {
	return balancePrefix + id.String()
}

// 身份中可能含有 "/"，两端分别 hex 编码后再拼接
func allowanceKey(owner, spender meta.Identifier) string {
	return allowancePrefix + hex.EncodeToString([]byte(owner.String())) + "/" + hex.EncodeToString([]byte(spender.String()))
}

func (l *Ledger) getInt(key string) (int64, error) {
	var v int64
	err := l.getJSON(key, &v)
	if err == state.ErrNotFound {
		return 0, nil
	}
	return v, err
}

func (l *Ledger) putInt(key string, v int64) error {
	return l.putJSON(key, v)
}

func (l *Ledger) getJSON(key string, v interface{}) error {
	data, err := l.kv.Get([]byte(key))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		util.DealJsonErr("Ledger.getJSON", err)
		return err
	}
	return nil
}

func (l *Ledger) putJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		util.DealJsonErr("Ledger.putJSON", err)
		return err
	}
	return l.kv.Put([]byte(key), data)
}
