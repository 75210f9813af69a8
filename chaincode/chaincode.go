package chaincode

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cloudflare/cfssl/log"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	pb "github.com/hyperledger/fabric-protos-go/peer"

	"github.com/poolfund/account"
	"github.com/poolfund/chain"
	"github.com/poolfund/contract"
	"github.com/poolfund/event"
	"github.com/poolfund/meta"
	"github.com/poolfund/state"
)

/* 奖池合约的 fabric 链码版本
 * 合约状态和代币余额都保存在 world state 中，
 * 一次调用产生的事件合并成一个链码事件（事件名为函数名，内容为 json 数组）
 */

type Chaincode struct {
	pool     meta.Identifier
	identity IdentityFunc
}

// New 合约地址由名称生成，与节点模式下一致
func New(name string) *Chaincode {
	return &Chaincode{pool: chain.ContractAddress(name), identity: CreatorIdentity}
}

// WithIdentity 替换调用者身份的解析方式
func (cc *Chaincode) WithIdentity(f IdentityFunc) *Chaincode {
	cc.identity = f
	return cc
}

func (cc *Chaincode) Address() meta.Identifier {
	return cc.pool
}

type handler func(inv *invocation, args []string) (interface{}, error)

var handlers = map[string]handler{
	"initialize":       initialize,
	"deposit":          deposit,
	"attended":         attended,
	"distribute":       distribute,
	"refund":           refund,
	"state":            contractState,
	"token_initialize": tokenInitialize,
	"mint":             mint,
	"approve":          approve,
	"balance":          balance,
}

type invocation struct {
	invoker meta.Identifier
	pool    meta.Identifier
	kv      state.KV
	events  *event.Recorder
}

func (inv *invocation) distribution() *contract.Distribution {
	pool := inv.pool
	return contract.NewDistribution(&contract.Env{
		Invoker: inv.invoker,
		Self:    pool,
		Storage: contract.NewStorage(inv.kv, pool),
		Ledger: func(token meta.TokenID) contract.LedgerClient {
			return account.NewClient(inv.token(token), pool)
		},
		Events: inv.events,
	})
}

func (inv *invocation) token(token meta.TokenID) *account.Ledger {
	return account.NewLedger(inv.kv, token).WithEvents(inv.events)
}

// Init 实例化时可以直接传入 initialize 的参数：token [admin]
func (cc *Chaincode) Init(stub shim.ChaincodeStubInterface) pb.Response {
	_, args := stub.GetFunctionAndParameters()
	if len(args) == 0 {
		return shim.Success(nil)
	}
	return cc.run(stub, "initialize", args)
}

func (cc *Chaincode) Invoke(stub shim.ChaincodeStubInterface) pb.Response {
	fn, args := stub.GetFunctionAndParameters()
	return cc.run(stub, fn, args)
}

func (cc *Chaincode) run(stub shim.ChaincodeStubInterface, fn string, args []string) pb.Response {
	h, ok := handlers[fn]
	if !ok {
		return shim.Error("unknown function: " + fn)
	}
	invoker, err := cc.identity(stub)
	if err != nil {
		return shim.Error("identity: " + err.Error())
	}
	inv := &invocation{
		invoker: invoker,
		pool:    cc.pool,
		kv:      newStubKV(stub),
		events:  event.NewRecorder(stub.GetTxID()),
	}

	result, err := h(inv, args)
	if err != nil {
		log.Infof("[chaincode] %s by %s failed: %s", fn, invoker, err)
		return shim.Error(err.Error())
	}
	if events := inv.events.Events(); len(events) > 0 {
		data, err := json.Marshal(events)
		if err != nil {
			return shim.Error(err.Error())
		}
		if err := stub.SetEvent(fn, data); err != nil {
			return shim.Error(err.Error())
		}
	}
	if result == nil {
		return shim.Success(nil)
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return shim.Error(err.Error())
	}
	return shim.Success(payload)
}

func initialize(inv *invocation, args []string) (interface{}, error) {
	if err := argCount(args, 1, 2); err != nil {
		return nil, err
	}
	token, err := meta.ParseTokenID(args[0])
	if err != nil {
		return nil, err
	}
	admin := inv.invoker
	if len(args) == 2 {
		if admin, err = meta.ParseIdentifier(args[1]); err != nil {
			return nil, err
		}
	}
	return nil, inv.distribution().Initialize(admin, token)
}

func deposit(inv *invocation, args []string) (interface{}, error) {
	if err := argCount(args, 1, 2); err != nil {
		return nil, err
	}
	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return nil, err
	}
	participant := inv.invoker
	if len(args) == 2 {
		if participant, err = meta.ParseIdentifier(args[1]); err != nil {
			return nil, err
		}
	}
	return nil, inv.distribution().Deposit(participant, amount)
}

func attended(inv *invocation, args []string) (interface{}, error) {
	if err := argCount(args, 1, 1); err != nil {
		return nil, err
	}
	participant, err := meta.ParseIdentifier(args[0])
	if err != nil {
		return nil, err
	}
	return nil, inv.distribution().Attended(participant)
}

func distribute(inv *invocation, args []string) (interface{}, error) {
	if err := argCount(args, 0, 0); err != nil {
		return nil, err
	}
	return inv.distribution().Distribute()
}

func refund(inv *invocation, args []string) (interface{}, error) {
	if err := argCount(args, 0, 0); err != nil {
		return nil, err
	}
	total, err := inv.distribution().Refund()
	if err != nil {
		return nil, err
	}
	return map[string]int64{"total": total}, nil
}

func contractState(inv *invocation, args []string) (interface{}, error) {
	if err := argCount(args, 0, 0); err != nil {
		return nil, err
	}
	return inv.distribution().State()
}

// token_initialize token decimals name symbol，调用者成为代币管理员
func tokenInitialize(inv *invocation, args []string) (interface{}, error) {
	if err := argCount(args, 4, 4); err != nil {
		return nil, err
	}
	token, err := meta.ParseTokenID(args[0])
	if err != nil {
		return nil, err
	}
	decimals, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return nil, err
	}
	return nil, inv.token(token).Initialize(inv.invoker, uint32(decimals), args[2], args[3])
}

// mint token to amount
func mint(inv *invocation, args []string) (interface{}, error) {
	if err := argCount(args, 3, 3); err != nil {
		return nil, err
	}
	token, err := meta.ParseTokenID(args[0])
	if err != nil {
		return nil, err
	}
	to, err := meta.ParseIdentifier(args[1])
	if err != nil {
		return nil, err
	}
	amount, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return nil, err
	}
	return nil, inv.token(token).Mint(inv.invoker, to, amount)
}

// approve token amount [spender]，spender 默认为奖池合约
func approve(inv *invocation, args []string) (interface{}, error) {
	if err := argCount(args, 2, 3); err != nil {
		return nil, err
	}
	token, err := meta.ParseTokenID(args[0])
	if err != nil {
		return nil, err
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return nil, err
	}
	spender := inv.pool
	if len(args) == 3 {
		if spender, err = meta.ParseIdentifier(args[2]); err != nil {
			return nil, err
		}
	}
	return nil, inv.token(token).Approve(inv.invoker, spender, amount)
}

// balance token id
func balance(inv *invocation, args []string) (interface{}, error) {
	if err := argCount(args, 2, 2); err != nil {
		return nil, err
	}
	token, err := meta.ParseTokenID(args[0])
	if err != nil {
		return nil, err
	}
	id, err := meta.ParseIdentifier(args[1])
	if err != nil {
		return nil, err
	}
	bal, err := inv.token(token).Balance(id)
	if err != nil {
		return nil, err
	}
	return map[string]int64{"balance": bal}, nil
}

func argCount(args []string, min, max int) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return fmt.Errorf("expected %d arguments, got %d", min, len(args))
		}
		return fmt.Errorf("expected %d to %d arguments, got %d", min, max, len(args))
	}
	return nil
}
