package contract

import (
	"github.com/poolfund/common"
	"github.com/poolfund/meta"
	"github.com/poolfund/state"
)

/*
 * 奖池分配合约
 * 参与者存入代币，管理员登记出席，最后由管理员按出席人数平分奖池（distribute）
 * 或者把每个人的存款原样退回（refund），两者只能执行其一且只能执行一次
 */

type Distribution struct {
	env *Env
}

func NewDistribution(env *Env) *Distribution {
	return &Distribution{env: env}
}

func (d *Distribution) Admin() (meta.Identifier, error) {
	var admin meta.Identifier
	if err := d.get(common.DataKeyAdmin, &admin); err != nil {
		return admin, err
	}
	return admin, nil
}

func (d *Distribution) Token() (meta.TokenID, error) {
	var token meta.TokenID
	if err := d.get(common.DataKeyToken, &token); err != nil {
		return token, err
	}
	return token, nil
}

// Depositors 按存款顺序返回所有记录
func (d *Distribution) Depositors() ([]meta.Depositor, error) {
	var depositors []meta.Depositor
	err := d.env.Storage.Get(common.DataKeyDepositors, &depositors)
	if err == state.ErrNotFound {
		return []meta.Depositor{}, nil
	}
	if err != nil {
		return nil, storageFailed(common.DataKeyDepositors, err)
	}
	return depositors, nil
}

func (d *Distribution) AttendedCount() (uint32, error) {
	var n uint32
	err := d.env.Storage.Get(common.DataKeyAttended, &n)
	if err == state.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, storageFailed(common.DataKeyAttended, err)
	}
	return n, nil
}

func (d *Distribution) Settlement() (meta.Settlement, error) {
	var s meta.Settlement
	if err := d.get(common.DataKeySettlement, &s); err != nil {
		return "", err
	}
	return s, nil
}

// PoolBalance 奖池余额以账本为准，不在本地保存
func (d *Distribution) PoolBalance() (int64, error) {
	ledger, err := d.ledger()
	if err != nil {
		return 0, err
	}
	bal, err := ledger.Balance(d.env.Self)
	if err != nil {
		return 0, ledgerFailed("balance", err)
	}
	return bal, nil
}

// State 汇总合约当前状态
func (d *Distribution) State() (meta.ContractState, error) {
	st := meta.ContractState{Contract: d.env.Self}
	var err error
	if st.Admin, err = d.Admin(); err != nil {
		return st, err
	}
	if st.Token, err = d.Token(); err != nil {
		return st, err
	}
	if st.Settlement, err = d.Settlement(); err != nil {
		return st, err
	}
	if st.Attended, err = d.AttendedCount(); err != nil {
		return st, err
	}
	if st.Depositors, err = d.Depositors(); err != nil {
		return st, err
	}
	if st.PoolBalance, err = d.PoolBalance(); err != nil {
		return st, err
	}
	return st, nil
}

func (d *Distribution) ledger() (LedgerClient, error) {
	token, err := d.Token()
	if err != nil {
		return nil, err
	}
	return d.env.Ledger(token), nil
}

// 仍处于 Open 状态才允许存款、登记出席和结算
func (d *Distribution) requireOpen() error {
	s, err := d.Settlement()
	if err != nil {
		return err
	}
	if s != meta.SettlementOpen {
		return ErrAlreadySettled
	}
	return nil
}

// 读取初始化时写入的槽位，为空说明合约还没有初始化
func (d *Distribution) get(key common.DataKey, v interface{}) error {
	err := d.env.Storage.Get(key, v)
	if err == state.ErrNotFound {
		return ErrNotInitialized
	}
	if err != nil {
		return storageFailed(key, err)
	}
	return nil
}

func (d *Distribution) set(key common.DataKey, v interface{}) error {
	if err := d.env.Storage.Set(key, v); err != nil {
		return storageFailed(key, err)
	}
	return nil
}

func indexOf(depositors []meta.Depositor, participant meta.Identifier) int {
	for i := range depositors {
		if depositors[i].Participant == participant {
			return i
		}
	}
	return -1
}
