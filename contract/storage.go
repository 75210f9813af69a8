package contract

import (
	"encoding/json"

	"github.com/poolfund/common"
	"github.com/poolfund/meta"
	"github.com/poolfund/state"
	"github.com/poolfund/util"
)

// Storage 合约状态存储，按 DataKey 存取，值为 json 编码
// Get 在槽位为空时返回 state.ErrNotFound
type Storage interface {
	Has(key common.DataKey) (bool, error)
	Get(key common.DataKey, v interface{}) error
	Set(key common.DataKey, v interface{}) error
}

// NewStorage 返回位于 contract/<合约id>/ 前缀下的存储
func NewStorage(kv state.KV, contract meta.Identifier) Storage {
	return &kvStorage{kv: state.Prefixed(kv, common.ContractStatePrefix+contract.ID+"/")}
}

type kvStorage struct {
	kv state.KV
}

func (s *kvStorage) Has(key common.DataKey) (bool, error) {
	return s.kv.Has([]byte(key.String()))
}

func (s *kvStorage) Get(key common.DataKey, v interface{}) error {
	data, err := s.kv.Get([]byte(key.String()))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		util.DealJsonErr("Storage.Get", err)
		return err
	}
	return nil
}

func (s *kvStorage) Set(key common.DataKey, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		util.DealJsonErr("Storage.Set", err)
		return err
	}
	return s.kv.Put([]byte(key.String()), data)
}
