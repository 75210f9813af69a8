package chaincode

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/golang/protobuf/proto"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/msp"

	"github.com/poolfund/meta"
	"github.com/poolfund/state"
)

// stubKV 以 world state 作为合约和代币账本的存储
// peer 上 GetState 只能读到已提交的状态，看不到本次交易的写集，
// 所以同一次调用内的写入先记在 pending 中，读时优先查 pending
// 交易失败时 peer 不会提交读写集，原子性由 fabric 保证
type stubKV struct {
	stub    shim.ChaincodeStubInterface
	pending map[string][]byte
}

func newStubKV(stub shim.ChaincodeStubInterface) *stubKV {
	return &stubKV{stub: stub, pending: make(map[string][]byte)}
}

func (s *stubKV) Get(key []byte) ([]byte, error) {
	if data, ok := s.pending[string(key)]; ok {
		return data, nil
	}
	data, err := s.stub.GetState(string(key))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, state.ErrNotFound
	}
	return data, nil
}

func (s *stubKV) Has(key []byte) (bool, error) {
	if _, ok := s.pending[string(key)]; ok {
		return true, nil
	}
	data, err := s.stub.GetState(string(key))
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

func (s *stubKV) Put(key, value []byte) error {
	if err := s.stub.PutState(string(key), value); err != nil {
		return err
	}
	s.pending[string(key)] = value
	return nil
}

// IdentityFunc 从交易中取出调用者身份
type IdentityFunc func(stub shim.ChaincodeStubInterface) (meta.Identifier, error)

// CreatorIdentity 默认的身份解析：按提交者证书计算账户地址
func CreatorIdentity(stub shim.ChaincodeStubInterface) (meta.Identifier, error) {
	creator, err := stub.GetCreator()
	if err != nil {
		return meta.Identifier{}, err
	}
	return IdentityFromCreator(creator)
}

// IdentityFromCreator 账户地址形如 <mspid>/<证书 sha256 前 20 字节>
func IdentityFromCreator(creator []byte) (meta.Identifier, error) {
	if len(creator) == 0 {
		return meta.Identifier{}, errors.New("empty creator")
	}
	sid := &msp.SerializedIdentity{}
	if err := proto.Unmarshal(creator, sid); err != nil {
		return meta.Identifier{}, err
	}
	if sid.Mspid == "" {
		return meta.Identifier{}, errors.New("creator without msp id")
	}
	sum := sha256.Sum256(sid.IdBytes)
	return meta.Account(sid.Mspid + "/" + hex.EncodeToString(sum[:20])), nil
}
