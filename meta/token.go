package meta

import (
	"encoding/hex"
	"errors"
)

// TokenID 外部代币账本的标识，初始化后不可更改
type TokenID [32]byte

func (t TokenID) String() string {
	return hex.EncodeToString(t[:])
}

func (t TokenID) IsZero() bool {
	return t == TokenID{}
}

func (t TokenID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TokenID) UnmarshalText(text []byte) error {
	id, err := ParseTokenID(string(text))
	if err != nil {
		return err
	}
	*t = id
	return nil
}

func ParseTokenID(s string) (TokenID, error) {
	var id TokenID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(b) != len(id) {
		return id, errors.New("token id must be 32 bytes")
	}
	copy(id[:], b)
	return id, nil
}

// 代币元数据
type TokenMetadata struct {
	Admin    Identifier `json:"admin"`
	Decimals uint32     `json:"decimals"`
	Name     string     `json:"name"`
	Symbol   string     `json:"symbol"`
}

// Signature 调用代币账本时使用的授权方式
type Signature int

const (
	// 由当前调用者（合约调用时即合约本身）授权，nonce 必须为 0
	SignatureInvoker Signature = iota
)
