package meta

import (
	"errors"
	"strings"
)

// 身份类型
type IdentifierType string

const (
	AccountType  IdentifierType = "account"  // 外部账户
	ContractType IdentifierType = "contract" // 合约账户
)

// Identifier 账户或合约的身份标识，可直接用 == 比较
type Identifier struct {
	Type IdentifierType `json:"type"`
	ID   string         `json:"id"`
}

func Account(id string) Identifier {
	return Identifier{Type: AccountType, ID: id}
}

func Contract(id string) Identifier {
	return Identifier{Type: ContractType, ID: id}
}

func (i Identifier) IsZero() bool {
	return i.ID == ""
}

// 形如 account:alice
func (i Identifier) String() string {
	return string(i.Type) + ":" + i.ID
}

// ParseIdentifier 解析 String() 的输出，没有前缀时按外部账户处理
func ParseIdentifier(s string) (Identifier, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Identifier{}, errors.New("empty identifier")
	}
	idx := strings.Index(s, ":")
	if idx < 0 {
		return Account(s), nil
	}
	typ, id := IdentifierType(s[:idx]), s[idx+1:]
	if id == "" {
		return Identifier{}, errors.New("empty identifier id")
	}
	switch typ {
	case AccountType, ContractType:
		return Identifier{Type: typ, ID: id}, nil
	}
	return Identifier{}, errors.New("unknown identifier type: " + string(typ))
}
