package account

import "github.com/poolfund/meta"

// Client 以某个调用者身份访问账本，合约通过它读余额、收款和付款
type Client struct {
	ledger  *Ledger
	invoker meta.Identifier
}

func NewClient(ledger *Ledger, invoker meta.Identifier) *Client {
	return &Client{ledger: ledger, invoker: invoker}
}

func (c *Client) Balance(id meta.Identifier) (int64, error) {
	return c.ledger.Balance(id)
}

// Transfer 从调用者账户向 to 转账
func (c *Client) Transfer(sig meta.Signature, nonce uint64, to meta.Identifier, amount int64) error {
	signer, err := c.authorize(sig, nonce)
	if err != nil {
		return err
	}
	return c.ledger.Transfer(signer, to, amount)
}

// TransferFrom 使用 from 授予调用者的额度转账
func (c *Client) TransferFrom(sig meta.Signature, nonce uint64, from, to meta.Identifier, amount int64) error {
	spender, err := c.authorize(sig, nonce)
	if err != nil {
		return err
	}
	return c.ledger.TransferFrom(spender, from, to, amount)
}

// 调用者签名不消耗 nonce，只接受 0
func (c *Client) authorize(sig meta.Signature, nonce uint64) (meta.Identifier, error) {
	if sig != meta.SignatureInvoker {
		return meta.Identifier{}, ErrUnsupportedSignature
	}
	if nonce != 0 {
		return meta.Identifier{}, ErrBadNonce
	}
	return c.invoker, nil
}
