package account

import (
	"math"
	"testing"

	"gotest.tools/assert"

	"github.com/poolfund/event"
	"github.com/poolfund/levelDB"
	"github.com/poolfund/meta"
)

var (
	tokenAdmin = meta.Account("token-admin")
	alice      = meta.Account("alice")
	bob        = meta.Account("bob")
	pool       = meta.Contract("pool")
)

func newLedger(t *testing.T) (*Ledger, *event.Recorder) {
	t.Helper()
	db, err := levelDB.OpenMem()
	assert.NilError(t, err)
	txn, err := db.Begin()
	assert.NilError(t, err)
	t.Cleanup(func() {
		txn.Discard()
		db.Close()
	})
	rec := event.NewRecorder("tx")
	l := NewLedger(txn, meta.TokenID{1}).WithEvents(rec)
	assert.NilError(t, l.Initialize(tokenAdmin, 7, "name", "symbol"))
	return l, rec
}

func TestInitializeOnce(t *testing.T) {
	l, _ := newLedger(t)
	err := l.Initialize(alice, 2, "other", "OTH")
	assert.Equal(t, err, ErrAlreadyInitialized)

	md, err := l.Metadata()
	assert.NilError(t, err)
	assert.Equal(t, md.Admin, tokenAdmin)
	assert.Equal(t, md.Symbol, "symbol")
}

func TestUninitializedToken(t *testing.T) {
	db, err := levelDB.OpenMem()
	assert.NilError(t, err)
	defer db.Close()
	txn, err := db.Begin()
	assert.NilError(t, err)
	defer txn.Discard()

	l := NewLedger(txn, meta.TokenID{9})
	assert.Equal(t, l.Mint(tokenAdmin, alice, 1), ErrNotInitialized)
	assert.Equal(t, l.Transfer(alice, bob, 0), ErrNotInitialized)
}

func TestMintRequiresAdmin(t *testing.T) {
	l, rec := newLedger(t)
	assert.Equal(t, l.Mint(alice, alice, 1000), ErrNotAuthorized)
	assert.Equal(t, l.Mint(tokenAdmin, alice, -1), ErrNegativeAmount)
	assert.NilError(t, l.Mint(tokenAdmin, alice, 1000))

	bal, err := l.Balance(alice)
	assert.NilError(t, err)
	assert.Equal(t, bal, int64(1000))

	events := rec.Events()
	assert.Equal(t, events[len(events)-1].Topic, "mint")
}

func TestMintOverflow(t *testing.T) {
	l, _ := newLedger(t)
	assert.NilError(t, l.Mint(tokenAdmin, alice, math.MaxInt64))
	assert.Equal(t, l.Mint(tokenAdmin, alice, 1), ErrOverflow)
}

func TestTransfer(t *testing.T) {
	l, _ := newLedger(t)
	assert.NilError(t, l.Mint(tokenAdmin, alice, 100))

	assert.Equal(t, l.Transfer(alice, bob, 101), ErrInsufficientBalance)
	assert.NilError(t, l.Transfer(alice, bob, 40))

	a, _ := l.Balance(alice)
	b, _ := l.Balance(bob)
	assert.Equal(t, a, int64(60))
	assert.Equal(t, b, int64(40))
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	l, _ := newLedger(t)
	assert.NilError(t, l.Mint(tokenAdmin, alice, 1000))

	assert.Equal(t, l.TransferFrom(pool, alice, pool, 1), ErrInsufficientAllowance)

	assert.NilError(t, l.Approve(alice, pool, 600))
	assert.NilError(t, l.Approve(alice, pool, 400))
	allowance, _ := l.Allowance(alice, pool)
	assert.Equal(t, allowance, int64(1000))

	assert.NilError(t, l.TransferFrom(pool, alice, pool, 700))
	allowance, _ = l.Allowance(alice, pool)
	assert.Equal(t, allowance, int64(300))

	bal, _ := l.Balance(pool)
	assert.Equal(t, bal, int64(700))
}

func TestTransferFromInsufficientBalanceKeepsAllowance(t *testing.T) {
	l, _ := newLedger(t)
	assert.NilError(t, l.Mint(tokenAdmin, alice, 10))
	assert.NilError(t, l.Approve(alice, pool, 100))

	assert.Equal(t, l.TransferFrom(pool, alice, pool, 50), ErrInsufficientBalance)
	allowance, _ := l.Allowance(alice, pool)
	assert.Equal(t, allowance, int64(100))
}

func TestClientSignatureRules(t *testing.T) {
	l, _ := newLedger(t)
	assert.NilError(t, l.Mint(tokenAdmin, pool, 50))

	c := NewClient(l, pool)
	assert.Equal(t, c.Transfer(meta.SignatureInvoker, 1, alice, 10), ErrBadNonce)
	assert.Equal(t, c.Transfer(meta.Signature(7), 0, alice, 10), ErrUnsupportedSignature)
	assert.NilError(t, c.Transfer(meta.SignatureInvoker, 0, alice, 10))

	bal, err := c.Balance(alice)
	assert.NilError(t, err)
	assert.Equal(t, bal, int64(10))
	bal, _ = c.Balance(pool)
	assert.Equal(t, bal, int64(40))
}

func TestClientTransferFromUsesInvokerAsSpender(t *testing.T) {
	l, _ := newLedger(t)
	assert.NilError(t, l.Mint(tokenAdmin, alice, 100))
	assert.NilError(t, l.Approve(alice, pool, 100))

	// bob 没有额度
	assert.Equal(t, NewClient(l, bob).TransferFrom(meta.SignatureInvoker, 0, alice, bob, 10), ErrInsufficientAllowance)
	assert.NilError(t, NewClient(l, pool).TransferFrom(meta.SignatureInvoker, 0, alice, pool, 100))
}

func TestAllowanceKeysDoNotCollide(t *testing.T) {
	l, _ := newLedger(t)
	// 拼接后原本相同的两组 owner/spender
	ownerA, spenderA := meta.Account("x/account:y"), meta.Account("z")
	ownerB, spenderB := meta.Account("x"), meta.Account("y/account:z")
	assert.Assert(t, allowanceKey(ownerA, spenderA) != allowanceKey(ownerB, spenderB))

	assert.NilError(t, l.Approve(ownerA, spenderA, 500))
	allowance, err := l.Allowance(ownerB, spenderB)
	assert.NilError(t, err)
	assert.Equal(t, allowance, int64(0))

	assert.NilError(t, l.Mint(tokenAdmin, ownerB, 100))
	assert.Equal(t, l.TransferFrom(spenderB, ownerB, spenderB, 100), ErrInsufficientAllowance)
}
