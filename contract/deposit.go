package contract

import (
	"github.com/cloudflare/cfssl/log"

	"github.com/poolfund/common"
	"github.com/poolfund/meta"
)

// Deposit 记录参与者的存款，并从其账户划入奖池。每个参与者只能存一次
func (d *Distribution) Deposit(participant meta.Identifier, amount int64) error {
	if err := d.requireOpen(); err != nil {
		return err
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	depositors, err := d.Depositors()
	if err != nil {
		return err
	}
	if indexOf(depositors, participant) >= 0 {
		return ErrDuplicateDeposit
	}
	ledger, err := d.ledger()
	if err != nil {
		return err
	}

	// 先划款再写记录，划款失败不会留下记录
	if err := ledger.TransferFrom(meta.SignatureInvoker, 0, participant, d.env.Self, amount); err != nil {
		log.Errorf("[Deposit] pull %d from %s failed: %s", amount, participant, err)
		return ledgerFailed("transfer_from", err)
	}
	depositors = append(depositors, meta.Depositor{
		Participant: participant,
		Deposit:     amount,
		Attended:    false,
	})
	if err := d.set(common.DataKeyDepositors, depositors); err != nil {
		return err
	}

	log.Infof("[Deposit] contract=%s participant=%s amount=%d", d.env.Self, participant, amount)
	d.env.emit(common.TopicDeposit, map[string]interface{}{
		"participant": participant.String(),
		"amount":      amount,
	})
	return nil
}
