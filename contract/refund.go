package contract

import (
	"math"

	"github.com/cloudflare/cfssl/log"

	"github.com/poolfund/common"
	"github.com/poolfund/meta"
)

// Refund 按存款顺序把每个人的原始存款退回，与是否出席无关。返回退款总额
func (d *Distribution) Refund() (int64, error) {
	if err := d.checkAdmin(); err != nil {
		return 0, err
	}
	if err := d.requireOpen(); err != nil {
		return 0, err
	}
	ledger, err := d.ledger()
	if err != nil {
		return 0, err
	}
	depositors, err := d.Depositors()
	if err != nil {
		return 0, err
	}

	var total int64
	for _, payee := range depositors {
		if total > math.MaxInt64-payee.Deposit {
			return 0, ErrArithmeticOverflow
		}
		if err := ledger.Transfer(meta.SignatureInvoker, 0, payee.Participant, payee.Deposit); err != nil {
			log.Errorf("[Refund] return %d to %s failed: %s", payee.Deposit, payee.Participant, err)
			return 0, ledgerFailed("transfer", err)
		}
		total += payee.Deposit
		d.env.emit(common.TopicRefund, map[string]interface{}{
			"participant": payee.Participant.String(),
			"amount":      payee.Deposit,
		})
	}
	if err := d.set(common.DataKeySettlement, meta.SettlementRefunded); err != nil {
		return 0, err
	}

	log.Infof("[Refund] contract=%s participants=%d total=%d", d.env.Self, len(depositors), total)
	return total, nil
}
