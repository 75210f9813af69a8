package contract

import (
	"github.com/cloudflare/cfssl/log"

	"github.com/poolfund/common"
	"github.com/poolfund/meta"
)

// Distribute 将奖池余额按出席人数平分（向下取整），余数留在奖池中
func (d *Distribution) Distribute() (meta.Payout, error) {
	var payout meta.Payout
	if err := d.checkAdmin(); err != nil {
		return payout, err
	}
	if err := d.requireOpen(); err != nil {
		return payout, err
	}
	eligible, err := d.AttendedCount()
	if err != nil {
		return payout, err
	}
	if eligible == 0 {
		return payout, ErrNoEligibleParticipants
	}
	ledger, err := d.ledger()
	if err != nil {
		return payout, err
	}
	balance, err := ledger.Balance(d.env.Self)
	if err != nil {
		return payout, ledgerFailed("balance", err)
	}
	depositors, err := d.Depositors()
	if err != nil {
		return payout, err
	}

	share := balance / int64(eligible)
	payout = meta.Payout{
		Balance:   balance,
		Eligible:  eligible,
		Share:     share,
		Remainder: balance - share*int64(eligible),
		Payees:    []meta.Identifier{},
	}
	for _, payee := range depositors {
		if !payee.Attended {
			continue
		}
		if err := ledger.Transfer(meta.SignatureInvoker, 0, payee.Participant, share); err != nil {
			log.Errorf("[Distribute] pay %d to %s failed: %s", share, payee.Participant, err)
			return meta.Payout{}, ledgerFailed("transfer", err)
		}
		payout.Payees = append(payout.Payees, payee.Participant)
		d.env.emit(common.TopicPayout, map[string]interface{}{
			"participant": payee.Participant.String(),
			"amount":      share,
		})
	}
	if err := d.set(common.DataKeySettlement, meta.SettlementDistributed); err != nil {
		return meta.Payout{}, err
	}

	log.Infof("[Distribute] contract=%s balance=%d eligible=%d share=%d remainder=%d",
		d.env.Self, balance, eligible, share, payout.Remainder)
	d.env.emit(common.TopicDistribute, map[string]interface{}{
		"balance":   balance,
		"eligible":  eligible,
		"share":     share,
		"remainder": payout.Remainder,
	})
	return payout, nil
}
