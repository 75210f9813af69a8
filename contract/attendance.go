package contract

import (
	"math"

	"github.com/cloudflare/cfssl/log"

	"github.com/poolfund/common"
	"github.com/poolfund/meta"
)

// Attended 管理员登记参与者出席。重复登记同一个人不会让计数增加
func (d *Distribution) Attended(participant meta.Identifier) error {
	if err := d.checkAdmin(); err != nil {
		return err
	}
	if err := d.requireOpen(); err != nil {
		return err
	}
	depositors, err := d.Depositors()
	if err != nil {
		return err
	}
	i := indexOf(depositors, participant)
	if i < 0 {
		return ErrUnknownParticipant
	}
	if depositors[i].Attended {
		return nil
	}

	count, err := d.AttendedCount()
	if err != nil {
		return err
	}
	if count == math.MaxUint32 {
		return ErrArithmeticOverflow
	}
	count++
	depositors[i].Attended = true
	if err := d.set(common.DataKeyDepositors, depositors); err != nil {
		return err
	}
	if err := d.set(common.DataKeyAttended, count); err != nil {
		return err
	}

	log.Infof("[Attended] contract=%s participant=%s attended=%d", d.env.Self, participant, count)
	d.env.emit(common.TopicAttended, map[string]interface{}{
		"participant": participant.String(),
		"attended":    count,
	})
	return nil
}
