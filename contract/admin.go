package contract

import (
	"github.com/cloudflare/cfssl/log"

	"github.com/poolfund/common"
	"github.com/poolfund/meta"
)

func (d *Distribution) hasAdministrator() (bool, error) {
	ok, err := d.env.Storage.Has(common.DataKeyAdmin)
	if err != nil {
		return false, storageFailed(common.DataKeyAdmin, err)
	}
	return ok, nil
}

// Initialize 设置管理员和代币，只能成功一次
func (d *Distribution) Initialize(admin meta.Identifier, token meta.TokenID) error {
	ok, err := d.hasAdministrator()
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyInitialized
	}
	if err := d.set(common.DataKeyAdmin, admin); err != nil {
		return err
	}
	if err := d.set(common.DataKeyToken, token); err != nil {
		return err
	}
	if err := d.set(common.DataKeySettlement, meta.SettlementOpen); err != nil {
		return err
	}
	log.Infof("[Initialize] contract=%s admin=%s token=%s", d.env.Self, admin, token)
	d.env.emit(common.TopicInitialize, map[string]interface{}{
		"admin": admin.String(),
		"token": token.String(),
	})
	return nil
}

// 调用者必须是管理员
func (d *Distribution) checkAdmin() error {
	admin, err := d.Admin()
	if err != nil {
		return err
	}
	if d.env.Invoker != admin {
		log.Infof("[checkAdmin] %s is not the admin of %s", d.env.Invoker, d.env.Self)
		return ErrNotAuthorized
	}
	return nil
}
