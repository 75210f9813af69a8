package util

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/cloudflare/cfssl/log"
)

//计算hash摘要
func CalculateHash(msg []byte) ([]byte, error) {
	h := sha256.New()
	if _, err := h.Write(msg); err != nil {
		log.Info(err)
		return nil, err
	}
	return h.Sum(nil), nil
}

// 计算任意结构体 json 编码后的 hash
func CalculateJSONHash(v interface{}) ([]byte, error) {
	jb, err := json.Marshal(v)
	if err != nil {
		DealJsonErr("CalculateJSONHash", err)
		return nil, err
	}
	return CalculateHash(jb)
}
