package meta

// ContractEvent 合约执行过程中产生的事件，提交成功后才会对外发布
type ContractEvent struct {
	TxID     string                 `json:"tx_id"`
	Contract Identifier             `json:"contract"`
	Topic    string                 `json:"topic"`
	Data     map[string]interface{} `json:"data"`
}
