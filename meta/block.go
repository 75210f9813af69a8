package meta

// Receipt 一次成功调用的回执，回执之间通过 PrevHash 串成链
type Receipt struct {
	TxID      string          `json:"tx_id"`
	Invoker   Identifier      `json:"invoker"`
	Contract  Identifier      `json:"contract"`
	Method    string          `json:"method"`
	Timestamp int64           `json:"timestamp"`
	Events    []ContractEvent `json:"events"`
	PrevHash  []byte          `json:"prev_hash"`
	Hash      []byte          `json:"hash"`
}
