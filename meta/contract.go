package meta

// Depositor 参与者的存款记录
type Depositor struct {
	Participant Identifier `json:"participant"`
	Deposit     int64      `json:"deposit"`  // 创建后不再变化
	Attended    bool       `json:"attended"` // 只能 false -> true
}

// 合约结算状态
type Settlement string

const (
	SettlementOpen        Settlement = "open"
	SettlementDistributed Settlement = "distributed"
	SettlementRefunded    Settlement = "refunded"
)

// Payout distribute 的结果
type Payout struct {
	Balance   int64        `json:"balance"`   // 分配前的奖池余额
	Eligible  uint32       `json:"eligible"`  // 出席人数
	Share     int64        `json:"share"`     // 每人所得 floor(balance/eligible)
	Remainder int64        `json:"remainder"` // 留在奖池中的余数
	Payees    []Identifier `json:"payees"`
}

// 合约对外展示的状态
type ContractState struct {
	Contract    Identifier  `json:"contract"`
	Admin       Identifier  `json:"admin"`
	Token       TokenID     `json:"token"`
	Settlement  Settlement  `json:"settlement"`
	Attended    uint32      `json:"attended"`
	PoolBalance int64       `json:"pool_balance"`
	Depositors  []Depositor `json:"depositors"`
}
