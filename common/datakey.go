package common

// DataKey 合约状态存储槽位
type DataKey int

const (
	DataKeyAdmin      DataKey = iota // 管理员
	DataKeyDepositors                // 存款记录（按插入顺序）
	DataKeyToken                     // 代币标识
	DataKeyAttended                  // 已出席人数
	DataKeySettlement                // 结算状态
)

var dataKeyNames = map[DataKey]string{
	DataKeyAdmin:      "admin",
	DataKeyDepositors: "depositors",
	DataKeyToken:      "token",
	DataKeyAttended:   "attended",
	DataKeySettlement: "settlement",
}

func (k DataKey) String() string {
	if name, ok := dataKeyNames[k]; ok {
		return name
	}
	return "unknown"
}
