package common

// levelDB key 前缀
const (
	ContractStatePrefix = "contract/" // contract/<合约id>/<DataKey>
	TokenStatePrefix    = "token/"    // token/<代币id>/...
	ReceiptsKey         = "chainReceipts"
)

// redis 中存放合约事件的默认列表
const ContractEventsKey = "contractEvents"

// 事件主题
const (
	TopicInitialize = "initialize"
	TopicDeposit    = "deposit"
	TopicAttended   = "attended"
	TopicPayout     = "payout"
	TopicDistribute = "distribute"
	TopicRefund     = "refund"
	TopicMint       = "mint"
	TopicApprove    = "approve"
	TopicTransfer   = "transfer"
)
