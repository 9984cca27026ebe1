package purchase

// User-facing message constants
const (
	MsgTransactionFailed = "Purchase failed, please try again"
)
