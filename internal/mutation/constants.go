package mutation

// Action names used in logs and metrics labels
const (
	ActionEquip             = "equip"
	ActionUnequip           = "unequip"
	ActionUpgrade           = "upgrade"
	ActionTransfer          = "transfer"
	ActionMarketplaceList   = "marketplace_list"
	ActionMarketplaceRemove = "marketplace_remove"
)

// User-facing message constants
const (
	MsgNetworkError     = "Network error, please try again"
	MsgTransferComplete = "Item transferred to %s"
)
