package engine

// Log messages
const (
	LogMsgUnexpectedPayload = "Unexpected event payload"
)
