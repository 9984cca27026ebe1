package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Item errors
	ErrMsgItemNotFound    = "item not found"
	ErrMsgAlreadyUpgraded = "item already upgraded"
	ErrMsgNotOwned        = "item not owned"

	// Economy errors
	ErrMsgInsufficientPoints = "insufficient points"
	ErrMsgPackSoldOut        = "pack sold out"
	ErrMsgPackNotFound       = "pack not found"

	// Transaction errors
	ErrMsgTransactionActive   = "a transaction is already active"
	ErrMsgTransactionInactive = "no transaction in progress"
	ErrMsgPurchaseNotFound    = "purchase not found"

	// Search errors
	ErrMsgSearchSuperseded = "search superseded"

	// Marketplace errors
	ErrMsgNotListed     = "item is not listed"
	ErrMsgAlreadyListed = "item is already listed"

	// Validation errors
	ErrMsgInvalidInput     = "invalid input"
	ErrMsgRecipientMissing = "recipient username is required"
)

// Common domain errors
// These errors should be used consistently across all layers of the engine.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	ErrItemNotFound    = errors.New(ErrMsgItemNotFound)
	ErrAlreadyUpgraded = errors.New(ErrMsgAlreadyUpgraded)
	ErrNotOwned        = errors.New(ErrMsgNotOwned)

	ErrInsufficientPoints = errors.New(ErrMsgInsufficientPoints)
	ErrPackSoldOut        = errors.New(ErrMsgPackSoldOut)
	ErrPackNotFound       = errors.New(ErrMsgPackNotFound)

	ErrTransactionActive   = errors.New(ErrMsgTransactionActive)
	ErrTransactionInactive = errors.New(ErrMsgTransactionInactive)
	ErrPurchaseNotFound    = errors.New(ErrMsgPurchaseNotFound)

	ErrSearchSuperseded = errors.New(ErrMsgSearchSuperseded)

	ErrNotListed     = errors.New(ErrMsgNotListed)
	ErrAlreadyListed = errors.New(ErrMsgAlreadyListed)

	ErrInvalidInput     = errors.New(ErrMsgInvalidInput)
	ErrRecipientMissing = errors.New(ErrMsgRecipientMissing)
)
