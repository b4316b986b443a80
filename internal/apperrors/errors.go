// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// Category buckets every marketplace error so handlers can map it to an HTTP
// status without inspecting individual sentinels.
type Category string

const (
	CategoryAuthorization Category = "authorization"
	CategoryStateConflict Category = "state_conflict"
	CategoryValidation    Category = "validation"
	CategoryResource      Category = "resource"
	CategoryExternalCall  Category = "external_call"
)

type Error struct {
	Code     string
	Category Category
	Message  string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code string, category Category, message string) *Error {
	return &Error{Code: code, Category: category, Message: message}
}

// Authorization errors
var (
	ErrNotAdmin    = newError("NOT_ADMIN", CategoryAuthorization, "admin capability required")
	ErrNotEntitled = newError("NOT_ENTITLED", CategoryAuthorization, "identity is not entitled")
	ErrNotOwner    = newError("NOT_OWNER", CategoryAuthorization, "identity is not the asset owner")
	ErrNotApproved = newError("NOT_APPROVED", CategoryAuthorization, "marketplace lacks transfer approval for this asset")
)

// State conflict errors
var (
	ErrSubscriptionActive = newError("SUBSCRIPTION_ACTIVE", CategoryStateConflict, "an unexpired subscription already exists")
	ErrNotSubscribed      = newError("NOT_SUBSCRIBED", CategoryStateConflict, "no subscription exists for identity")
	ErrAlreadyCancelled   = newError("ALREADY_CANCELLED", CategoryStateConflict, "subscription is already cancelled")
	ErrAlreadyListed      = newError("ALREADY_LISTED", CategoryStateConflict, "asset already has an active listing")
	ErrNotListed          = newError("NOT_LISTED", CategoryStateConflict, "no active listing for asset")
	ErrPriceChanged       = newError("PRICE_CHANGED", CategoryStateConflict, "listing price differs from the committed price")
	ErrPaused             = newError("PAUSED", CategoryStateConflict, "component is paused")
	ErrSettlementInFlight = newError("SETTLEMENT_IN_FLIGHT", CategoryStateConflict, "a settlement for this asset is already executing")
)

// Validation errors
var (
	ErrInvalidPrice        = newError("INVALID_PRICE", CategoryValidation, "price must be positive")
	ErrInvalidToken        = newError("INVALID_TOKEN", CategoryValidation, "payment token is not supported")
	ErrUnsupportedToken    = newError("UNSUPPORTED_TOKEN", CategoryValidation, "payment token is not allow-listed")
	ErrRoyaltyExceedsPrice = newError("ROYALTY_EXCEEDS_PRICE", CategoryValidation, "royalty at this price exceeds the price")
	ErrRoyaltyTooHigh      = newError("ROYALTY_TOO_HIGH", CategoryValidation, "royalty exceeds the basis-point cap")
	ErrCopiesOutOfRange    = newError("COPIES_OUT_OF_RANGE", CategoryValidation, "mint copies out of allowed range")
	ErrBatchTooLarge       = newError("BATCH_TOO_LARGE", CategoryValidation, "batch exceeds the maximum size")
	ErrInvalidIdentity     = newError("INVALID_IDENTITY", CategoryValidation, "identity is invalid")
)

// Resource errors
var (
	ErrNothingToWithdraw   = newError("NOTHING_TO_WITHDRAW", CategoryResource, "custody balance is zero")
	ErrInsufficientBalance = newError("INSUFFICIENT_BALANCE", CategoryResource, "insufficient token balance")
)

// External call errors
var (
	ErrPaymentTransferFailed = newError("PAYMENT_TRANSFER_FAILED", CategoryExternalCall, "payment transfer failed")
	ErrAssetTransferFailed   = newError("ASSET_TRANSFER_FAILED", CategoryExternalCall, "asset transfer failed")
)

// CategoryOf reports the category of err if it wraps a marketplace error.
func CategoryOf(err error) (Category, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Category, true
	}
	return "", false
}

// CodeOf reports the machine code of err if it wraps a marketplace error.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL_ERROR"
}

// Wrap annotates err with operation context while keeping the sentinel
// reachable through errors.Is / errors.As.
func Wrap(err error, format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, err)...)
}
