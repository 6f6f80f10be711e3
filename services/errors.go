package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind mengelompokkan error domain supaya controller bisa memetakan ke HTTP status.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindConflict
	KindAvailability
	KindNotFound
	KindAuthorization
	KindOperationFailed
	KindTransient
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAvailability:
		return "availability"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	case KindOperationFailed:
		return "operation_failed"
	case KindTransient:
		return "transient"
	}
	return "unknown"
}

// AppError adalah error domain dengan pesan yang aman ditampilkan ke user.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// Is membandingkan berdasarkan Code, jadi hasil WithMessage tetap cocok dengan sentinel-nya.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage membuat salinan error dengan pesan yang lebih spesifik.
func (e *AppError) WithMessage(format string, args ...interface{}) *AppError {
	return &AppError{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

func newError(kind ErrorKind, code, msg string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: msg}
}

var (
	// validation
	ErrValidation        = newError(KindValidation, "validation", "invalid request")
	ErrPhoneRequired     = newError(KindValidation, "phone_required", "phone number is required")
	ErrInvalidPhone      = newError(KindValidation, "invalid_phone", "invalid phone number format")
	ErrInvalidQuantity   = newError(KindValidation, "invalid_quantity", "item quantity is out of range")
	ErrEmptyOrder        = newError(KindValidation, "empty_order", "order must contain at least one item")
	ErrInvalidOTP        = newError(KindValidation, "invalid_otp", "invalid OTP")
	ErrInvalidTransition = newError(KindValidation, "invalid_transition", "status transition is not allowed")
	ErrStalePreview      = newError(KindValidation, "stale_preview", "bill total changed since preview, please review again")
	ErrInvalidDiscount   = newError(KindValidation, "invalid_discount", "discount must be between 0 and the subtotal")
	ErrTableRequired     = newError(KindValidation, "table_required", "dine-in orders need a table")

	// domain conflict
	ErrTableBilled       = newError(KindConflict, "table_billed", "table is awaiting clearing, please ask staff before ordering")
	ErrInvalidState      = newError(KindConflict, "invalid_state", "order can no longer be cancelled")
	ErrOrderLocked       = newError(KindConflict, "order_locked", "order is billed or cancelled and cannot be changed")
	ErrOrdersStillActive = newError(KindConflict, "orders_still_active", "some orders are still being prepared")
	ErrNothingToSettle   = newError(KindConflict, "nothing_to_settle", "there are no orders to settle")
	ErrAlreadySettled    = newError(KindConflict, "already_settled", "orders were settled by another request")
	ErrTableEmpty        = newError(KindConflict, "table_empty", "table is empty")
	ErrTableNotBilled    = newError(KindConflict, "table_not_billed", "table must be billed before it can be cleared")
	ErrTableHasOrders    = newError(KindConflict, "table_has_orders", "table has order history and cannot be deleted")
	ErrOrderHasTable     = newError(KindConflict, "order_has_table", "order belongs to a table, settle the table instead")
	ErrStatusChanged     = newError(KindConflict, "status_changed", "order status was changed by another request")
	ErrDuplicateLabel    = newError(KindConflict, "duplicate_label", "table label already exists")
	ErrEmailTaken        = newError(KindConflict, "email_taken", "email already registered")

	ErrNotFound         = newError(KindNotFound, "not_found", "resource not found")
	ErrForbidden        = newError(KindAuthorization, "forbidden", "access denied")
	ErrInvalidLogin     = newError(KindAuthorization, "invalid_login", "invalid email or password")
	ErrExhaustedRetries = newError(KindOperationFailed, "exhausted_retries", "operation failed, please try again")
)

// AvailabilityError dikembalikan saat satu atau lebih item tidak bisa dijual.
type AvailabilityError struct {
	Items []string
}

func (e *AvailabilityError) Error() string {
	return "some items are no longer available: " + strings.Join(e.Items, ", ")
}

// KindOf mengembalikan kategori error; error yang tidak dikenal dianggap operation failed.
func KindOf(err error) ErrorKind {
	if err == nil {
		return 0
	}
	var avail *AvailabilityError
	if errors.As(err, &avail) {
		return KindAvailability
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if isTransient(err) {
		return KindTransient
	}
	return KindOperationFailed
}

// isTransient -> store tidak bisa dihubungi atau tidak menjawab tepat waktu.
func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
