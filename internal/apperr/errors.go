package apperr

import (
	"errors"
	"net/http"
)

// Kind 对错误做粗粒度分类，决定对外的状态码。
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidInput
	KindInsufficientStock
	KindGatewayUnavailable
	KindConflict
	KindInvalidTransition
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindGatewayUnavailable:
		return "gateway_unavailable"
	case KindConflict:
		return "conflict"
	case KindInvalidTransition:
		return "invalid_transition"
	default:
		return "internal"
	}
}

// Error is a classified application error. Two errors match under errors.Is
// when their codes are equal, so sentinels can be re-messaged or wrapped.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap 返回携带底层原因的副本，哨兵本身不被修改。
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// WithMessage 返回替换了描述的副本。
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

var (
	ErrUserNotFound     = New(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrOrderNotFound    = New(KindNotFound, "ORDER_NOT_FOUND", "order not found")
	ErrProductNotFound  = New(KindNotFound, "PRODUCT_NOT_FOUND", "product not found")
	ErrCouponNotFound   = New(KindNotFound, "COUPON_NOT_FOUND", "coupon not found")
	ErrPaymentNotFound  = New(KindNotFound, "PAYMENT_NOT_FOUND", "payment not found")
	ErrCartLineNotFound = New(KindNotFound, "CART_LINE_NOT_FOUND", "product is not in the cart")

	ErrEmptyCart       = New(KindInvalidInput, "EMPTY_CART", "cart is empty")
	ErrInvalidCoupon   = New(KindInvalidInput, "INVALID_COUPON", "coupon is not valid")
	ErrInvalidStatus   = New(KindInvalidInput, "INVALID_STATUS", "unknown delivery status")
	ErrInvalidQuantity = New(KindInvalidInput, "INVALID_QUANTITY", "quantity must be greater than zero")
	ErrInvalidInput    = New(KindInvalidInput, "INVALID_INPUT", "invalid input")

	ErrInsufficientStock  = New(KindInsufficientStock, "INSUFFICIENT_STOCK", "insufficient stock")
	ErrGatewayUnavailable = New(KindGatewayUnavailable, "GATEWAY_UNAVAILABLE", "payment gateway unavailable")
	ErrCheckoutConflict   = New(KindConflict, "CHECKOUT_CONFLICT", "cart is being checked out concurrently")
	ErrStaleOrder         = New(KindConflict, "STALE_ORDER", "order was modified concurrently")
	ErrPaymentExists      = New(KindConflict, "PAYMENT_EXISTS", "order already has a payment")
	ErrInvalidTransition  = New(KindInvalidTransition, "INVALID_TRANSITION", "delivery status transition not allowed")
)

// KindOf 返回错误链上第一个 *Error 的分类，未分类的错误视为 internal。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf 返回错误码，未分类的错误返回 INTERNAL。
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}

// HTTPStatus 将错误分类映射为 HTTP 状态码。
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindInsufficientStock, KindConflict, KindInvalidTransition:
		return http.StatusConflict
	case KindGatewayUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
