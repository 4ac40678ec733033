package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	t.Run("wrapped sentinel still matches", func(t *testing.T) {
		err := fmt.Errorf("validating: %w", ErrEmptyCart.Wrap(errors.New("0 lines")))
		assert.ErrorIs(t, err, ErrEmptyCart)
		assert.NotErrorIs(t, err, ErrInvalidCoupon)
	})

	t.Run("re-messaged sentinel still matches", func(t *testing.T) {
		err := ErrInvalidCoupon.WithMessage("coupon has expired")
		assert.ErrorIs(t, err, ErrInvalidCoupon)
		assert.Equal(t, "coupon has expired", err.Error())
		assert.Equal(t, "coupon is not valid", ErrInvalidCoupon.Message)
	})

	t.Run("cause stays reachable", func(t *testing.T) {
		err := ErrGatewayUnavailable.Wrap(context.DeadlineExceeded)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, err.Error(), "deadline exceeded")
	})
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrUserNotFound, http.StatusNotFound},
		{ErrOrderNotFound, http.StatusNotFound},
		{ErrEmptyCart, http.StatusBadRequest},
		{ErrInvalidStatus, http.StatusBadRequest},
		{ErrInsufficientStock, http.StatusConflict},
		{ErrCheckoutConflict, http.StatusConflict},
		{ErrInvalidTransition, http.StatusConflict},
		{ErrGatewayUnavailable, http.StatusBadGateway},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(fmt.Errorf("op: %w", tc.err)), tc.err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "EMPTY_CART", CodeOf(ErrEmptyCart))
	assert.Equal(t, "INTERNAL", CodeOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
	assert.Equal(t, "insufficient_stock", KindInsufficientStock.String())
}
