package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyFailureCode(t *testing.T) {
	cases := []struct {
		code   string
		reason FailureReason
		known  bool
	}{
		{code: "PRODUCT_NOT_FOUND", reason: ReasonNotAvailable, known: true},
		{code: "PRODUCT_SOLD_OUT", reason: ReasonNotAvailable, known: true},
		{code: "PRODUCT_ON_HOLD", reason: ReasonNotAvailable, known: true},
		{code: "PRICE_CHANGED", reason: ReasonPriceChanged, known: true},
		{code: "QUANTITY_SHORTAGE", reason: ReasonOutOfStock, known: true},
		{code: "POINT_SHORTAGE", reason: ReasonInsufficientPoints, known: true},
		{code: "SELF_PURCHASE", reason: ReasonSelfPurchase, known: true},
		{code: "BLOCKED_USER", reason: ReasonBlocked, known: true},
		{code: "NEW_MYSTERY_CODE", known: false},
		{code: "", known: false},
	}
	for _, tc := range cases {
		reason, ok := ClassifyFailureCode(tc.code)
		require.Equal(t, tc.known, ok, "code %q", tc.code)
		if tc.known {
			require.Equal(t, tc.reason, reason, "code %q", tc.code)
		}
	}
}

func TestFailureTag(t *testing.T) {
	require.Equal(t, "PID-55-InsufficientPoints", FailureTag("55", "POINT_SHORTAGE"))
	// Unknown codes stay triageable via the raw code.
	require.Equal(t, "PID-55-Error-WEIRD", FailureTag("55", "WEIRD"))
}
