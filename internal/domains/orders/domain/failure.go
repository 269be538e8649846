package domain

// FailureReason is an operator-visible category for a rejected marketplace
// order. The set is closed; unrecognized remote codes fall through to a
// generic tag that carries the raw code.
type FailureReason string

const (
	ReasonNotAvailable       FailureReason = "NotAvailable"
	ReasonPriceChanged       FailureReason = "PriceChanged"
	ReasonOutOfStock         FailureReason = "OutOfStock"
	ReasonInsufficientPoints FailureReason = "InsufficientPoints"
	ReasonSelfPurchase       FailureReason = "SelfPurchase"
	ReasonBlocked            FailureReason = "Blocked"

	// Local processing outcomes, not remote rejections.
	ReasonNotFound      FailureReason = "NotFound"
	ReasonMappingFailed FailureReason = "MappingFailed"
	ReasonException     FailureReason = "Exception"
)

// CodeInsufficientPoints is the one remote code severe enough to demand
// urgent alerting: the purchasing account ran out of funds.
const CodeInsufficientPoints = "POINT_SHORTAGE"

var failureReasonByCode = map[string]FailureReason{
	"PRODUCT_NOT_FOUND":    ReasonNotAvailable,
	"PRODUCT_SOLD_OUT":     ReasonNotAvailable,
	"PRODUCT_ON_HOLD":      ReasonNotAvailable,
	"PRICE_CHANGED":        ReasonPriceChanged,
	"QUANTITY_SHORTAGE":    ReasonOutOfStock,
	CodeInsufficientPoints: ReasonInsufficientPoints,
	"SELF_PURCHASE":        ReasonSelfPurchase,
	"BLOCKED_USER":         ReasonBlocked,
}

// ClassifyFailureCode maps a remote error code onto its category.
func ClassifyFailureCode(code string) (FailureReason, bool) {
	reason, ok := failureReasonByCode[code]
	return reason, ok
}

// FailureTag builds the tag recorded on the external order for a rejected
// item. Known codes use their category; unknown codes keep the raw code so
// operators can still triage them.
func FailureTag(productID, code string) string {
	if reason, ok := ClassifyFailureCode(code); ok {
		return ItemTag(productID, reason)
	}
	return ItemTag(productID, FailureReason("Error-"+code))
}
