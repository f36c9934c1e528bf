package pipeline

import (
	"github.com/shopspring/decimal"

	"refcommission/internal"
	"refcommission/internal/util"
)

const commissionPlaces = 4

var hundred = decimal.NewFromInt(100)

// ResolveRateType maps a raw "rates types" value onto the closed set of
// rate regimes. Anything unrecognized, including "", is RateOther.
func ResolveRateType(raw string) internal.RateType {
	switch util.NormalizeRateType(raw) {
	case string(internal.RatePercentage):
		return internal.RatePercentage
	case string(internal.RateFixed):
		return internal.RateFixed
	default:
		return internal.RateOther
	}
}

// Commission computes one row's referral commission. It never fails:
// missing or malformed inputs yield zero.
//
// Percentage rates above 1 are whole percents (5 -> 0.05); rates at or
// below 1 are already fractions, so 1 means 100%.
func Commission(rateType *string, rate *float64, payeeAmount *float64) decimal.Decimal {
	if rateType == nil || rate == nil {
		return decimal.Zero
	}

	r := decimal.NewFromFloat(*rate)
	switch ResolveRateType(*rateType) {
	case internal.RatePercentage:
		if payeeAmount == nil {
			return decimal.Zero
		}
		factor := r
		if *rate > 1 {
			factor = r.Div(hundred)
		}
		return decimal.NewFromFloat(*payeeAmount).Mul(factor).Round(commissionPlaces)
	case internal.RateFixed:
		return r.Round(commissionPlaces)
	default:
		return decimal.Zero
	}
}

func rowCommission(row internal.JoinedRow) decimal.Decimal {
	if row.Referral == nil {
		return decimal.Zero
	}
	return Commission(row.Referral.RateType, row.Referral.Rate, row.Transaction.PayeeAmount)
}
