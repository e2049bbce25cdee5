package service

import (
	"math"
	"strings"

	"github.com/peerpresence/server-go/internal/model"
)

const (
	DefaultCurrency = "CAD"

	promoCodeNewUser = "NEWUSER"
	promoDiscount    = 0.10
	serviceFeeRate   = 0.03
	taxRate          = 0.13
)

// basePrice maps a duration tier to its list price.
func basePrice(duration string) float64 {
	switch strings.TrimSpace(duration) {
	case "30":
		return 30
	case "90":
		return 80
	default:
		return 55
	}
}

// Quote prices a session. Each intermediate amount is rounded to cents before
// it feeds the next step, so the total may differ by a cent from rounding
// only at the end.
func Quote(duration, promoCode string) model.Pricing {
	base := basePrice(duration)

	pct := 0.0
	if strings.EqualFold(strings.TrimSpace(promoCode), promoCodeNewUser) {
		pct = promoDiscount
	}

	discounted := roundCents(base * (1 - pct))
	fee := roundCents(discounted * serviceFeeRate)
	tax := roundCents(discounted * taxRate)

	return model.Pricing{
		Currency:   DefaultCurrency,
		Base:       base,
		Discount:   roundCents(base - discounted),
		ServiceFee: fee,
		Tax:        tax,
		Total:      roundCents(discounted + fee + tax),
	}
}

// roundCents rounds half away from zero at two decimals. The small bias
// keeps values such as 49.5*0.03, stored as 1.48499..., on the decimal side.
func roundCents(v float64) float64 {
	return math.Round(v*100+1e-9) / 100
}
