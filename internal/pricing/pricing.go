package pricing

import (
	"math"

	"github.com/okwaro/safaribook/internal/domain"
)

// OperatingHoursPerDay is the assumed length of a guided day when only
// an hourly rate is published.
const OperatingHoursPerDay = 8

// Estimate computes a monetary estimate for a stay. Selection order is
// fixed: a daily rate wins over an hourly one; the per-guest fallback
// rate applies only when no positive rate entry exists. Non-finite
// intermediate results clamp to 0.
func Estimate(rates []domain.RateEntry, stayDays, guests int, fallbackRate float64) float64 {
	if stayDays <= 0 {
		return 0
	}

	if entry, ok := selectRate(rates); ok && entry.Amount > 0 {
		switch entry.Type {
		case domain.RateHourly:
			return clamp(entry.Amount * float64(stayDays) * OperatingHoursPerDay)
		case domain.RateDaily:
			return clamp(entry.Amount * float64(stayDays))
		}
	}

	if fallbackRate > 0 {
		return clamp(fallbackRate * float64(max(1, guests)) * float64(max(1, stayDays)))
	}
	return 0
}

// EstimateForGuide applies a guide's own schedule and fallback rate.
func EstimateForGuide(g *domain.Guide, stayDays, guests int) float64 {
	if g == nil {
		return 0
	}
	return Estimate(g.Rates, stayDays, guests, g.FallbackRate)
}

func selectRate(rates []domain.RateEntry) (domain.RateEntry, bool) {
	var hourly *domain.RateEntry
	for i := range rates {
		switch rates[i].Type {
		case domain.RateDaily:
			return rates[i], true
		case domain.RateHourly:
			if hourly == nil {
				hourly = &rates[i]
			}
		}
	}
	if hourly != nil {
		return *hourly, true
	}
	return domain.RateEntry{}, false
}

// Currency returns the currency of the rate entry an estimate would
// use, or the given default when the fallback path applies.
func Currency(rates []domain.RateEntry, def string) string {
	if entry, ok := selectRate(rates); ok && entry.Amount > 0 && entry.Currency != "" {
		return entry.Currency
	}
	if def != "" {
		return def
	}
	return "USD"
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
