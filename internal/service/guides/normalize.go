package guides

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okwaro/safaribook/internal/domain"
)

// Guide payloads arrive in two historical shapes: camelCase with a
// "rates" array, and snake_case with a legacy "pricing" array. All
// shape branching happens here; past this boundary only domain.Guide
// exists.

type rawRate struct {
	Type     string  `json:"type"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Normalize produces the canonical guide record from a raw payload.
func Normalize(raw json.RawMessage) (*domain.Guide, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode guide payload: %w", err)
	}

	g := &domain.Guide{
		ID:         pickString(fields, "id"),
		Name:       pickString(fields, "name", "full_name", "fullName"),
		LocationID: pickString(fields, "locationId", "location_id"),
		Country:    pickString(fields, "country", "country_code", "countryCode"),
		Currency:   pickString(fields, "currency"),
	}
	if g.ID == "" {
		return nil, fmt.Errorf("guide payload has no id")
	}

	g.FallbackRate = pickFloat(fields, "fallbackRate", "fallback_rate", "perGuestRate", "per_guest_rate")

	rates := pickRaw(fields, "rates")
	if rates == nil {
		rates = pickRaw(fields, "pricing")
	}
	if rates != nil {
		var entries []rawRate
		if err := json.Unmarshal(rates, &entries); err != nil {
			return nil, fmt.Errorf("decode rate schedule: %w", err)
		}
		for _, e := range entries {
			switch strings.ToLower(e.Type) {
			case string(domain.RateDaily):
				g.Rates = append(g.Rates, domain.RateEntry{Type: domain.RateDaily, Amount: e.Amount, Currency: e.Currency})
			case string(domain.RateHourly):
				g.Rates = append(g.Rates, domain.RateEntry{Type: domain.RateHourly, Amount: e.Amount, Currency: e.Currency})
			}
		}
	}

	return g, nil
}

func pickRaw(fields map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := fields[k]; ok && string(v) != "null" {
			return v
		}
	}
	return nil
}

func pickString(fields map[string]json.RawMessage, keys ...string) string {
	raw := pickRaw(fields, keys...)
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func pickFloat(fields map[string]json.RawMessage, keys ...string) float64 {
	raw := pickRaw(fields, keys...)
	if raw == nil {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0
	}
	return f
}
