package normalization

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"protocol-stats/internal/domain"
)

// Scale is the decimal exponent of a fixed-point encoding: value = raw / 10^Scale.
type Scale int32

// Fixed-point scales used by the indexer.
const (
	Scale0  Scale = 0  // plain numbers (counts, funding rates)
	Scale18 Scale = 18 // token amounts
	Scale30 Scale = 30 // USD amounts
)

// ErrInvalidValue is returned when a raw numeric field cannot be parsed.
var ErrInvalidValue = errors.New("invalid numeric value")

// Denominator returns 10^s.
func (s Scale) Denominator() decimal.Decimal {
	return decimal.New(1, int32(s))
}

// Normalize converts a fixed-point raw value to decimal units.
// The division is a decimal shift, so the only rounding is the final float64 conversion.
func Normalize(raw string, scale Scale) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, raw)
	}
	f, _ := d.Shift(-int32(scale)).Float64()
	return f, nil
}

// NormalizeRecord normalizes the named fields of a record with a single scale.
func NormalizeRecord(rec *domain.RawRecord, scale Scale, fields ...string) map[string]float64 {
	scales := make(map[string]Scale, len(fields))
	for _, f := range fields {
		scales[f] = scale
	}
	return NormalizeFields(rec, scales)
}

// NormalizeFields normalizes each field with its own scale.
// Missing, empty and non-numeric fields are skipped.
func NormalizeFields(rec *domain.RawRecord, scales map[string]Scale) map[string]float64 {
	out := make(map[string]float64, len(scales))
	if rec == nil {
		return out
	}
	for field, scale := range scales {
		raw, ok := rec.Field(field)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := Normalize(raw, scale)
		if err != nil {
			continue
		}
		out[field] = v
	}
	return out
}
