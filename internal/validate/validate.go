// Package validate checks decoded order events against the structural and
// arithmetic invariants an order must satisfy before aggregation.
package validate

import (
	"math"

	"github.com/rs/zerolog/log"
)

// requiredFields must all be present on a decoded order.
var requiredFields = []string{"order_id", "user_id", "order_value", "items"}

// Order reports whether a decoded order event is valid: all required fields
// present, order_value numeric, and the declared value matching the sum of
// quantity x price_per_unit over items, both rounded to 2 decimals.
//
// The check is arithmetic consistency only. Negative quantities or prices are
// not rejected on their own; they fail only if the declared total disagrees
// with the computed sum. An empty items list with order_value 0 is valid.
// Malformed structure (items not a list, items missing sub-fields) is treated
// as invalid, never propagated.
func Order(raw map[string]interface{}) bool {
	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			log.Warn().Str("field", field).Msg("order missing required field")
			return false
		}
	}

	orderValue, ok := raw["order_value"].(float64)
	if !ok {
		log.Warn().
			Interface("order_id", raw["order_id"]).
			Interface("order_value", raw["order_value"]).
			Msg("order_value is not numeric")
		return false
	}

	items, ok := raw["items"].([]interface{})
	if !ok {
		log.Warn().Interface("order_id", raw["order_id"]).Msg("items is not a list")
		return false
	}

	sum, ok := itemSum(items)
	if !ok {
		log.Warn().Interface("order_id", raw["order_id"]).Msg("order has malformed items")
		return false
	}

	if round2(sum) != round2(orderValue) {
		log.Warn().
			Interface("order_id", raw["order_id"]).
			Float64("order_value", orderValue).
			Float64("computed_sum", sum).
			Msg("order_value does not match item sum")
		return false
	}

	return true
}

// itemSum computes sum(quantity * price_per_unit) over the raw items list.
// The empty list sums to 0.
func itemSum(items []interface{}) (float64, bool) {
	var sum float64
	for _, entry := range items {
		item, ok := entry.(map[string]interface{})
		if !ok {
			return 0, false
		}
		quantity, ok := item["quantity"].(float64)
		if !ok {
			return 0, false
		}
		price, ok := item["price_per_unit"].(float64)
		if !ok {
			return 0, false
		}
		sum += quantity * price
	}
	return sum, true
}

// round2 rounds to 2 decimal places, half away from zero. The fixed policy
// matches the producer side; both compared quantities go through it.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
