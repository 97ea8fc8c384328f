package validate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, payload string) map[string]interface{} {
	t.Helper()
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	return raw
}

func TestOrder_Valid(t *testing.T) {
	raw := decode(t, `{
		"order_id": "ORD1",
		"user_id": "U1",
		"order_value": 50.0,
		"items": [{"product_id": "P001", "quantity": 2, "price_per_unit": 25.0}]
	}`)
	assert.True(t, Order(raw))
}

func TestOrder_MultipleItems(t *testing.T) {
	raw := decode(t, `{
		"order_id": "ORD2",
		"user_id": "U1",
		"order_value": 109.97,
		"items": [
			{"product_id": "P001", "quantity": 3, "price_per_unit": 19.99},
			{"product_id": "P002", "quantity": 1, "price_per_unit": 50.00}
		]
	}`)
	assert.True(t, Order(raw))
}

func TestOrder_MissingRequiredFields(t *testing.T) {
	complete := `{
		"order_id": "ORD1",
		"user_id": "U1",
		"order_value": 50.0,
		"items": [{"product_id": "P001", "quantity": 2, "price_per_unit": 25.0}]
	}`
	for _, field := range []string{"order_id", "user_id", "order_value", "items"} {
		raw := decode(t, complete)
		delete(raw, field)
		assert.False(t, Order(raw), "missing %s should be invalid", field)
	}
}

func TestOrder_NonNumericOrderValue(t *testing.T) {
	cases := map[string]string{
		"string":       `"50.0"`,
		"empty string": `""`,
		"bool":         `true`,
		"null":         `null`,
		"object":       `{}`,
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			raw := decode(t, `{
				"order_id": "ORD1",
				"user_id": "U1",
				"order_value": `+value+`,
				"items": []
			}`)
			assert.False(t, Order(raw))
		})
	}
}

func TestOrder_ValueMismatch(t *testing.T) {
	raw := decode(t, `{
		"order_id": "ORD1",
		"user_id": "U1",
		"order_value": 99.0,
		"items": [{"product_id": "P001", "quantity": 2, "price_per_unit": 25.0}]
	}`)
	assert.False(t, Order(raw))
}

func TestOrder_EmptyItemsZeroValue(t *testing.T) {
	raw := decode(t, `{
		"order_id": "ORD1",
		"user_id": "U1",
		"order_value": 0,
		"items": []
	}`)
	assert.True(t, Order(raw))
}

func TestOrder_EmptyItemsNonZeroValue(t *testing.T) {
	raw := decode(t, `{
		"order_id": "ORD1",
		"user_id": "U1",
		"order_value": 10.0,
		"items": []
	}`)
	assert.False(t, Order(raw))
}

func TestOrder_RoundsToTwoDecimals(t *testing.T) {
	// 49.999 rounds to 50.00, matching the declared value.
	raw := decode(t, `{
		"order_id": "ORD1",
		"user_id": "U1",
		"order_value": 50.0,
		"items": [{"product_id": "P001", "quantity": 1, "price_per_unit": 49.999}]
	}`)
	assert.True(t, Order(raw))

	// 49.994 rounds to 49.99, which does not match 50.00.
	raw = decode(t, `{
		"order_id": "ORD1",
		"user_id": "U1",
		"order_value": 50.0,
		"items": [{"product_id": "P001", "quantity": 1, "price_per_unit": 49.994}]
	}`)
	assert.False(t, Order(raw))
}

func TestOrder_NegativeQuantityConsistent(t *testing.T) {
	// Sign constraints are not the validator's job: a refund-shaped order
	// whose declared value matches the computed sum passes.
	raw := decode(t, `{
		"order_id": "ORD1",
		"user_id": "U1",
		"order_value": -25.0,
		"items": [{"product_id": "P001", "quantity": -1, "price_per_unit": 25.0}]
	}`)
	assert.True(t, Order(raw))
}

func TestOrder_MalformedItems(t *testing.T) {
	cases := map[string]string{
		"items not a list": `{"order_id":"O","user_id":"U","order_value":1,"items":{"quantity":1}}`,
		"item not an object": `{"order_id":"O","user_id":"U","order_value":1,"items":["nope"]}`,
		"item missing quantity": `{"order_id":"O","user_id":"U","order_value":1,
			"items":[{"product_id":"P","price_per_unit":1.0}]}`,
		"item missing price": `{"order_id":"O","user_id":"U","order_value":1,
			"items":[{"product_id":"P","quantity":1}]}`,
		"non-numeric quantity": `{"order_id":"O","user_id":"U","order_value":1,
			"items":[{"product_id":"P","quantity":"1","price_per_unit":1.0}]}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			assert.False(t, Order(decode(t, payload)))
		})
	}
}
