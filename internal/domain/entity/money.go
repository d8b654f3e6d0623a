package entity

import "github.com/shopspring/decimal"

// Los montos se serializan como números JSON ({"rate": 15}), no como strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
