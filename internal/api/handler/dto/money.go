package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// money renders a decimal as a JSON number with two decimal places.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// rate renders an interest rate at the precision it was requested or stored with.
func rate(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func nullRate(d decimal.NullDecimal) *json.Number {
	if !d.Valid {
		return nil
	}
	n := rate(d.Decimal)
	return &n
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
