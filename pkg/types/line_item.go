package types

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// LineItem is a single billed line on an invoice. Amounts are major-unit
// decimals; conversion to the gateway's smallest currency unit happens at the
// gateway boundary only.
type LineItem struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// MarshalLineItems serializes line items for the invoice's jsonb column.
func MarshalLineItems(items []LineItem) (json.RawMessage, error) {
	if len(items) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal line items: %w", err)
	}
	return raw, nil
}

// UnmarshalLineItems restores line items from the stored jsonb column.
func UnmarshalLineItems(raw json.RawMessage) ([]LineItem, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal line items: %w", err)
	}
	return items, nil
}
