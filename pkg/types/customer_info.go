package types

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// CustomerInfo is the contact snapshot captured on an order at creation time.
type CustomerInfo struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Address string  `json:"address,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

// IsZero reports whether no contact data was supplied.
func (c CustomerInfo) IsZero() bool {
	return strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.Phone) == ""
}

// Value serializes the snapshot to JSON text.
func (c CustomerInfo) Value() (driver.Value, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes the JSONB snapshot.
func (c *CustomerInfo) Scan(value interface{}) error {
	if value == nil {
		*c = CustomerInfo{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, c)
}
