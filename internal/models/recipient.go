package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Recipient detail types.
const (
	RecipientTypeCard    = "card"
	RecipientTypeAccount = "account"
	RecipientTypeWallet  = "wallet"
)

// RecipientDetails is the free-form recipient payload stored as JSONB. The
// "type" discriminator selects which other fields are required.
type RecipientDetails map[string]any

// Type returns the recipient type discriminator, or "" when absent.
func (d RecipientDetails) Type() string {
	return d.String("type")
}

// String returns the named field as a string, or "" when it is missing or
// not a string.
func (d RecipientDetails) String(key string) string {
	v, ok := d[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (d RecipientDetails) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

func (d *RecipientDetails) Scan(src any) error {
	if src == nil {
		*d = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RecipientDetails", src)
	}
	return json.Unmarshal(data, d)
}
