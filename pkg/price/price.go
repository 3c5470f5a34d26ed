// Package price turns the catalogue's human-readable prices ("$15/bag (1 lb)")
// into amounts that can be summed.
package price

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var dollarAmount = regexp.MustCompile(`\$([\d.]+)`)

// Parse returns the first dollar amount found in raw, or zero when there is none.
// Malformed input never errors.
func Parse(raw string) decimal.Decimal {
	m := dollarAmount.FindStringSubmatch(raw)
	if m == nil {
		return decimal.Zero
	}
	return leadingDecimal(m[1])
}

// leadingDecimal keeps the longest prefix of s that is a valid decimal,
// so "12.50.3" reads as 12.50.
func leadingDecimal(s string) decimal.Decimal {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		if j := strings.IndexByte(s[i+1:], '.'); j >= 0 {
			s = s[:i+1+j]
		}
	}
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return decimal.Zero
	}
	if s[0] == '.' {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Value is a price as clients send it: a display string kept verbatim, or a bare number.
type Value struct {
	raw    string
	number *decimal.Decimal
}

func FromString(raw string) Value {
	return Value{raw: raw}
}

func FromNumber(n decimal.Decimal) Value {
	return Value{number: &n}
}

// Amount resolves the value. Numbers are returned as-is.
func (v Value) Amount() decimal.Decimal {
	if v.number != nil {
		return *v.number
	}
	return Parse(v.raw)
}

func (v Value) IsNumber() bool {
	return v.number != nil
}

// String returns the display form.
func (v Value) String() string {
	if v.number != nil {
		return v.number.String()
	}
	return v.raw
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.number != nil {
		return []byte(v.number.String()), nil
	}
	return json.Marshal(v.raw)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = Value{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FromString(s)
		return nil
	}

	n, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("price must be a string or a number: %w", err)
	}
	*v = FromNumber(n)
	return nil
}
