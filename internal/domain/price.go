package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Price is a non-negative monetary amount with exactly two decimal places,
// stored as an integer number of cents. It marshals to JSON as a decimal
// string ("12.50") and accepts both string and numeric JSON input.
type Price int64

// MaxPrice bounds prices to five significant digits (999.99).
const MaxPrice Price = 99999

// ParsePrice parses a decimal string into a Price.
// At most two fractional digits are accepted; "5", "5.2" and "5.25" are all
// valid, "5.255" is not.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidPrice
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrInvalidPrice
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, ErrInvalidPrice
	}
	// strconv.ParseInt would accept a sign here, so "5.-5" must be caught
	// before padding.
	for i := 0; i < len(frac); i++ {
		if frac[i] < '0' || frac[i] > '9' {
			return 0, ErrInvalidPrice
		}
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidPrice
	}
	var f int64
	if frac != "00" {
		f, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, ErrInvalidPrice
		}
	}

	p := Price(w*100 + f)
	if p > MaxPrice {
		return 0, ErrInvalidPrice
	}
	return p, nil
}

// Cents returns the amount in cents.
func (p Price) Cents() int64 {
	return int64(p)
}

// String formats the price as a decimal with two fractional digits.
func (p Price) String() string {
	return fmt.Sprintf("%d.%02d", int64(p)/100, int64(p)%100)
}

// MarshalJSON encodes the price as a decimal string.
func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a price from either a JSON string or a JSON number.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParsePrice(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
