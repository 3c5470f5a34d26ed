package domain

import (
	"regexp"
	"strings"

	"github.com/joinsangha/storefront/pkg/apperr"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type ShippingInfo struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Validate enforces the required subset. Everything else stays free text.
func (s ShippingInfo) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"firstName", s.FirstName},
		{"lastName", s.LastName},
		{"email", s.Email},
		{"address", s.Address},
		{"city", s.City},
		{"postalCode", s.PostalCode},
		{"country", s.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperr.Validation(r.field, "is required")
		}
	}

	if !IsEmail(s.Email) {
		return apperr.Validation("email", "invalid email format")
	}
	return nil
}

func (s ShippingInfo) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}
