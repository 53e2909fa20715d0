package phone

import "time"

// KeyLength is the number of trailing digits that identify a phone record.
const KeyLength = 10

// Key identifies a Record: the last 10 digits of a normalized number.
type Key string

// String returns the key as a plain string.
func (k Key) String() string {
	return string(k)
}

// Record represents a resolved phone number persisted by the service.
type Record struct {
	ID               int64     `json:"id"`
	Key              Key       `json:"key"`
	CountryCode      string    `json:"code"`
	LocalNumber      string    `json:"num"`
	Operator         string    `json:"operator"`
	PreviousOperator *string   `json:"old_operator,omitempty"`
	Region           string    `json:"region"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Fields holds the provider-supplied attributes used to create a Record.
type Fields struct {
	CountryCode      string
	LocalNumber      string
	Operator         string
	PreviousOperator *string
	Region           string
}

// Normalize returns only the decimal digits of raw, in their original order.
func Normalize(raw string) string {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	return string(digits)
}

// IsPlausible reports whether a normalized number has 10 or 11 digits.
// It does not check that the number exists or is reachable.
func IsPlausible(normalized string) bool {
	return len(normalized) == 10 || len(normalized) == 11
}

// KeyOf returns the record key for a normalized number.
// Callers are expected to check IsPlausible first.
func KeyOf(normalized string) Key {
	if len(normalized) <= KeyLength {
		return Key(normalized)
	}
	return Key(normalized[len(normalized)-KeyLength:])
}
