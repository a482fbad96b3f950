package billing

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

// ErrCardDeclined is the synthetic decline: any card number ending in "0000"
// is rejected. This stands in for a real network decline in the demo gateway.
var ErrCardDeclined = errors.New("Invalid card number")

// FieldError reports a malformed card field with a user-facing message.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

var (
	cardNumberRe = regexp.MustCompile(`^\d{16}$`)
	cvvRe        = regexp.MustCompile(`^\d{3}$`)
	pinRe        = regexp.MustCompile(`^\d{4}$`)
)

// ValidateCard checks card number / cvv / pin format and applies the
// synthetic decline rule. Pure and deterministic.
func ValidateCard(cardNumber, cvv, pin string) error {
	if !cardNumberRe.MatchString(cardNumber) {
		return &FieldError{Field: "cardNumber", Message: "Card number must be 16 digits"}
	}
	if !cvvRe.MatchString(cvv) {
		return &FieldError{Field: "cvv", Message: "CVV must be 3 digits"}
	}
	if !pinRe.MatchString(pin) {
		return &FieldError{Field: "pin", Message: "PIN must be 4 digits"}
	}
	if cardNumber[len(cardNumber)-4:] == "0000" {
		return ErrCardDeclined
	}
	return nil
}

// CardExpired compares (expiryYear, expiryMonth) against now, two-digit
// years. The current month is still valid; anything strictly before it is
// expired.
func CardExpired(expiryMonth, expiryYear string, now time.Time) (bool, error) {
	expMonth, err := strconv.Atoi(expiryMonth)
	if err != nil || expMonth < 1 || expMonth > 12 {
		return false, &FieldError{Field: "expiryMonth", Message: "Invalid month"}
	}
	expYear, err := strconv.Atoi(expiryYear)
	if err != nil {
		return false, &FieldError{Field: "expiryYear", Message: "Invalid year"}
	}

	curYear := now.Year() % 100
	curMonth := int(now.Month())

	if expYear < curYear || (expYear == curYear && expMonth < curMonth) {
		return true, nil
	}
	return false, nil
}

// LastFour returns the trailing four digits used on receipts.
func LastFour(cardNumber string) string {
	if len(cardNumber) < 4 {
		return cardNumber
	}
	return cardNumber[len(cardNumber)-4:]
}
