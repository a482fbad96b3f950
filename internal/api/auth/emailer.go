package auth

import (
	"fmt"
	"net/smtp"
	"os"

	"github.com/rs/zerolog/log"
)

// SendReceiptEmail sends a purchase confirmation. Best effort: callers fire
// it in a goroutine and the purchase stands regardless of the outcome.
func SendReceiptEmail(to string, transactionID string, amount float64) error {
	from := os.Getenv("SMTP_FROM")
	password := os.Getenv("SMTP_PASSWORD")
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")

	if host == "" {
		return nil
	}

	auth := smtp.PlainAuth("", from, password, host)

	subject := "Your CourseHaven Receipt"
	body := fmt.Sprintf("Thanks for your purchase!\n\nTransaction ID: %s\nAmount: %.2f\n", transactionID, amount)

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	err := smtp.SendMail(host+":"+port, auth, from, []string{to}, message)
	if err != nil {
		log.Error().Err(err).Str("to", to).Msg("receipt email failed")
	}
	return err
}
