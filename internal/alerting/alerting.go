// Package alerting emails an operator when the gateway hits an error it
// cannot recover from on its own (send failures exhausting retries,
// async MDN timeouts, certificate problems). The message composition
// follows the teacher's smtp.Address/RFC822-header idiom, narrowed to a
// single plain-text notification instead of a full MIME client.
package alerting

import (
	"bytes"
	"fmt"
	"net/smtp"
	"time"

	"github.com/as2gw/gateway/internal/logging"
)

// Address is an RFC 5322 email address with an optional display name.
type Address struct {
	Name    string
	Address string
}

func (a Address) String() string {
	if a.Name == "" {
		return a.Address
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Address)
}

// SMTPConfig is the minimal connection info needed to relay a
// notification through an upstream mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     Address
}

// Notifier sends operator alerts. A zero-value SMTPConfig.Host disables
// delivery and Notify becomes a no-op, so alerting is optional wiring.
type Notifier struct {
	cfg SMTPConfig
}

func New(cfg SMTPConfig) *Notifier {
	return &Notifier{cfg: cfg}
}

// Notify sends a plain-text alert to recipients. subject/body describe
// the failure (typically the Message ID and the as2err.Kind that fired).
func (n *Notifier) Notify(recipients []string, subject, body string) error {
	if n.cfg.Host == "" || len(recipients) == 0 {
		return nil
	}
	log := logging.WithComponent("alerting")

	msg := buildMessage(n.cfg.From, recipients, subject, body)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, n.cfg.From.Address, recipients, msg); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to send alert email")
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	return nil
}

func buildMessage(from Address, to []string, subject, body string) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, "From", from.String())
	writeHeader(&buf, "To", joinAddresses(to))
	writeHeader(&buf, "Subject", subject)
	writeHeader(&buf, "Date", time.Now().Format(time.RFC1123Z))
	writeHeader(&buf, "MIME-Version", "1.0")
	writeHeader(&buf, "Content-Type", "text/plain; charset=utf-8")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func joinAddresses(addrs []string) string {
	var buf bytes.Buffer
	for i, a := range addrs {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(a)
	}
	return buf.String()
}
