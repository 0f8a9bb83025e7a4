// Package smtpmail delivers plain-text mail through an SMTP submission server.
package smtpmail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mikey/clawtools/internal/ports"
	"go.uber.org/zap"
)

// Connection security modes
const (
	SecurityStartTLS = "starttls"
	SecurityTLS      = "tls"
	SecurityNone     = "none"
)

// ErrNotConfigured is returned when no server address is set
var ErrNotConfigured = errors.New("smtp.address is not configured")

// Sender implements ports.MailSender
type Sender struct {
	address  string
	username string
	password string
	security string
	logger   *zap.Logger
	now      func() time.Time
}

// NewSender creates a new SMTP sender
func NewSender(address, username, password, security string, logger *zap.Logger) *Sender {
	if security == "" {
		security = SecurityStartTLS
	}
	return &Sender{
		address:  address,
		username: username,
		password: password,
		security: security,
		logger:   logger,
		now:      time.Now,
	}
}

// BuildMessage renders m as a single-part text/plain RFC 5322 message
func BuildMessage(m ports.OutgoingMail, date time.Time) ([]byte, error) {
	from, err := mail.ParseAddress(m.From)
	if err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.From, err)
	}
	to := make([]*mail.Address, 0, len(m.To))
	for _, addr := range m.To {
		parsed, err := mail.ParseAddress(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", addr, err)
		}
		to = append(to, parsed)
	}

	var h mail.Header
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", to)
	h.SetSubject(m.Subject)
	h.SetDate(date)
	h.Set("MIME-Version", "1.0")
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := message.CreateWriter(&buf, h.Header)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}
	if _, err := w.Write([]byte(m.Body)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish message: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Sender) dial() (*smtp.Client, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	switch s.security {
	case SecurityNone:
		return smtp.Dial(s.address)
	case SecurityTLS:
		return smtp.DialTLS(s.address, tlsConfig)
	case SecurityStartTLS:
		return smtp.DialStartTLS(s.address, tlsConfig)
	}
	return nil, fmt.Errorf("unsupported smtp security %q", s.security)
}

// Send delivers m to every recipient in one transaction
func (s *Sender) Send(ctx context.Context, m ports.OutgoingMail) error {
	if s.address == "" {
		return ErrNotConfigured
	}
	if len(m.To) == 0 {
		return errors.New("no recipients")
	}

	data, err := BuildMessage(m, s.now())
	if err != nil {
		return err
	}

	c, err := s.dial()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer c.Close()

	if s.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", s.username, s.password)); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}
	if err := c.Mail(envelopeAddress(m.From), nil); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, to := range m.To {
		if err := c.Rcpt(envelopeAddress(to), nil); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", to, err)
		}
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("failed to start data: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		s.logger.Warn("Failed to send QUIT", zap.Error(err))
	}
	s.logger.Info("Sent mail", zap.Strings("to", m.To), zap.String("subject", m.Subject))
	return nil
}

// envelopeAddress strips a display name; the address was validated by BuildMessage
func envelopeAddress(addr string) string {
	if parsed, err := mail.ParseAddress(addr); err == nil {
		return parsed.Address
	}
	return addr
}
