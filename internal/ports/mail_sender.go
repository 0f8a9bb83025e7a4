package ports

import "context"

// OutgoingMail is a plain-text message to deliver
type OutgoingMail struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// MailSender defines the interface for delivering mail
type MailSender interface {
	Send(ctx context.Context, m OutgoingMail) error
}
