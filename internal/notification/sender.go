// Package notification delivers invitation emails and SMS messages.
package notification

import "context"

// Sender delivers messages to a single recipient. Both methods may fail and
// callers decide how to compensate.
type Sender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, message string) error
}

// Dispatcher combines an email channel and an SMS channel into a Sender.
type Dispatcher struct {
	Email EmailChannel
	SMS   SMSChannel
}

type EmailChannel interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

type SMSChannel interface {
	Send(ctx context.Context, to, message string) error
}

func NewDispatcher(email EmailChannel, sms SMSChannel) *Dispatcher {
	return &Dispatcher{Email: email, SMS: sms}
}

func (d *Dispatcher) SendEmail(ctx context.Context, to, subject, body string) error {
	return d.Email.Send(ctx, []string{to}, subject, body)
}

func (d *Dispatcher) SendSMS(ctx context.Context, to, message string) error {
	return d.SMS.Send(ctx, to, message)
}
