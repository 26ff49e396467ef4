package notify

import "github.com/rs/zerolog"

// Sender is the outbound messaging collaborator. Delivery, retries and
// templating live on the other side of this interface.
type Sender interface {
	Send(recipient, subject, body string) error
}

// LogSender writes the message to the log instead of delivering it. It is
// the default wiring when no mail provider is configured.
type LogSender struct {
	Log zerolog.Logger
}

func (s LogSender) Send(recipient, subject, body string) error {
	s.Log.Info().
		Str("recipient", recipient).
		Str("subject", subject).
		Str("body", body).
		Msg("notification (log sender)")
	return nil
}
