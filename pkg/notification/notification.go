package notification

// Sender delivers tracker events to an external service. Implementations
// must be safe for concurrent use.
type Sender interface {
	Name() string
	CanSend() bool
	Send(event string, details string) error
}

// noopSender is used when no service is configured.
type noopSender struct{}

func (noopSender) Name() string { return "noop" }

func (noopSender) CanSend() bool { return false }

func (noopSender) Send(_ string, _ string) error { return nil }

func NewNoopSender() Sender {
	return noopSender{}
}
