package session

import (
	"go.uber.org/zap"

	"github.com/status-im/status-wallet-session-go/pkg/clipboard"
)

type Option func(*Controller)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithCopier replaces the default copier, which forwards clipboard writes and
// acknowledgements to the native host as signals.
func WithCopier(copier *clipboard.Copier) Option {
	return func(c *Controller) {
		c.copier = copier
	}
}

// WithSignalSender replaces signal.Send as the sink for state change notifications.
func WithSignalSender(send func(typ string, event interface{})) Option {
	return func(c *Controller) {
		c.send = send
	}
}
