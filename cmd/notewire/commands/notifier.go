package commands

import (
	"github.com/sirupsen/logrus"

	"notewire/internal/domain"
)

// printNotifier renders engine events on the CLI log. The switch is
// exhaustive over the closed event set in the domain package.
type printNotifier struct {
	log *logrus.Logger
}

func (n *printNotifier) Notify(ev domain.Event) {
	switch ev := ev.(type) {
	case domain.IdentityStatusChanged:
		entry := n.log.WithField("status", ev.Status)
		if ev.PublicKey != "" {
			entry = entry.WithField("publicKey", ev.PublicKey)
		}
		if ev.Err != "" {
			entry.WithField("error", ev.Err).Warn("identity")
			return
		}
		entry.Info("identity")
	case domain.ConnectionStatusChanged:
		n.log.WithField("status", ev.Status).Info("relay pool")
	case domain.PublishResult:
		if ev.Err != "" {
			n.log.WithField("note", ev.NoteID).WithField("error", ev.Err).Warn("publish failed")
			return
		}
		n.log.WithField("note", ev.NoteID).WithField("message", ev.MessageID).Info("published")
	case domain.RetractResult:
		if ev.Err != "" {
			n.log.WithField("note", ev.NoteID).WithField("error", ev.Err).Warn("retraction failed")
			return
		}
		n.log.WithField("note", ev.NoteID).Info("retracted")
	case domain.MessageReceived:
		n.log.WithField("endpoint", ev.Endpoint).WithField("kind", ev.Message.Kind).Debug("message")
	case domain.EndOfStored:
		n.log.WithField("endpoint", ev.Endpoint).Debug("end of stored messages")
	}
}

var _ domain.Notifier = (*printNotifier)(nil)
