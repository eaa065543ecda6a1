// Package handover notifies human advisers when a conversation is handed over.
package handover

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"mortgage-qualification-engine/internal/metrics"
	"mortgage-qualification-engine/internal/models"
)

// Reasons attached to a lead.
const (
	ReasonRecommended = "packages_recommended"
	ReasonNoMatch     = "no_matching_packages"
)

// Notifier delivers a lead to an adviser channel.
type Notifier interface {
	Channel() string
	Notify(ctx context.Context, lead models.Lead) error
}

// Multi fans a lead out to several notifiers and joins their errors.
type Multi struct {
	notifiers []Notifier
	logger    *zap.Logger
}

// NewMulti creates a fan-out notifier. Nil entries are skipped.
func NewMulti(logger *zap.Logger, notifiers ...Notifier) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Multi{logger: logger}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Channel implements Notifier.
func (m *Multi) Channel() string {
	return "multi"
}

// Len returns the number of configured channels.
func (m *Multi) Len() int {
	return len(m.notifiers)
}

// Notify sends the lead to every channel, continuing past failures.
func (m *Multi) Notify(ctx context.Context, lead models.Lead) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, lead); err != nil {
			metrics.HandoverNotifications.WithLabelValues(n.Channel(), "error").Inc()
			m.logger.Warn("Handover notification failed",
				zap.String("channel", n.Channel()),
				zap.String("session_id", lead.SessionID),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		metrics.HandoverNotifications.WithLabelValues(n.Channel(), "sent").Inc()
	}
	return errors.Join(errs...)
}
