package notification

import (
	"context"
	"errors"

	"github.com/medivet/vetcare-api/internal/whatsapp"
	apperrors "github.com/medivet/vetcare-api/pkg/errors"
	"github.com/medivet/vetcare-api/pkg/logger"
	"github.com/medivet/vetcare-api/pkg/metrics"
)

// Dispatcher formats and sends a single notification through the messaging
// gateway. It reports success as a bool: configuration absence and transport
// failure both come back false and are never allowed to propagate into the
// poller loop.
type Dispatcher struct {
	gateway whatsapp.Gateway
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewDispatcher(gateway whatsapp.Gateway, log *logger.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		gateway: gateway,
		logger:  log.WithComponent("dispatcher"),
		metrics: m,
	}
}

func (d *Dispatcher) Notify(ctx context.Context, phone string, variables map[string]string) bool {
	if phone == "" {
		return false
	}

	err := d.gateway.Send(ctx, phone, variables)
	if errors.Is(err, whatsapp.ErrNotConfigured) {
		d.logger.Warn("whatsapp gateway not configured, skipping notification")
		return false
	}
	if err != nil {
		if d.metrics != nil {
			d.metrics.NotificationsFailed.Inc()
		}
		d.logger.Error(apperrors.DispatchFailure(phone, err), "notification dispatch failed")
		return false
	}

	if d.metrics != nil {
		d.metrics.NotificationsSent.Inc()
	}
	d.logger.Info("notification sent", "to", phone)
	return true
}
