package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/medivet/vetcare-api/internal/model"
	"github.com/medivet/vetcare-api/internal/repository"
	"github.com/medivet/vetcare-api/pkg/clock"
	"github.com/medivet/vetcare-api/pkg/logger"
	"github.com/medivet/vetcare-api/pkg/messaging"
	"github.com/medivet/vetcare-api/pkg/metrics"
)

const eventDoseNotified = "dose.notified"

// Poller is the single recurring driver of notification delivery. The
// scheduler host runs it once a minute, single-flight; within a tick doses
// are processed sequentially.
//
// For every due dose the notification flag is committed BEFORE the dispatch
// call. The flag is the idempotency boundary: a crash between commit and
// dispatch loses at most one message, while the reverse order would
// double-message caretakers on crash. Keep this order.
type Poller struct {
	doses      repository.DoseRepository
	users      repository.UserRepository
	dispatcher *Dispatcher
	history    *History
	broker     messaging.Broker
	clock      clock.Clock
	grace      time.Duration
	adminPhone string
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

type PollerConfig struct {
	// Grace is how long past its scheduled time a dose must be before it is
	// considered due. Absorbs clock and poll-interval jitter.
	Grace time.Duration
	// AdminFallbackPhone receives admin notifications when no admin user with
	// a phone number exists.
	AdminFallbackPhone string
}

func NewPoller(
	doses repository.DoseRepository,
	users repository.UserRepository,
	dispatcher *Dispatcher,
	history *History,
	broker messaging.Broker,
	clk clock.Clock,
	cfg PollerConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) *Poller {
	if cfg.Grace <= 0 {
		cfg.Grace = 5 * time.Minute
	}
	return &Poller{
		doses:      doses,
		users:      users,
		dispatcher: dispatcher,
		history:    history,
		broker:     broker,
		clock:      clk,
		grace:      cfg.Grace,
		adminPhone: cfg.AdminFallbackPhone,
		logger:     log.WithComponent("poller"),
		metrics:    m,
	}
}

// History exposes the ledger for the health/status surface.
func (p *Poller) History() *History { return p.history }

// Run executes one poll tick. It never returns an error and never panics:
// per-dose failures are logged and skipped so the schedule always makes
// forward progress. Exactly one history record is appended per tick,
// including the empty case.
func (p *Poller) Run(ctx context.Context) {
	if p.metrics != nil {
		p.metrics.PollerTicks.Inc()
		timer := prometheus.NewTimer(p.metrics.TickDuration)
		defer timer.ObserveDuration()
	}

	now := p.clock.Now()
	due, err := p.doses.FindDue(ctx, now, p.grace)
	if err != nil {
		p.logger.Error(err, "failed to select due doses")
		p.history.Append(CheckRecord{Timestamp: now, PendingCount: 0})
		return
	}
	defer p.history.Append(CheckRecord{Timestamp: now, PendingCount: len(due)})

	if len(due) == 0 {
		p.logger.Debug("no doses due for notification")
		return
	}

	if p.metrics != nil {
		p.metrics.DueDosesFound.Add(float64(len(due)))
	}
	p.logger.Info("due doses found", "count", len(due))

	adminPhone := p.adminRecipient(ctx)
	for _, dose := range due {
		p.processDose(ctx, dose, adminPhone)
	}
}

// adminRecipient resolves the administrator phone once per tick. A missing
// admin account is tolerated; the caretaker send still happens.
func (p *Poller) adminRecipient(ctx context.Context) string {
	admin, err := p.users.GetAdmin(ctx)
	if err != nil || admin.Phone == "" {
		if err != nil {
			p.logger.Warn("no admin recipient available", "error", err.Error())
		}
		return p.adminPhone
	}
	return admin.Phone
}

// processDose handles one due dose. Any panic is caught and treated as a
// dispatch failure for this dose only.
func (p *Poller) processDose(ctx context.Context, dose *model.DueDose, adminPhone string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(fmt.Errorf("panic: %v", r), "dose processing failed",
				"dose_id", dose.DoseID.String())
		}
	}()

	// Claim the dose before any send. If the claim fails the dose stays
	// eligible for the next tick and nothing is dispatched now.
	if err := p.doses.MarkNotified(ctx, dose.DoseID); err != nil {
		p.logger.Error(err, "failed to mark dose notified", "dose_id", dose.DoseID.String())
		return
	}

	variables := templateVariables(dose)

	// Caretaker and admin sends are independent; either, both or neither
	// may succeed.
	if dose.CaretakerPhone != "" {
		if !p.dispatcher.Notify(ctx, dose.CaretakerPhone, variables) {
			p.logger.Warn("caretaker notification failed",
				"dose_id", dose.DoseID.String(),
				"caretaker", dose.CaretakerName)
		}
	}
	if adminPhone != "" && adminPhone != dose.CaretakerPhone {
		if !p.dispatcher.Notify(ctx, adminPhone, variables) {
			p.logger.Warn("admin notification failed", "dose_id", dose.DoseID.String())
		}
	}

	if p.broker != nil {
		if err := p.broker.Publish(ctx, "treatments", map[string]interface{}{
			"type":    eventDoseNotified,
			"dose_id": dose.DoseID,
		}); err != nil {
			p.logger.Warn("event publish failed", "event", eventDoseNotified, "error", err.Error())
		}
	}
}

// templateVariables builds the WhatsApp content-template slots: patient,
// drug, dosage, scheduled time, caretaker and the latest patient note.
func templateVariables(dose *model.DueDose) map[string]string {
	note := "N/A"
	if dose.LatestNote != nil && *dose.LatestNote != "" {
		note = *dose.LatestNote
	}
	caretaker := dose.CaretakerName
	if caretaker == "" {
		caretaker = "N/A"
	}
	return map[string]string{
		"1": dose.PatientName,
		"2": dose.Drug,
		"3": dose.Dosage,
		"4": dose.ScheduledTime.Format("15:04"),
		"5": caretaker,
		"6": note,
	}
}
