// Package worker runs the asynq consumers: notification delivery and the
// periodic retention sweep.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ayoubbns/document-control-api/internal/mailer"
	"github.com/ayoubbns/document-control-api/internal/queue"
	"github.com/ayoubbns/document-control-api/internal/services"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Processor handles queued background tasks.
type Processor struct {
	mail          *mailer.Mailer
	notifications *services.NotificationService
	archive       *services.ArchiveService
	logger        *zap.Logger
}

// NewProcessor creates a new Processor
func NewProcessor(mail *mailer.Mailer, notifications *services.NotificationService, archive *services.ArchiveService, logger *zap.Logger) *Processor {
	return &Processor{
		mail:          mail,
		notifications: notifications,
		archive:       archive,
		logger:        logger,
	}
}

// Mux registers the task handlers.
func (p *Processor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.SendNotificationTask, p.handleSendNotification)
	mux.HandleFunc(queue.RetentionSweepTask, p.handleRetentionSweep)
	return mux
}

// handleSendNotification delivers one recorded notification. Delivery failure
// is recorded on the row; the error is returned so asynq retries.
func (p *Processor) handleSendNotification(ctx context.Context, t *asynq.Task) error {
	var payload queue.NotificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal notification payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := p.mail.Send(payload.RecipientEmail, payload.Subject, payload.Message); err != nil {
		p.logger.Warn("notification delivery failed",
			zap.Uint64("notification_id", payload.NotificationID),
			zap.Error(err))
		if markErr := p.notifications.MarkDelivered(payload.NotificationID, false); markErr != nil {
			p.logger.Error("failed to record delivery failure", zap.Error(markErr))
		}
		return err
	}

	if err := p.notifications.MarkDelivered(payload.NotificationID, true); err != nil {
		p.logger.Error("failed to record delivery",
			zap.Uint64("notification_id", payload.NotificationID),
			zap.Error(err))
	}

	p.logger.Info("notification delivered",
		zap.Uint64("notification_id", payload.NotificationID))
	return nil
}

// handleRetentionSweep restores archived items past their retention deadline.
func (p *Processor) handleRetentionSweep(ctx context.Context, t *asynq.Task) error {
	if err := p.archive.ExpireRetention(); err != nil {
		return fmt.Errorf("retention sweep: %w", err)
	}
	return nil
}
