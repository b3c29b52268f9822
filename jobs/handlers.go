package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/festahub/festahub/internal/jobs"
)

// Mailer delivers a single mail message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewsPublisher promotes scheduled news whose publish time has passed.
type NewsPublisher interface {
	PublishDue(ctx context.Context) (int, error)
}

// Handlers bundles task handlers with their dependencies.
type Handlers struct {
	mailer  Mailer
	news    NewsPublisher
	metrics *jobmetrics.Metrics
	logger  *slog.Logger
}

// NewHandlers builds Handlers instance.
func NewHandlers(mailer Mailer, news NewsPublisher, metrics *jobmetrics.Metrics, logger *slog.Logger) *Handlers {
	return &Handlers{mailer: mailer, news: news, metrics: metrics, logger: logger}
}

// HandleSendMail processes TaskTypeSendMail tasks.
func (h *Handlers) HandleSendMail(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track(TaskTypeSendMail)
	var payload SendMailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("send mail payload", slog.Any("error", err))
		_ = tracker.End(err)
		return asynq.SkipRetry
	}
	if err := h.mailer.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
		h.logger.Error("send mail", slog.String("to", payload.To), slog.Any("error", err))
		return tracker.End(err)
	}
	h.logger.Info("mail sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return tracker.End(nil)
}

// HandleNewsPublishDue processes TaskTypeNewsPublishDue tasks.
func (h *Handlers) HandleNewsPublishDue(ctx context.Context, _ *asynq.Task) error {
	tracker := h.metrics.Track(TaskTypeNewsPublishDue)
	published, err := h.news.PublishDue(ctx)
	if err != nil {
		h.logger.Error("publish due news", slog.Any("error", err))
		return tracker.End(err)
	}
	if published > 0 {
		h.logger.Info("published scheduled news", slog.Int("count", published))
	}
	return tracker.End(nil)
}
