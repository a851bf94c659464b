// Package alert delivers structured engine events to an external webhook.
package alert

import (
	"context"
	"log/slog"
	"time"

	"arb_go/internal/domain"

	"github.com/go-resty/resty/v2"
)

// Webhook posts alerts as JSON to a configured URL. Delivery is best
// effort: failures are logged and never block the engine loop.
type Webhook struct {
	url    string
	http   *resty.Client
	logger *slog.Logger
}

// NewWebhook creates a webhook sink. An empty URL yields a sink that only
// logs, which keeps call sites unconditional.
func NewWebhook(url string, timeout time.Duration, logger *slog.Logger) *Webhook {
	return &Webhook{
		url:    url,
		http:   resty.New().SetTimeout(timeout).SetRetryCount(1),
		logger: logger,
	}
}

// Notify sends one alert. Implements domain.AlertSink.
func (w *Webhook) Notify(ctx context.Context, a domain.Alert) {
	w.logger.Info("alert",
		slog.String("kind", a.Kind),
		slog.String("symbol", a.Symbol),
		slog.String("direction", a.Direction),
		slog.String("qty", a.Qty.String()),
		slog.String("detail", a.Detail))

	if w.url == "" {
		return
	}

	resp, err := w.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(a).
		Post(w.url)
	if err != nil {
		w.logger.Warn("alert delivery failed", slog.Any("error", err))
		return
	}
	if resp.IsError() {
		w.logger.Warn("alert webhook rejected", slog.Int("status", resp.StatusCode()))
	}
}
