package alert

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/yungbote/summit-backend/internal/pkg/ctxutil"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
	"github.com/yungbote/summit-backend/internal/platform/sendgrid"
)

type Email struct {
	sg    sendgrid.Client
	to    []sendgrid.EmailAddress
	log   *logger.Logger
	limit *limiter
}

func NewEmail(log *logger.Logger, sg sendgrid.Client, to []string, minInterval time.Duration) *Email {
	if sg == nil {
		return nil
	}
	addrs := make([]sendgrid.EmailAddress, 0, len(to))
	for _, addr := range to {
		if addr = strings.TrimSpace(addr); addr != "" {
			addrs = append(addrs, sendgrid.EmailAddress{Email: addr})
		}
	}
	if len(addrs) == 0 {
		return nil
	}
	return &Email{sg: sg, to: addrs, log: log.With("alerter", "email"), limit: newLimiter(minInterval)}
}

func (e *Email) Alert(ctx context.Context, a Alert) {
	if e == nil || !e.limit.allow(a.Title) {
		return
	}
	text, err := json.MarshalIndent(enrich(ctx, a), "", "  ")
	if err != nil {
		e.log.Warn("alert payload encode failed", "error", err, "title", a.Title)
		return
	}
	_, err = e.sg.Send(ctxutil.Detached(ctx), sendgrid.SendEmailRequest{
		To:         e.to,
		Subject:    "[summit] " + strings.TrimSpace(a.Title),
		Text:       string(text),
		Categories: []string{"ops-alert"},
	})
	if err != nil {
		countAlert("email", "error")
		e.log.Warn("alert email failed", "error", err, "title", a.Title)
		return
	}
	countAlert("email", "sent")
}
