package chat

import (
	"context"
	"errors"

	apperrors "github.com/decoders-hk/centre-assistant-go/internal/errors"
	"github.com/decoders-hk/centre-assistant-go/internal/whatsapp"
)

// Respond answers a WhatsApp message. The sender's number is the session.
// Throttled parents get a notice instead of an error; invalid messages get
// no reply.
func (r *Router) Respond(ctx context.Context, in whatsapp.Inbound) (string, error) {
	resp, err := r.Handle(ctx, Request{Message: in.Text, SessionID: in.From})
	switch {
	case err == nil:
		return resp.Answer, nil
	case errors.Is(err, apperrors.ErrDailyLimitExceeded):
		return DailyLimited(resp.Lang), nil
	case errors.Is(err, apperrors.ErrRateLimitExceeded):
		return RateLimited(resp.Lang), nil
	case apperrors.IsInvalidInput(err):
		r.logger.WithError(err).Debug("Ignoring invalid WhatsApp message")
		return "", nil
	default:
		return "", err
	}
}
