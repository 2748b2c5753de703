package middleware

import (
	"github.com/sylni/helpbot/core/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Allower is the counting limiter interface used by the middleware.
type Allower interface {
	Allow(senderID int64) bool
}

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Limiter Allower
	// Exempt lists sender IDs that bypass limiting entirely.
	Exempt    map[int64]struct{}
	OnLimited tele.HandlerFunc
}

// RateLimitMiddleware returns a middleware that counts messages per
// sender and silences senders above the configured volume.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Limiter == nil {
				return next(c)
			}
			if _, exempt := opts.Exempt[user.ID]; exempt {
				return next(c)
			}
			if opts.Limiter.Allow(user.ID) {
				return next(c)
			}

			attrs := []slog.Attr{
				slog.String("event", "tg.rate_limit"),
				slog.Int64("user_id", user.ID),
			}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.Int64("chat_id", chat.ID))
			}
			logger.TG.LogAttrs(logger.Background(), slog.LevelWarn, "rate limit", attrs...)

			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
