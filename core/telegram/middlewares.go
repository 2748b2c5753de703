package telegram

import (
	coreconfig "github.com/sylni/helpbot/core/config"
	"github.com/sylni/helpbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared middleware chain for bots.
// Operators bypass the rate limiter.
func DefaultMiddlewares(cfg *coreconfig.Config, limiter middleware.Allower, onLimited func(tele.Context) error) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if limiter != nil {
		opts := middleware.RateLimitOptions{Limiter: limiter}
		if cfg != nil {
			opts.Exempt = make(map[int64]struct{}, len(cfg.Telegram.Operators))
			for _, id := range cfg.Telegram.Operators {
				opts.Exempt[id] = struct{}{}
			}
		}
		if onLimited != nil {
			opts.OnLimited = onLimited
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use:  middleware.RateLimitMiddleware(opts),
		})
	}

	mws = append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)

	return mws
}
