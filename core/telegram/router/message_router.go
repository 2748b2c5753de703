package router

import (
	"time"

	tg "github.com/sylni/helpbot/core/telegram"
	"github.com/sylni/helpbot/core/telegram/commands"
	"github.com/sylni/helpbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Interceptor runs before the regular routing chain. It reports whether
// the update was consumed, stopping further dispatch.
type Interceptor func(c tele.Context) (bool, error)

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	// Intercept is checked first; operator reply delivery hooks in here.
	Intercept Interceptor
	// Operators gates operator-only commands reached as plain text.
	// The slash endpoints carry their own gate; this one covers the
	// bare command name arriving through OnText.
	Operators map[int64]struct{}
	// Primary receives text that is neither intercepted nor a command.
	Primary     tele.HandlerFunc
	UnknownText tele.HandlerFunc
}

// MediaOptions controls routing of non-text updates.
type MediaOptions struct {
	Intercept Interceptor
	// Primary receives every non-text message that was not intercepted.
	Primary tele.HandlerFunc
}

// mediaEndpoints lists the non-text update kinds the bot accepts.
var mediaEndpoints = []string{
	tele.OnPhoto,
	tele.OnDocument,
	tele.OnVideo,
	tele.OnVideoNote,
	tele.OnVoice,
	tele.OnAudio,
	tele.OnSticker,
	tele.OnContact,
	tele.OnLocation,
}

// TextRoutes builds the text dispatch chain: interceptor, then command
// lookup, then the primary handler, then fallbacks.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if opts.Intercept != nil {
			handled, err := opts.Intercept(c)
			if handled || err != nil {
				return handleWithSummary(c, "intercept", start, "", "", func() error {
					return err
				})
			}
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil && allowTextCommand(c, cmd, opts.Operators) {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if opts.Primary != nil {
			return handleWithSummary(c, "conversation", start, "", "", func() error {
				return opts.Primary(c)
			})
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
	}
}

// allowTextCommand reports whether a command reached as plain text may
// run for the sender. An operator-only command from anyone else is not
// a command at all; it falls through to the conversation as ordinary
// text.
func allowTextCommand(c tele.Context, cmd commands.Command, operators map[int64]struct{}) bool {
	if !cmd.OperatorOnly {
		return true
	}
	user := c.Sender()
	if user == nil {
		return false
	}
	_, ok := operators[user.ID]
	return ok
}

// MediaRoutes binds the media handler to every accepted non-text endpoint.
func MediaRoutes(reg *tg.Registry, opts MediaOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()

		if opts.Intercept != nil {
			handled, err := opts.Intercept(c)
			if handled || err != nil {
				return handleWithSummary(c, "intercept_media", start, "", "", func() error {
					return err
				})
			}
		}

		if opts.Primary != nil {
			return handleWithSummary(c, "conversation_media", start, "", "", func() error {
				return opts.Primary(c)
			})
		}

		if reg != nil {
			if fb := reg.MediaFallback(); fb != nil {
				return handleWithSummary(c, "media_fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		logHandlerSummary(c, "unexpected_media", start, "skip", "ok", nil)
		return nil
	}

	wrapped := middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler))
	routes := make([]tg.Route, 0, len(mediaEndpoints))
	for _, ep := range mediaEndpoints {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: wrapped})
	}
	return routes
}
