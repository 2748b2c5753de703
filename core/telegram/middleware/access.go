package middleware

import tele "gopkg.in/telebot.v4"

// OperatorOptions defines how operator-only checks should behave.
type OperatorOptions struct {
	Operators map[int64]struct{}
	OnReject  tele.HandlerFunc
}

// IsOperator reports whether the sender belongs to the operator allowlist.
func (o OperatorOptions) IsOperator(id int64) bool {
	_, ok := o.Operators[id]
	return ok
}

// WithOperatorCheck wraps a command handler enforcing operator-only execution when required.
func WithOperatorCheck(opts OperatorOptions, cmd struct {
	OperatorOnly bool
	Handler      tele.HandlerFunc
}) tele.HandlerFunc {
	if !cmd.OperatorOnly || len(opts.Operators) == 0 {
		return cmd.Handler
	}
	return func(c tele.Context) error {
		if !opts.IsOperator(c.Sender().ID) {
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
		return cmd.Handler(c)
	}
}

// OperatorOnlyMiddleware ensures that only listed operators can invoke downstream handlers.
func OperatorOnlyMiddleware(opts OperatorOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if len(opts.Operators) != 0 && !opts.IsOperator(c.Sender().ID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
