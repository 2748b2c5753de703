// Package errs defines the domain error taxonomy shared by the
// conversation engine, the message router, and the operator commands.
// Every type carries a stable code so handler summary logs can derive
// err_code without string matching.
package errs

import "fmt"

// ValidationError reports bad form input. It is recovered locally:
// the user is re-prompted and no state changes.
type ValidationError struct {
	// Notice is the user-visible validation message.
	Notice string
}

func (e *ValidationError) Error() string { return e.Notice }

// Code identifies the error class for structured logs.
func (e *ValidationError) Code() string { return "VALIDATION" }

// NotFoundError reports an unknown case id in operator commands or
// reply recovery.
type NotFoundError struct {
	CaseID string
}

func (e *NotFoundError) Error() string {
	if e.CaseID == "" {
		return "case not found"
	}
	return fmt.Sprintf("case %s not found", e.CaseID)
}

func (e *NotFoundError) Code() string { return "NOT_FOUND" }

// DeliveryError reports a failed outbound send to a single recipient.
// A broadcast continues past it; committed store mutations stay committed.
type DeliveryError struct {
	Recipient int64
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %d failed: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Code() string { return "DELIVERY" }

// AccessDeniedError reports an action attempted by or toward a blocked
// identity. It short-circuits before any state mutation or forwarding.
type AccessDeniedError struct {
	CaseID string
}

func (e *AccessDeniedError) Error() string {
	if e.CaseID == "" {
		return "access denied"
	}
	return fmt.Sprintf("access denied for case %s", e.CaseID)
}

func (e *AccessDeniedError) Code() string { return "ACCESS_DENIED" }
