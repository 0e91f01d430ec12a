// Package oracle defines the verification seams the core consults before
// accepting human-originated writes: content safety for messages and
// payment verification for paid directives. Implementations that call
// external services plug in behind these interfaces; the static
// implementations in this package decide from the input alone.
package oracle

import "context"

// Verdict is the outcome of a verification check. Reason is set only
// when Allowed is false.
type Verdict struct {
	Allowed bool
	Reason  string
}

// Allow is the positive verdict.
var Allow = Verdict{Allowed: true}

// Deny builds a negative verdict with the given reason.
func Deny(reason string) Verdict {
	return Verdict{Allowed: false, Reason: reason}
}

// SafetyVerifier screens human-submitted message content before it enters
// the message ring. An error means the check itself failed and the caller
// should reject the write rather than fail open.
type SafetyVerifier interface {
	VerifyMessage(ctx context.Context, content string) (Verdict, error)
}

// PaymentProof is the caller-supplied evidence for a paid directive.
type PaymentProof struct {
	FromAddress string
	TxHash      string
}

// PaymentVerifier checks the payment evidence attached to a directive.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, proof PaymentProof) (Verdict, error)
}
