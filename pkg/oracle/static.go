package oracle

import (
	"context"
	"regexp"
	"strings"
)

// StaticSafety screens content against a fixed term list. With an empty
// list it allows everything, which is the default wiring when no external
// moderation service is configured.
type StaticSafety struct {
	blocked []string
}

var _ SafetyVerifier = (*StaticSafety)(nil)

// NewStaticSafety builds a verifier over the given blocked terms. Terms
// are matched case-insensitively as substrings.
func NewStaticSafety(blocked []string) *StaticSafety {
	lowered := make([]string, 0, len(blocked))
	for _, term := range blocked {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			lowered = append(lowered, term)
		}
	}
	return &StaticSafety{blocked: lowered}
}

// VerifyMessage denies content containing any blocked term.
func (s *StaticSafety) VerifyMessage(_ context.Context, content string) (Verdict, error) {
	lowered := strings.ToLower(content)
	for _, term := range s.blocked {
		if strings.Contains(lowered, term) {
			return Deny("content matched blocked term"), nil
		}
	}
	return Allow, nil
}

// txHashPattern is the canonical transaction hash shape: 0x plus 64 hex
// characters.
var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// StaticPayments verifies payment evidence by shape alone: the sender
// address and a well-formed transaction hash must be present. It performs
// no on-chain lookup.
type StaticPayments struct{}

var _ PaymentVerifier = (*StaticPayments)(nil)

// NewStaticPayments returns the shape-only payment verifier.
func NewStaticPayments() *StaticPayments {
	return &StaticPayments{}
}

// VerifyPayment denies proofs with a missing sender or malformed hash.
func (s *StaticPayments) VerifyPayment(_ context.Context, proof PaymentProof) (Verdict, error) {
	if strings.TrimSpace(proof.FromAddress) == "" {
		return Deny("missing sender address"), nil
	}
	if !txHashPattern.MatchString(proof.TxHash) {
		return Deny("malformed transaction hash"), nil
	}
	return Allow, nil
}
