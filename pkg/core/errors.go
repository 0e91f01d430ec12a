package core

import (
	"errors"
	"fmt"
	"strings"
)

// Code is the machine-readable reason attached to every operation error.
type Code string

// Input shape codes.
const (
	CodeInvalidName     Code = "invalid_name"
	CodeNameRequired    Code = "name_required"
	CodeNameTaken       Code = "name_taken"
	CodeCodeRequired    Code = "code_required"
	CodeInvalidSlot     Code = "invalid_slot"
	CodeInvalidJSON     Code = "invalid_json"
	CodeMessageRequired Code = "message_required"
)

// Authorization codes.
const (
	CodeUnauthorized Code = "unauthorized"
	CodeNotOwner     Code = "not_owner"
)

// Policy and quota codes.
const (
	CodeCooldown             Code = "cooldown"
	CodeMaxPlacementsReached Code = "max_placements_reached"
	CodeMaxSessionsReached   Code = "max_sessions_reached"
	CodeRateLimited          Code = "rate_limited"
)

// State precondition codes.
const (
	CodeSessionNotFound         Code = "session_not_found"
	CodeNotInSession            Code = "not_in_session"
	CodePlacementNotFound       Code = "placement_not_found"
	CodeAgentNotFound           Code = "agent_not_found"
	CodeMovementInProgress      Code = "movement_in_progress"
	CodeAlreadyAtDestination    Code = "already_at_destination"
	CodeInvalidHoldSeconds      Code = "invalid_hold_seconds"
	CodePresenceStateDisallowed Code = "presence_state_disallowed"
	CodeSystemStateDisallowed   Code = "system_state_disallowed"
	CodePresenceDurationTooLong Code = "presence_duration_too_long"
	CodeInvalidReason           Code = "invalid_reason"
	CodeInvalidPosition         Code = "invalid_position"
	CodeLegacyActionType        Code = "legacy_action_type"
	CodeUnknownAction           Code = "unknown_action"
	CodeInvalidInstrument       Code = "invalid_instrument"
	CodeInvalidSessionType      Code = "invalid_session_type"
)

// Ritual codes.
const (
	CodeNotInNominatePhase  Code = "not_in_nominate_phase"
	CodeNotInVotePhase      Code = "not_in_vote_phase"
	CodeBPMOrKeyRequired    Code = "bpm_or_key_required"
	CodeAlreadyNominatedBPM Code = "already_nominated_bpm"
	CodeAlreadyNominatedKey Code = "already_nominated_key"
	CodeAlreadyVotedBPM     Code = "already_voted_bpm"
	CodeAlreadyVotedKey     Code = "already_voted_key"
	CodeInvalidBPMCandidate Code = "invalid_bpm_candidate"
	CodeInvalidKeyCandidate Code = "invalid_key_candidate"
	CodeCannotVoteOwnBPM    Code = "cannot_vote_own_bpm"
	CodeCannotVoteOwnKey    Code = "cannot_vote_own_key"
)

// Validation and oracle codes.
const (
	CodeValidationFailed  Code = "validation_failed"
	CodeContentRejected   Code = "content_rejected"
	CodePaymentUnverified Code = "payment_unverified"
)

// Error is the operation error value: a short machine code, a human
// message, and optional structured detail. RetryAfter is set only for
// cooldown and rate-limit errors, Details only for validation failures.
type Error struct {
	Code       Code
	Message    string
	RetryAfter float64
	Details    []string
}

func (e *Error) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a plain coded error.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf builds a plain coded error with a formatted message.
func NewErrorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewCooldownError reports a write blocked by a per-agent cooldown.
func NewCooldownError(retryAfter float64) *Error {
	return &Error{
		Code:       CodeCooldown,
		Message:    "cooldown active",
		RetryAfter: retryAfter,
	}
}

// NewRateLimitError reports a write blocked by the human rate limit.
func NewRateLimitError(retryAfter float64) *Error {
	return &Error{
		Code:       CodeRateLimited,
		Message:    "rate limit active",
		RetryAfter: retryAfter,
	}
}

// NewValidationError reports rejected content with one detail per broken
// rule.
func NewValidationError(details []string) *Error {
	return &Error{
		Code:    CodeValidationFailed,
		Message: "validation failed",
		Details: details,
	}
}

// CodeOf extracts the machine code from an error, or empty when the error
// is not a core Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
