package ubi

import (
	"errors"
	"fmt"
)

// Stable numeric error codes shared with existing callers.
const (
	CodeNotAuthorized         uint32 = 100
	CodeInvalidAmount         uint32 = 101
	CodeInsufficientFunds     uint32 = 102
	CodeRecipientNotFound     uint32 = 103
	CodeAlreadyClaimed        uint32 = 104
	CodeNotEligible           uint32 = 105
	CodeVerificationPending   uint32 = 106
	CodeInvalidPeriod         uint32 = 107
	CodeProgramInactive       uint32 = 108
	CodeInvalidVerifier       uint32 = 109
	CodeDuplicateRegistration uint32 = 110
)

// Error is a rejection with a stable numeric code.
type Error struct {
	Code uint32
	Kind string
	msg  string
}

func (e *Error) Error() string { return "ubi: " + e.msg }

func newError(code uint32, kind, msg string) *Error {
	return &Error{Code: code, Kind: kind, msg: msg}
}

var (
	ErrNotAuthorized         = newError(CodeNotAuthorized, "NotAuthorized", "not authorized")
	ErrInvalidAmount         = newError(CodeInvalidAmount, "InvalidAmount", "invalid amount")
	ErrInsufficientFunds     = newError(CodeInsufficientFunds, "InsufficientFunds", "insufficient funds")
	ErrRecipientNotFound     = newError(CodeRecipientNotFound, "RecipientNotFound", "recipient not found")
	ErrAlreadyClaimed        = newError(CodeAlreadyClaimed, "AlreadyClaimed", "already claimed this period")
	ErrNotEligible           = newError(CodeNotEligible, "NotEligible", "not eligible")
	ErrVerificationPending   = newError(CodeVerificationPending, "VerificationPending", "verification pending")
	ErrInvalidPeriod         = newError(CodeInvalidPeriod, "InvalidPeriod", "invalid period")
	ErrProgramInactive       = newError(CodeProgramInactive, "ProgramInactive", "program inactive")
	ErrInvalidVerifier       = newError(CodeInvalidVerifier, "InvalidVerifier", "invalid verifier")
	ErrDuplicateRegistration = newError(CodeDuplicateRegistration, "DuplicateRegistration", "already registered")
)

// Boundary and wiring errors. These carry no numeric code.
var (
	ErrInputTooLong = errors.New("ubi: input exceeds declared bound")
	errNilState     = errors.New("ubi engine: state not configured")
	errNilLedger    = errors.New("ubi engine: account ledger not configured")
)

// CodeOf returns the numeric code carried by err, if any.
func CodeOf(err error) (uint32, bool) {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code, true
	}
	return 0, false
}

// KindOf returns the taxonomy name carried by err, or "" when err is not a
// coded rejection.
func KindOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Kind
	}
	return ""
}

func transferFailed(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
}
