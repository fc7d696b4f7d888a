package rpc

import (
	"errors"
	"log/slog"

	"ubichain/native/ubi"
)

// RejectionData is attached to errors raised by ledger rule checks.
type RejectionData struct {
	Code uint32 `json:"code"`
	Kind string `json:"kind"`
}

func invalidParams(message string) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: message}
}

// engineError maps ledger failures onto JSON-RPC errors. Coded rejections
// keep their numeric code in data; anything else is an internal failure.
func (s *Server) engineError(method string, err error) *RPCError {
	var coded *ubi.Error
	switch {
	case errors.As(err, &coded):
		return &RPCError{
			Code:    codeRejected,
			Message: err.Error(),
			Data:    RejectionData{Code: coded.Code, Kind: coded.Kind},
		}
	case errors.Is(err, ubi.ErrInputTooLong):
		return &RPCError{Code: codeInvalidParams, Message: err.Error()}
	default:
		s.logger.Error("rpc handler failed",
			slog.String("method", method),
			slog.Any("error", err))
		return &RPCError{Code: codeServerError, Message: "internal error"}
	}
}
