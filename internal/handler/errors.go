package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/evm-wallet/internal/common"
	"github.com/AlexZinkM/evm-wallet/internal/keystore"
	"github.com/AlexZinkM/evm-wallet/internal/log"
	"github.com/AlexZinkM/evm-wallet/internal/model"
)

// Stable error codes of model.ErrorResponse.
const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeInvalidAmount     = "INVALID_AMOUNT"
	CodeInvalidAddress    = "INVALID_ADDRESS"
	CodeInvalidHash       = "INVALID_HASH"
	CodeInvalidMnemonic   = "INVALID_MNEMONIC"
	CodeKeyNotFound       = "KEY_NOT_FOUND"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeReverted          = "REVERTED"
	CodeChainMismatch     = "CHAIN_MISMATCH"
	CodeNodeError         = "NODE_ERROR"
	CodeUnreachable       = "NETWORK_UNREACHABLE"
	CodeTimeout           = "TIMEOUT"
	CodeRevealDisabled    = "REVEAL_DISABLED"
	CodeInternal          = "INTERNAL"
)

// statusFor maps a service error onto an HTTP status and error code.
// Order matters: a rejected transfer wraps the cause that rejected it.
func statusFor(err error) (int, string) {
	if common.IsValidationError(err) {
		return validationStatus(err)
	}
	switch {
	case errors.Is(err, keystore.ErrInvalidMnemonic):
		return http.StatusBadRequest, CodeInvalidMnemonic
	case errors.Is(err, common.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, CodeInsufficientFunds
	case errors.Is(err, common.ErrReverted):
		return http.StatusUnprocessableEntity, CodeReverted
	case errors.Is(err, common.ErrChainMismatch):
		return http.StatusBadGateway, CodeChainMismatch
	case errors.Is(err, common.ErrNetworkUnreachable):
		return http.StatusServiceUnavailable, CodeUnreachable
	case errors.Is(err, common.ErrTimeout):
		return http.StatusGatewayTimeout, CodeTimeout
	case errors.Is(err, common.ErrNodeError):
		return http.StatusBadGateway, CodeNodeError
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// validationStatus maps errors raised before any network call.
func validationStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrKeyNotFound):
		return http.StatusNotFound, CodeKeyNotFound
	case errors.Is(err, common.ErrInvalidAmount):
		return http.StatusBadRequest, CodeInvalidAmount
	case errors.Is(err, common.ErrInvalidAddress):
		return http.StatusBadRequest, CodeInvalidAddress
	default:
		return http.StatusBadRequest, CodeInvalidHash
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	if status >= http.StatusInternalServerError {
		log.API.Error().Err(err).Int("status", status).Str("code", code).Msg("Request failed")
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code})
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}
