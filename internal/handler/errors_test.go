package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AlexZinkM/evm-wallet/internal/common"
	"github.com/AlexZinkM/evm-wallet/internal/keystore"
)

func TestStatusFor(t *testing.T) {
	nodeErr := &common.NodeError{Method: "eth_sendRawTransaction", Code: -32000, Message: "nonce too low"}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"key not found", fmt.Errorf("x: %w", common.ErrKeyNotFound), http.StatusNotFound, CodeKeyNotFound},
		{"amount", common.ErrInvalidAmount, http.StatusBadRequest, CodeInvalidAmount},
		{"address", common.ErrInvalidAddress, http.StatusBadRequest, CodeInvalidAddress},
		{"hash", common.ErrInvalidHash, http.StatusBadRequest, CodeInvalidHash},
		{"mnemonic", fmt.Errorf("recover: %w", keystore.ErrInvalidMnemonic), http.StatusBadRequest, CodeInvalidMnemonic},
		{"funds", common.ErrInsufficientFunds, http.StatusUnprocessableEntity, CodeInsufficientFunds},
		{"reverted", fmt.Errorf("%w: %w", common.ErrRejected, common.ErrReverted), http.StatusUnprocessableEntity, CodeReverted},
		{"chain", common.ErrChainMismatch, http.StatusBadGateway, CodeChainMismatch},
		{"rejected by node", fmt.Errorf("%w: %w", common.ErrRejected, nodeErr), http.StatusBadGateway, CodeNodeError},
		{"unreachable", fmt.Errorf("%w: %w", common.ErrRejected, common.ErrNetworkUnreachable), http.StatusServiceUnavailable, CodeUnreachable},
		{"timeout", fmt.Errorf("eth_getBalance: %w: %w", common.ErrTimeout, context.DeadlineExceeded), http.StatusGatewayTimeout, CodeTimeout},
		{"validation wins over cause", fmt.Errorf("%w: %w", common.ErrInvalidAddress, common.ErrNetworkUnreachable), http.StatusBadRequest, CodeInvalidAddress},
		{"other", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := statusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
