package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AlexZinkM/evm-wallet/internal/common"
	"github.com/AlexZinkM/evm-wallet/internal/model"
	"github.com/AlexZinkM/evm-wallet/wallet"
)

// WalletService is what the handlers need from wallet.Service.
type WalletService interface {
	CreateWallet() (*model.CreateWalletResponse, error)
	RecoverWallet(mnemonic string) (*model.CreateWalletResponse, error)
	ListWallets(ctx context.Context) *model.WalletListResponse
	Balance(ctx context.Context, index int) (*model.BalanceResponse, error)
	RevealSecret(index int) (*model.SecretResponse, error)
	AddressQR(index int) (*model.QRResponse, error)
	Transfer(ctx context.Context, fromIndex int, recipient, amount string) (*model.TransferResponse, error)
	TransferBetween(ctx context.Context, fromIndex, toIndex int, amount string) (*model.TransferResponse, error)
	Lookup(ctx context.Context, hash string) (*model.LookupResponse, error)
	Submissions(req *model.SubmissionsRequest) (*model.SubmissionsResponse, error)
}

// WalletHandler holds the service and the reveal gate
type WalletHandler struct {
	svc         WalletService
	allowReveal bool
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(svc WalletService, allowReveal bool) *WalletHandler {
	return &WalletHandler{svc: svc, allowReveal: allowReveal}
}

// CreateWallet handles POST /wallets
// @Summary      Create wallet
// @Description  Generates a new key (from a fresh mnemonic unless KEY_MNEMONIC=false) and appends it to the in-memory registry
// @Tags         wallets
// @Produce      json
// @Success      201  {object}  model.CreateWalletResponse
// @Router       /wallets [post]
func (h *WalletHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.CreateWallet()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// RecoverWallet handles POST /wallets/recover
// @Summary      Recover wallet
// @Description  Re-derives a key from a BIP-39 mnemonic and appends it to the registry
// @Tags         wallets
// @Accept       json
// @Produce      json
// @Param        request  body      model.RecoverRequest  true  "Recovery phrase"
// @Success      201      {object}  model.CreateWalletResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /wallets/recover [post]
func (h *WalletHandler) RecoverWallet(w http.ResponseWriter, r *http.Request) {
	var req model.RecoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	resp, err := h.svc.RecoverWallet(req.Mnemonic)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListWallets handles GET /wallets
// @Summary      List wallets
// @Description  Lists every wallet with its balance; a failed balance read is reported per wallet
// @Tags         wallets
// @Produce      json
// @Success      200  {object}  model.WalletListResponse
// @Router       /wallets [get]
func (h *WalletHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListWallets(r.Context()))
}

// GetBalance handles GET /wallets/{index}/balance
// @Summary      Get wallet balance
// @Description  Gets the ETH balance, valued in PRICE_CURRENCY when configured
// @Tags         wallets
// @Produce      json
// @Param        index  path      int  true  "Wallet index"
// @Success      200    {object}  model.BalanceResponse
// @Failure      404    {object}  model.ErrorResponse
// @Failure      502    {object}  model.ErrorResponse
// @Router       /wallets/{index}/balance [get]
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	resp, err := h.svc.Balance(r.Context(), index)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetQR handles GET /wallets/{index}/qr
// @Summary      Get address QR code
// @Description  Returns the checksummed address and a base64 PNG QR code of it
// @Tags         wallets
// @Produce      json
// @Param        index  path      int  true  "Wallet index"
// @Success      200    {object}  model.QRResponse
// @Failure      404    {object}  model.ErrorResponse
// @Router       /wallets/{index}/qr [get]
func (h *WalletHandler) GetQR(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	resp, err := h.svc.AddressQR(index)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// RevealSecret handles POST /wallets/{index}/reveal
// @Summary      Reveal secret material
// @Description  Returns the private key and mnemonic of a wallet. Disabled unless API_ALLOW_REVEAL=true
// @Tags         wallets
// @Produce      json
// @Param        index  path      int  true  "Wallet index"
// @Success      200    {object}  model.SecretResponse
// @Failure      403    {object}  model.ErrorResponse
// @Failure      404    {object}  model.ErrorResponse
// @Router       /wallets/{index}/reveal [post]
func (h *WalletHandler) RevealSecret(w http.ResponseWriter, r *http.Request) {
	if !h.allowReveal {
		writeError(w, http.StatusForbidden, CodeRevealDisabled, errors.New("revealing secrets over the API is disabled"))
		return
	}
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	resp, err := h.svc.RevealSecret(index)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, resp)
}

// Transfer handles POST /transfers
// @Summary      Send ETH
// @Description  Builds, signs and broadcasts a transfer, then waits for confirmation. 202 means the confirmation budget ran out and the transaction may still be included
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Param        request  body      model.TransferRequest  true  "Transfer data"
// @Success      200      {object}  model.TransferResponse
// @Success      202      {object}  model.TransferResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      404      {object}  model.ErrorResponse
// @Failure      422      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Failure      503      {object}  model.ErrorResponse
// @Failure      504      {object}  model.ErrorResponse
// @Router       /transfers [post]
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req model.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	if (req.ToAddress == "") == (req.ToIndex == nil) {
		writeError(w, http.StatusBadRequest, CodeBadRequest, errors.New("exactly one of toAddress and toIndex must be set"))
		return
	}

	var (
		resp *model.TransferResponse
		err  error
	)
	if req.ToIndex != nil {
		resp, err = h.svc.TransferBetween(r.Context(), req.FromIndex, *req.ToIndex, req.Amount)
	} else {
		resp, err = h.svc.Transfer(r.Context(), req.FromIndex, req.ToAddress, req.Amount)
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case resp != nil && (errors.Is(err, common.ErrTimedOut) || errors.Is(err, wallet.ErrNotAwaited)):
		writeJSON(w, http.StatusAccepted, resp)
	default:
		writeServiceError(w, err)
	}
}

// Lookup handles GET /transactions/{hash}
// @Summary      Look up a transaction
// @Description  Reports confirmed, rejected, pending or unknown for any hash, with the local journal record when available
// @Tags         transactions
// @Produce      json
// @Param        hash  path      string  true  "Transaction hash"
// @Success      200   {object}  model.LookupResponse
// @Failure      400   {object}  model.ErrorResponse
// @Router       /transactions/{hash} [get]
func (h *WalletHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Lookup(r.Context(), r.PathValue("hash"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Submissions handles GET /transactions
// @Summary      List submitted transfers
// @Description  Lists journaled transfers with filtering, newest first
// @Tags         transactions
// @Produce      json
// @Param        state      query     string  false  "built, broadcasting, pending, confirmed, rejected or timed_out"
// @Param        address    query     string  false  "Sender or recipient address"
// @Param        txHash     query     string  false  "Transaction hash"
// @Param        from       query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to         query     string  false  "End date (YYYY-MM-DD)"
// @Param        minAmount  query     string  false  "Minimum amount in ETH"
// @Param        maxAmount  query     string  false  "Maximum amount in ETH"
// @Success      200  {object}  model.SubmissionsResponse
// @Failure      400  {object}  model.ErrorResponse
// @Router       /transactions [get]
func (h *WalletHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	var req model.SubmissionsRequest
	q := r.URL.Query()

	// Parse date parameters (YYYY-MM-DD)
	const dateLayout = "2006-01-02"
	if fromStr := q.Get("from"); fromStr != "" {
		t, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, errors.New("invalid from date: use YYYY-MM-DD (e.g. 2006-01-02)"))
			return
		}
		req.From = &t
	}
	if toStr := q.Get("to"); toStr != "" {
		t, err := time.Parse(dateLayout, toStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, errors.New("invalid to date: use YYYY-MM-DD (e.g. 2006-01-02)"))
			return
		}
		// End of day so filter is inclusive
		t = t.Add(24*time.Hour - time.Nanosecond)
		req.To = &t
	}

	for name, dst := range map[string]**string{
		"state":     &req.State,
		"address":   &req.Address,
		"txHash":    &req.TxHash,
		"minAmount": &req.MinAmount,
		"maxAmount": &req.MaxAmount,
	} {
		if v := q.Get(name); v != "" {
			*dst = &v
		}
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err)
		return
	}

	resp, err := h.svc.Submissions(&req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Errorf("invalid wallet index %q", raw))
		return 0, false
	}
	return index, true
}
