package api

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/AlexZinkM/evm-wallet/docs"
	"github.com/AlexZinkM/evm-wallet/internal/handler"
	"github.com/AlexZinkM/evm-wallet/internal/log"
)

// SetupRouter sets up router with handlers
func SetupRouter(svc handler.WalletService, allowReveal bool) http.Handler {
	walletHandler := handler.NewWalletHandler(svc, allowReveal)

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Wallet endpoints
	mux.HandleFunc("GET /wallets", walletHandler.ListWallets)
	mux.HandleFunc("POST /wallets", walletHandler.CreateWallet)
	mux.HandleFunc("POST /wallets/recover", walletHandler.RecoverWallet)
	mux.HandleFunc("GET /wallets/{index}/balance", walletHandler.GetBalance)
	mux.HandleFunc("GET /wallets/{index}/qr", walletHandler.GetQR)
	mux.HandleFunc("POST /wallets/{index}/reveal", walletHandler.RevealSecret)

	// Transfer endpoints
	mux.HandleFunc("POST /transfers", walletHandler.Transfer)
	mux.HandleFunc("GET /transactions", walletHandler.Submissions)
	mux.HandleFunc("GET /transactions/{hash}", walletHandler.Lookup)

	return logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests writes one access line per request. Bodies are never logged.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.API.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request")
	})
}
