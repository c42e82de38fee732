package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/breakout/backend/internal/api/handlers"
	"github.com/wonny/breakout/backend/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(
	watchlistHandler *handlers.WatchlistHandler,
	signalsHandler *handlers.SignalsHandler,
	tradingHandler *handlers.TradingHandler,
	scannerHandler *handlers.ScannerHandler,
	backtestHandler *handlers.BacktestHandler,
	streamHandler *handlers.StreamHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", rootHandler).Methods("GET")
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	r.HandleFunc("/ws/alerts", streamHandler.Alerts).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Watchlist endpoints
	api.HandleFunc("/watchlist", watchlistHandler.GetWatchlist).Methods("GET")
	api.HandleFunc("/watchlist/fixed", watchlistHandler.GetFixed).Methods("GET")
	api.HandleFunc("/watchlist/dynamic", watchlistHandler.GetDynamic).Methods("GET")
	api.HandleFunc("/watchlist/sectors", watchlistHandler.GetSectors).Methods("GET")

	// Signal endpoints
	api.HandleFunc("/signals/today", signalsHandler.GetToday).Methods("GET")
	api.HandleFunc("/signals/recent", signalsHandler.GetRecent).Methods("GET")

	// Paper trading endpoints
	api.HandleFunc("/paper-trading/positions", tradingHandler.GetPositions).Methods("GET")
	api.HandleFunc("/paper-trading/closed", tradingHandler.GetClosed).Methods("GET")
	api.HandleFunc("/paper-trading/stats", tradingHandler.GetStats).Methods("GET")
	api.HandleFunc("/paper-trading/monthly", tradingHandler.GetMonthly).Methods("GET")

	// Scanner endpoints
	api.HandleFunc("/scanner/status", scannerHandler.GetStatus).Methods("GET")
	api.HandleFunc("/market/status", scannerHandler.GetMarketStatus).Methods("GET")

	// Backtest endpoints
	api.HandleFunc("/backtest/results", backtestHandler.GetResults).Methods("GET")
	api.HandleFunc("/backtest/stats", backtestHandler.GetStats).Methods("GET")
	api.HandleFunc("/backtest/patterns", backtestHandler.GetPatterns).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	// CORS wraps the router itself so preflight requests short-circuit
	// before route matching
	return corsMiddleware(r)
}

// rootHandler identifies the service
func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "O'Neil Breakout API",
		"status":  "running",
	})
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

// corsMiddleware allows the known frontend origins with credentials
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")

		origin := r.Header.Get("Origin")
		if origin != "" && handlers.AllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
