// File: internal/infra/web/server.go
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"digital-checkout/internal/domain/ports/adapter"
	"digital-checkout/internal/domain/ports/repository"
	"digital-checkout/internal/usecase"
)

// RateLimiter buckets public traffic per caller; satisfied by the redis
// limiter. nil disables limiting (dev mode).
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Server is the public checkout API consumed by the storefront.
type Server struct {
	checkoutUC usecase.CheckoutUseCase
	txRepo     repository.TransactionRepository
	reconciler usecase.ReconcileUseCase
	leadSink   adapter.LeadSink
	limiter    RateLimiter
	log        *zerolog.Logger
}

func NewServer(
	checkoutUC usecase.CheckoutUseCase,
	txRepo repository.TransactionRepository,
	reconciler usecase.ReconcileUseCase,
	leadSink adapter.LeadSink,
	limiter RateLimiter,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		checkoutUC: checkoutUC,
		txRepo:     txRepo,
		reconciler: reconciler,
		leadSink:   leadSink,
		limiter:    limiter,
		log:        logger,
	}
}

// Router builds the public route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit(60, time.Minute))

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/session", s.handleStartSession)
			r.Route("/session/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleAbandon)
				r.Post("/price", s.handleSelectPrice)
				r.Post("/identity", s.handleIdentity)
				r.Post("/partner", s.handlePartnerProof)
				r.Post("/manual_notice", s.handleManualNotice)
				r.Post("/next", s.handleNext)
				r.Post("/prev", s.handlePrev)
				r.Post("/reset", s.handleReset)
				r.Post("/pay", s.handlePay)
				r.Post("/submit_verification", s.handleSubmitVerification)
			})
			r.Post("/btcpay_invoice", s.handleBTCPayInvoice)
			r.Post("/lead", s.handleLead)
		})

		r.Get("/transaction_status/{id}", s.handleTransactionStatus)
		r.Post("/transaction_status/{id}/refresh", s.handleTransactionRefresh)
	})

	return r
}

// rateLimit buckets per client ip and endpoint.
func (s *Server) rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.limiter == nil {
				next.ServeHTTP(w, r)
				return
			}
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			ok, err := s.limiter.Allow(r.Context(), "rate_limit:"+ip+":"+r.URL.Path, limit, window)
			if err != nil {
				// Limiter outage must not take the checkout down with it.
				s.log.Warn().Err(err).Msg("rate limiter unavailable; allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
