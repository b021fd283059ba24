// File: internal/infra/api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/infra/metrics"
	"digital-checkout/internal/usecase"
)

// ManualCheckout is the admin-only override path; satisfied by the manual
// payment gateway.
type ManualCheckout interface {
	CreateSessionAs(ctx context.Context, req model.PaymentRequest, overrideToken, adminEmail string) (model.ProviderResult, error)
}

// Server is the admin verification and operations API. Every route is behind
// JWT auth minted from the configured API key.
type Server struct {
	verUC    usecase.VerificationUseCase
	adminUC  usecase.AdminUseCase
	manualGW ManualCheckout
	auth     *AuthManager
	apiKey   string
	log      *zerolog.Logger
}

func NewServer(
	verUC usecase.VerificationUseCase,
	adminUC usecase.AdminUseCase,
	manualGW ManualCheckout,
	auth *AuthManager,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		verUC:    verUC,
		adminUC:  adminUC,
		manualGW: manualGW,
		auth:     auth,
		apiKey:   apiKey,
		log:      logger,
	}
}

// Register attaches handlers to the provided mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/admin/v1/login", s.handleLogin)

	mux.Handle("/admin/v1/verifications", s.authMiddleware(http.HandlerFunc(s.handleListVerifications)))
	mux.Handle("/admin/v1/verifications/approve", s.authMiddleware(http.HandlerFunc(s.handleApprove)))
	mux.Handle("/admin/v1/verifications/reject", s.authMiddleware(http.HandlerFunc(s.handleReject)))
	mux.Handle("/admin/v1/verifications/bulk_approve", s.authMiddleware(http.HandlerFunc(s.handleBulkApprove)))

	mux.Handle("/admin/v1/customers/regenerate_credential", s.authMiddleware(http.HandlerFunc(s.handleRegenerateCredential)))
	mux.Handle("/admin/v1/subscriptions/extend", s.authMiddleware(http.HandlerFunc(s.handleExtendSubscription)))
	mux.Handle("/admin/v1/settings/override", s.authMiddleware(http.HandlerFunc(s.handleOverrideSettings)))
	mux.Handle("/admin/v1/manual_checkout", s.authMiddleware(http.HandlerFunc(s.handleManualCheckout)))
}

type ctxKey int

const claimsKey ctxKey = iota

// authMiddleware requires a valid admin JWT and puts the claims in context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFrom(ctx context.Context) *AdminClaims {
	c, _ := ctx.Value(claimsKey).(*AdminClaims)
	return c
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		APIKey string `json:"api_key"`
		Email  string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if s.apiKey == "" || req.APIKey != s.apiKey || req.Email == "" {
		metrics.IncAdminOp("login", "unauthorized")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint(w, req.Email)
	if err != nil {
		http.Error(w, "Failed to mint session", http.StatusInternalServerError)
		return
	}
	metrics.IncAdminOp("login", "ok")
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleListVerifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	status := model.VerificationStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.VerificationStatusPending
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	records, err := s.verUC.ListByStatus(r.Context(), status, offset, limit)
	if err != nil {
		http.Error(w, "Failed to list records", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data   []*model.ManualVerificationRecord `json:"data"`
		Limit  int                               `json:"limit"`
		Offset int                               `json:"offset"`
	}{records, limit, offset})
}

type resolveRequest struct {
	RecordID string `json:"record_id"`
	Notes    string `json:"notes"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RecordID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	out, err := s.verUC.Approve(r.Context(), req.RecordID, req.Notes)
	if err != nil {
		metrics.IncAdminOp("approve", "error")
		writeResolveError(w, err)
		return
	}
	metrics.IncAdminOp("approve", "ok")
	metrics.IncVerificationResolved("approved")
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RecordID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.verUC.Reject(r.Context(), req.RecordID, req.Notes); err != nil {
		metrics.IncAdminOp("reject", "error")
		writeResolveError(w, err)
		return
	}
	metrics.IncAdminOp("reject", "ok")
	metrics.IncVerificationResolved("rejected")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleBulkApprove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := s.verUC.BulkApprove(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrBulkApproveRunning) {
			metrics.IncAdminOp("bulk_approve", "error")
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		metrics.IncAdminOp("bulk_approve", "error")
		http.Error(w, "Bulk approval failed", http.StatusInternalServerError)
		return
	}
	metrics.IncAdminOp("bulk_approve", "ok")
	for i := 0; i < result.SuccessCount; i++ {
		metrics.IncVerificationResolved("approved")
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRegenerateCredential(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.adminUC.RegenerateCredential(r.Context(), req.Email)
	if err != nil {
		metrics.IncAdminOp("regenerate_credential", "error")
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to regenerate credential", http.StatusInternalServerError)
		return
	}
	metrics.IncAdminOp("regenerate_credential", "ok")
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExtendSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		SubscriptionID string `json:"subscription_id"`
		Days           int    `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sub, err := s.adminUC.ExtendSubscription(r.Context(), req.SubscriptionID, req.Days)
	if err != nil {
		metrics.IncAdminOp("extend_subscription", "error")
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "Failed to extend subscription", http.StatusInternalServerError)
		}
		return
	}
	metrics.IncAdminOp("extend_subscription", "ok")
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleOverrideSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := s.adminUC.GetOverrideSettings(r.Context())
		if err != nil {
			http.Error(w, "Failed to fetch settings", http.StatusInternalServerError)
			return
		}
		// The token is write-only through this API.
		writeJSON(w, http.StatusOK, struct {
			Enabled            bool     `json:"enabled"`
			AllowedAdminEmails []string `json:"allowed_admin_emails"`
		}{settings.Enabled, settings.AllowedAdminEmails})
	case http.MethodPost:
		var req struct {
			Enabled            bool     `json:"enabled"`
			OverrideToken      string   `json:"override_token"`
			AllowedAdminEmails []string `json:"allowed_admin_emails"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		err := s.adminUC.UpdateOverrideSettings(r.Context(), model.OverrideSettings{
			Enabled:            req.Enabled,
			OverrideToken:      req.OverrideToken,
			AllowedAdminEmails: req.AllowedAdminEmails,
		})
		if err != nil {
			metrics.IncAdminOp("update_override_settings", "error")
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to update settings", http.StatusInternalServerError)
			return
		}
		metrics.IncAdminOp("update_override_settings", "ok")
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleManualCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email         string `json:"email"`
		Name          string `json:"name"`
		PriceID       string `json:"price_id"`
		OverrideToken string `json:"override_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.PriceID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	claims := claimsFrom(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	res, err := s.manualGW.CreateSessionAs(ctx, model.PaymentRequest{
		Email:   req.Email,
		Name:    req.Name,
		PriceID: req.PriceID,
	}, req.OverrideToken, claims.Email)
	if err != nil {
		if errors.Is(err, domain.ErrOverrideNotAuthorized) {
			metrics.IncAdminOp("manual_checkout", "unauthorized")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		metrics.IncAdminOp("manual_checkout", "error")
		s.log.Error().Err(err).Msg("manual checkout failed")
		http.Error(w, "Manual checkout failed", http.StatusInternalServerError)
		return
	}
	metrics.IncAdminOp("manual_checkout", "ok")
	writeJSON(w, http.StatusOK, res)
}

func writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Record not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrRecordAlreadyResolved):
		// 409 with the concrete terminal state so the reviewer sees what
		// happened instead of a silent no-op.
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Failed to resolve record", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
