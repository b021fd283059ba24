// File: internal/infra/web/handlers.go
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/adapter"
	"digital-checkout/internal/infra/metrics"
)

// sessionView is the wire shape of a checkout session; the current step is
// resolved server-side so the storefront renders without knowing the variant
// step tables.
type sessionView struct {
	*model.CheckoutSession
	CurrentStep int  `json:"current_step"`
	Complete    bool `json:"complete"`
}

func viewOf(s *model.CheckoutSession) sessionView {
	return sessionView{CheckoutSession: s, CurrentStep: int(s.CurrentStep()), Complete: s.IsComplete()}
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Variant       string `json:"variant"`
		AffiliateCode string `json:"affiliate_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess, err := s.checkoutUC.StartSession(r.Context(), model.CheckoutVariant(req.Variant), req.AffiliateCode)
	if err != nil {
		http.Error(w, "Failed to start session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.checkoutUC.ResumeSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if err := s.checkoutUC.Abandon(r.Context(), chi.URLParam(r, "id")); err != nil {
		http.Error(w, "Failed to abandon session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectPrice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PriceID string `json:"price_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PriceID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.mutateSession(w, r, func(id string) error {
		return s.checkoutUC.SelectPrice(r.Context(), id, req.PriceID)
	})
}

func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.mutateSession(w, r, func(id string) error {
		return s.checkoutUC.CompleteIdentity(r.Context(), id, req.Email, req.Name, req.Phone)
	})
}

func (s *Server) handlePartnerProof(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Partner  string `json:"partner"`
		ProofURL string `json:"proof_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.mutateSession(w, r, func(id string) error {
		return s.checkoutUC.SubmitPartnerProof(r.Context(), id, req.Partner, req.ProofURL)
	})
}

func (s *Server) handleManualNotice(w http.ResponseWriter, r *http.Request) {
	s.mutateSession(w, r, func(id string) error {
		return s.checkoutUC.AcceptManualNotice(r.Context(), id)
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.mutateSession(w, r, func(id string) error { return s.checkoutUC.NextStep(r.Context(), id) })
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	s.mutateSession(w, r, func(id string) error { return s.checkoutUC.PrevStep(r.Context(), id) })
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.mutateSession(w, r, func(id string) error { return s.checkoutUC.Reset(r.Context(), id) })
}

// mutateSession applies fn and responds with the updated session view.
func (s *Server) mutateSession(w http.ResponseWriter, r *http.Request, fn func(id string) error) {
	id := chi.URLParam(r, "id")
	if err := fn(id); err != nil {
		writeDomainError(w, err)
		return
	}
	sess, err := s.checkoutUC.Get(id)
	if err != nil {
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind"` // "card" | "crypto"
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	kind := model.ProviderKind(req.Kind)
	if kind == "" {
		kind = model.ProviderKindCard
	}
	s.initiatePayment(w, r, chi.URLParam(r, "id"), kind)
}

// handleBTCPayInvoice keeps the storefront's dedicated crypto entry point;
// the session id travels in the body because this page has no session in its
// path.
func (s *Server) handleBTCPayInvoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.initiatePayment(w, r, req.SessionID, model.ProviderKindCrypto)
}

func (s *Server) initiatePayment(w http.ResponseWriter, r *http.Request, sessionID string, kind model.ProviderKind) {
	res, err := s.checkoutUC.InitiatePayment(r.Context(), sessionID, kind)
	if err != nil {
		var gwErr *adapter.GatewayError
		if errors.As(err, &gwErr) {
			// The provider's message goes to the buyer verbatim; the step
			// does not advance.
			writeJSON(w, http.StatusBadGateway, map[string]string{
				"provider": gwErr.Provider,
				"error":    gwErr.Message,
			})
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSubmitVerification(w http.ResponseWriter, r *http.Request) {
	rec, err := s.checkoutUC.SubmitForVerification(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleTransactionStatus(w http.ResponseWriter, r *http.Request) {
	tx, err := s.txRepo.FindByID(r.Context(), nil, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to load transaction", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		ID          string                  `json:"id"`
		Status      model.TransactionStatus `json:"status"`
		ConfirmedAt *time.Time              `json:"confirmed_at,omitempty"`
	}{tx.ID, tx.Status, tx.ConfirmedAt})
}

// handleTransactionRefresh settles a transaction whose poll loop is gone
// (ceiling breach, restart): one forced provider fetch, sticky persistence,
// and provisioning on a late confirmation, all through the reconciler.
func (s *Server) handleTransactionRefresh(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tx, err := s.reconciler.Reconcile(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, domain.ErrProviderUnavailable):
			http.Error(w, "Provider status unavailable", http.StatusBadGateway)
		default:
			http.Error(w, "Failed to reconcile transaction", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, struct {
		ID          string                  `json:"id"`
		Status      model.TransactionStatus `json:"status"`
		ConfirmedAt *time.Time              `json:"confirmed_at,omitempty"`
	}{tx.ID, tx.Status, tx.ConfirmedAt})
}

// handleLead is the consent-based pre-checkout lead capture (newsletter-style
// form). Flow-internal abandonment leads go through the recorder instead.
func (s *Server) handleLead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email         string            `json:"email"`
		Name          string            `json:"name"`
		Phone         string            `json:"phone"`
		ProductID     string            `json:"product_id"`
		PriceID       string            `json:"price_id"`
		AffiliateCode string            `json:"affiliate_code"`
		UTM           map[string]string `json:"utm"`
		Consent       bool              `json:"consent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Consent {
		http.Error(w, "Consent is required", http.StatusBadRequest)
		return
	}

	lead := &model.Lead{
		ID:            ulid.Make().String(),
		Email:         req.Email,
		Name:          req.Name,
		Phone:         req.Phone,
		ProductID:     req.ProductID,
		PriceID:       req.PriceID,
		AffiliateCode: req.AffiliateCode,
		UTM:           req.UTM,
		Consent:       true,
		CreatedAt:     time.Now(),
	}
	id, err := s.leadSink.CreateLead(r.Context(), lead)
	if err != nil {
		metrics.IncLead("failed")
		http.Error(w, "Failed to record lead", http.StatusInternalServerError)
		return
	}
	metrics.IncLead("recorded")
	writeJSON(w, http.StatusCreated, map[string]string{"lead_id": id})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrSessionIncomplete),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrPriceMismatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
