// File: internal/infra/adapters/leads/sink.go
package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/domain/ports/adapter"
	"digital-checkout/internal/domain/ports/repository"
)

var _ adapter.LeadSink = (*RepoSink)(nil)
var _ adapter.LeadSink = (*HTTPSink)(nil)

// RepoSink stores leads in our own database.
type RepoSink struct {
	repo repository.LeadRepository
}

func NewRepoSink(repo repository.LeadRepository) *RepoSink {
	return &RepoSink{repo: repo}
}

func (s *RepoSink) CreateLead(ctx context.Context, lead *model.Lead) (string, error) {
	if err := s.repo.Save(ctx, nil, lead); err != nil {
		return "", err
	}
	return lead.ID, nil
}

// HTTPSink forwards leads to an external CRM endpoint. The CRM may assign its
// own id; when it does, that id wins over the locally generated one.
type HTTPSink struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPSink(endpoint, apiKey string) (*HTTPSink, error) {
	if endpoint == "" {
		return nil, errors.New("lead sink endpoint empty")
	}
	return &HTTPSink{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (s *HTTPSink) CreateLead(ctx context.Context, lead *model.Lead) (string, error) {
	b, err := json.Marshal(map[string]any{
		"id":             lead.ID,
		"email":          lead.Email,
		"name":           lead.Name,
		"phone":          lead.Phone,
		"product_id":     lead.ProductID,
		"price_id":       lead.PriceID,
		"affiliate_code": lead.AffiliateCode,
		"partner":        lead.Partner,
		"utm":            lead.UTM,
		"consent":        lead.Consent,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("lead sink: http %d", resp.StatusCode)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil || out.ID == "" {
		return lead.ID, nil
	}
	return out.ID, nil
}
