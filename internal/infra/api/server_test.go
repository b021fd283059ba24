//go:build !integration

// File: internal/infra/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital-checkout/internal/domain"
	"digital-checkout/internal/domain/model"
	"digital-checkout/internal/usecase"
)

const testAPIKey = "test-api-key"

type mockVerificationUC struct {
	ApproveFunc      func(ctx context.Context, recordID, notes string) (usecase.ApproveOutcome, error)
	RejectFunc       func(ctx context.Context, recordID, notes string) error
	BulkApproveFunc  func(ctx context.Context) (usecase.BulkResult, error)
	ListByStatusFunc func(ctx context.Context, status model.VerificationStatus, offset, limit int) ([]*model.ManualVerificationRecord, error)
}

func (m *mockVerificationUC) Approve(ctx context.Context, recordID, notes string) (usecase.ApproveOutcome, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, recordID, notes)
	}
	return usecase.ApproveOutcome{RecordID: recordID}, nil
}

func (m *mockVerificationUC) Reject(ctx context.Context, recordID, notes string) error {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, recordID, notes)
	}
	return nil
}

func (m *mockVerificationUC) BulkApprove(ctx context.Context) (usecase.BulkResult, error) {
	if m.BulkApproveFunc != nil {
		return m.BulkApproveFunc(ctx)
	}
	return usecase.BulkResult{}, nil
}

func (m *mockVerificationUC) Get(ctx context.Context, recordID string) (*model.ManualVerificationRecord, error) {
	return nil, domain.ErrNotFound
}

func (m *mockVerificationUC) ListByStatus(ctx context.Context, status model.VerificationStatus, offset, limit int) ([]*model.ManualVerificationRecord, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, status, offset, limit)
	}
	return nil, nil
}

type mockAdminUC struct {
	RegenerateCredentialFunc   func(ctx context.Context, email string) (usecase.CredentialResult, error)
	ExtendSubscriptionFunc     func(ctx context.Context, subscriptionID string, days int) (*model.Subscription, error)
	GetOverrideSettingsFunc    func(ctx context.Context) (model.OverrideSettings, error)
	UpdateOverrideSettingsFunc func(ctx context.Context, s model.OverrideSettings) error
}

func (m *mockAdminUC) RegenerateCredential(ctx context.Context, email string) (usecase.CredentialResult, error) {
	if m.RegenerateCredentialFunc != nil {
		return m.RegenerateCredentialFunc(ctx, email)
	}
	return usecase.CredentialResult{}, domain.ErrNotFound
}

func (m *mockAdminUC) ExtendSubscription(ctx context.Context, subscriptionID string, days int) (*model.Subscription, error) {
	if m.ExtendSubscriptionFunc != nil {
		return m.ExtendSubscriptionFunc(ctx, subscriptionID, days)
	}
	return nil, domain.ErrNotFound
}

func (m *mockAdminUC) GetOverrideSettings(ctx context.Context) (model.OverrideSettings, error) {
	if m.GetOverrideSettingsFunc != nil {
		return m.GetOverrideSettingsFunc(ctx)
	}
	return model.OverrideSettings{}, nil
}

func (m *mockAdminUC) UpdateOverrideSettings(ctx context.Context, s model.OverrideSettings) error {
	if m.UpdateOverrideSettingsFunc != nil {
		return m.UpdateOverrideSettingsFunc(ctx, s)
	}
	return nil
}

type mockManualCheckout struct {
	CreateSessionAsFunc func(ctx context.Context, req model.PaymentRequest, overrideToken, adminEmail string) (model.ProviderResult, error)
}

func (m *mockManualCheckout) CreateSessionAs(ctx context.Context, req model.PaymentRequest, overrideToken, adminEmail string) (model.ProviderResult, error) {
	if m.CreateSessionAsFunc != nil {
		return m.CreateSessionAsFunc(ctx, req, overrideToken, adminEmail)
	}
	return model.ProviderResult{}, domain.ErrOverrideNotAuthorized
}

type adminFixture struct {
	verUC  *mockVerificationUC
	admUC  *mockAdminUC
	manual *mockManualCheckout
	srv    *httptest.Server
	token  string
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	f := &adminFixture{
		verUC:  &mockVerificationUC{},
		admUC:  &mockAdminUC{},
		manual: &mockManualCheckout{},
	}
	logger := zerolog.Nop()
	auth := NewAuthManager("test-secret", false, "", time.Hour)
	s := NewServer(f.verUC, f.admUC, f.manual, auth, testAPIKey, &logger)

	mux := http.NewServeMux()
	s.Register(mux)
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	f.token = f.login(t, "reviewer@example.com")
	return f
}

func (f *adminFixture) login(t *testing.T, email string) string {
	t.Helper()
	resp := f.postRaw(t, "/admin/v1/login", "", map[string]string{
		"api_key": testAPIKey,
		"email":   email,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body["token"])
	return body["token"]
}

func (f *adminFixture) postRaw(t *testing.T, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req, err := http.NewRequest(http.MethodPost, f.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (f *adminFixture) post(t *testing.T, path string, body any) *http.Response {
	return f.postRaw(t, path, f.token, body)
}

func (f *adminFixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.srv.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+f.token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestLogin(t *testing.T) {
	t.Run("wrong api key is refused", func(t *testing.T) {
		f := newAdminFixture(t)
		resp := f.postRaw(t, "/admin/v1/login", "", map[string]string{
			"api_key": "wrong",
			"email":   "reviewer@example.com",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("login also sets the session cookie", func(t *testing.T) {
		f := newAdminFixture(t)
		resp := f.postRaw(t, "/admin/v1/login", "", map[string]string{
			"api_key": testAPIKey,
			"email":   "reviewer@example.com",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var found bool
		for _, c := range resp.Cookies() {
			if c.Name == "admin_session" && c.Value != "" {
				found = true
			}
		}
		assert.True(t, found, "expected admin_session cookie")
	})
}

func TestAuthMiddleware(t *testing.T) {
	f := newAdminFixture(t)

	t.Run("missing token", func(t *testing.T) {
		resp := f.postRaw(t, "/admin/v1/verifications/approve", "", map[string]string{"record_id": "rec-1"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := f.postRaw(t, "/admin/v1/verifications/approve", "not-a-jwt", map[string]string{"record_id": "rec-1"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestVerificationEndpoints(t *testing.T) {
	t.Run("list defaults to pending", func(t *testing.T) {
		f := newAdminFixture(t)
		f.verUC.ListByStatusFunc = func(_ context.Context, status model.VerificationStatus, offset, limit int) ([]*model.ManualVerificationRecord, error) {
			assert.Equal(t, model.VerificationStatusPending, status)
			assert.Equal(t, 0, offset)
			assert.Equal(t, 50, limit)
			return []*model.ManualVerificationRecord{{ID: "rec-1", Status: status}}, nil
		}

		resp := f.get(t, "/admin/v1/verifications")
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data []*model.ManualVerificationRecord `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, "rec-1", body.Data[0].ID)
	})

	t.Run("approve returns the provisioned outcome", func(t *testing.T) {
		f := newAdminFixture(t)
		f.verUC.ApproveFunc = func(_ context.Context, recordID, notes string) (usecase.ApproveOutcome, error) {
			assert.Equal(t, "rec-1", recordID)
			assert.Equal(t, "looks good", notes)
			return usecase.ApproveOutcome{RecordID: recordID, CustomerID: "cust-1", SubscriptionID: "sub-1"}, nil
		}

		resp := f.post(t, "/admin/v1/verifications/approve", map[string]string{
			"record_id": "rec-1",
			"notes":     "looks good",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out usecase.ApproveOutcome
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "cust-1", out.CustomerID)
		assert.Equal(t, "sub-1", out.SubscriptionID)
	})

	t.Run("approving a resolved record is a 409", func(t *testing.T) {
		f := newAdminFixture(t)
		f.verUC.ApproveFunc = func(_ context.Context, recordID, _ string) (usecase.ApproveOutcome, error) {
			return usecase.ApproveOutcome{}, fmt.Errorf("%w: record %s is approved", domain.ErrRecordAlreadyResolved, recordID)
		}

		resp := f.post(t, "/admin/v1/verifications/approve", map[string]string{"record_id": "rec-1"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("unknown record is a 404", func(t *testing.T) {
		f := newAdminFixture(t)
		f.verUC.RejectFunc = func(_ context.Context, _, _ string) error {
			return domain.ErrNotFound
		}

		resp := f.post(t, "/admin/v1/verifications/reject", map[string]string{"record_id": "nope"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("bulk approve reports the mixed outcome", func(t *testing.T) {
		f := newAdminFixture(t)
		f.verUC.BulkApproveFunc = func(_ context.Context) (usecase.BulkResult, error) {
			return usecase.BulkResult{
				SuccessCount: 4,
				FailCount:    1,
				Failures: []usecase.BulkFailure{
					{RecordID: "rec-3", Email: "buyer3@example.com", Error: "smtp: mailbox unavailable"},
				},
			}, nil
		}

		resp := f.post(t, "/admin/v1/verifications/bulk_approve", map[string]string{})
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out usecase.BulkResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, 4, out.SuccessCount)
		assert.Equal(t, 1, out.FailCount)
		require.Len(t, out.Failures, 1)
		assert.Equal(t, "rec-3", out.Failures[0].RecordID)
	})

	t.Run("concurrent bulk run is a 409", func(t *testing.T) {
		f := newAdminFixture(t)
		f.verUC.BulkApproveFunc = func(_ context.Context) (usecase.BulkResult, error) {
			return usecase.BulkResult{}, domain.ErrBulkApproveRunning
		}

		resp := f.post(t, "/admin/v1/verifications/bulk_approve", map[string]string{})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestAdminOperations(t *testing.T) {
	t.Run("regenerate credential returns the plain password once", func(t *testing.T) {
		f := newAdminFixture(t)
		f.admUC.RegenerateCredentialFunc = func(_ context.Context, email string) (usecase.CredentialResult, error) {
			return usecase.CredentialResult{CustomerID: "cust-1", Email: email, PlainPassword: "s3cret"}, nil
		}

		resp := f.post(t, "/admin/v1/customers/regenerate_credential", map[string]string{"email": "buyer@example.com"})
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out usecase.CredentialResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "s3cret", out.PlainPassword)
	})

	t.Run("extend subscription validates days", func(t *testing.T) {
		f := newAdminFixture(t)
		f.admUC.ExtendSubscriptionFunc = func(_ context.Context, _ string, days int) (*model.Subscription, error) {
			if days <= 0 {
				return nil, domain.ErrInvalidArgument
			}
			return &model.Subscription{ID: "sub-1"}, nil
		}

		resp := f.post(t, "/admin/v1/subscriptions/extend", map[string]any{"subscription_id": "sub-1", "days": 0})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("override token is write-only in reads", func(t *testing.T) {
		f := newAdminFixture(t)
		f.admUC.GetOverrideSettingsFunc = func(_ context.Context) (model.OverrideSettings, error) {
			return model.OverrideSettings{
				Enabled:            true,
				OverrideToken:      "super-secret",
				AllowedAdminEmails: []string{"reviewer@example.com"},
			}, nil
		}

		resp := f.get(t, "/admin/v1/settings/override")
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, true, body["enabled"])
		assert.NotContains(t, body, "override_token")
	})
}

func TestManualCheckout(t *testing.T) {
	t.Run("reviewer email from the session reaches the gate", func(t *testing.T) {
		f := newAdminFixture(t)
		var gotEmail, gotToken string
		f.manual.CreateSessionAsFunc = func(_ context.Context, req model.PaymentRequest, overrideToken, adminEmail string) (model.ProviderResult, error) {
			gotEmail = adminEmail
			gotToken = overrideToken
			return model.ProviderResult{
				Kind:           model.ProviderKindManual,
				TransactionID:  "manual-1",
				CustomerID:     "cust-1",
				SubscriptionID: "sub-1",
			}, nil
		}

		resp := f.post(t, "/admin/v1/manual_checkout", map[string]string{
			"email":          "buyer@example.com",
			"name":           "Buyer",
			"price_id":       "price-1",
			"override_token": "override-token",
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		assert.Equal(t, "reviewer@example.com", gotEmail)
		assert.Equal(t, "override-token", gotToken)

		var out model.ProviderResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, model.ProviderKindManual, out.Kind)
		assert.Equal(t, "sub-1", out.SubscriptionID)
	})

	t.Run("refused override is a 403", func(t *testing.T) {
		f := newAdminFixture(t)

		resp := f.post(t, "/admin/v1/manual_checkout", map[string]string{
			"email":          "buyer@example.com",
			"price_id":       "price-1",
			"override_token": "wrong",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
