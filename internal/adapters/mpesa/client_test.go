package mpesa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chamahub/treasury/internal/apperrors"
	"github.com/chamahub/treasury/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGroupRepo struct {
	group *domain.Group
}

func (s *stubGroupRepo) FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error) {
	if s.group == nil {
		return nil, apperrors.ErrNotFound
	}
	return s.group, nil
}

func (s *stubGroupRepo) FindMemberByID(ctx context.Context, memberID string) (*domain.Member, error) {
	return nil, apperrors.ErrNotFound
}

func (s *stubGroupRepo) FindMemberByPhone(ctx context.Context, phone string) (*domain.Member, error) {
	return nil, apperrors.ErrNotFound
}

func (s *stubGroupRepo) ListGroupMembers(ctx context.Context, groupID string) ([]domain.Member, error) {
	return nil, nil
}

func (s *stubGroupRepo) CountGroupMembers(ctx context.Context, groupID string) (int, error) {
	return 0, nil
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := Config{
		ConsumerKey:        "key",
		ConsumerSecret:     "secret",
		Passkey:            "passkey",
		InitiatorName:      "api_initiator",
		SecurityCredential: "cred",
		B2CCommandID:       "BusinessPayment",
		AuthURL:            server.URL + "/oauth/v1/generate?grant_type=client_credentials",
		StkPushURL:         server.URL + "/mpesa/stkpush/v1/processrequest",
		B2CPaymentURL:      server.URL + "/mpesa/b2c/v1/paymentrequest",
		CallbackURL:        "https://example.test/callbacks/payment",
		B2CResultURL:       "https://example.test/callbacks/b2c/result",
	}
	groups := &stubGroupRepo{group: &domain.Group{GroupID: "grp-1", MpesaShortcode: "600123"}}
	return NewClient(cfg, groups)
}

func TestDispatchOutbound_ReturnsOriginatorReference(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1", "expires_in": "3599"})
	})
	mux.HandleFunc("/mpesa/b2c/v1/paymentrequest", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "600123", payload["PartyA"])
		assert.Equal(t, "254700000001", payload["PartyB"])
		_ = json.NewEncoder(w).Encode(map[string]string{
			"OriginatorConversationID": "AG_20260901_1234",
			"ConversationID":           "conv-1",
			"ResponseCode":             "0",
			"ResponseDescription":      "Accept the service request successfully.",
		})
	})

	client := newTestClient(t, mux)
	ctx := context.Background()

	ref, err := client.DispatchOutbound(ctx, "grp-1", "254700000001", decimal.NewFromInt(3000), domain.ReasonWithdrawal, "wd-1")
	require.NoError(t, err)
	assert.Equal(t, "AG_20260901_1234", ref)

	// second dispatch reuses the cached token
	_, err = client.DispatchOutbound(ctx, "grp-1", "254700000001", decimal.NewFromInt(100), domain.ReasonWithdrawal, "wd-2")
	require.NoError(t, err)
	assert.Equal(t, 1, tokenCalls)
}

func TestDispatchOutbound_GatewayRejection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1", "expires_in": "3599"})
	})
	mux.HandleFunc("/mpesa/b2c/v1/paymentrequest", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"ResponseCode":        "1",
			"ResponseDescription": "Invalid initiator",
		})
	})

	client := newTestClient(t, mux)

	_, err := client.DispatchOutbound(context.Background(), "grp-1", "254700000001", decimal.NewFromInt(100), domain.ReasonWithdrawal, "wd-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrExternalGateway)
}

func TestInitiateCollection_ReturnsCheckoutID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1", "expires_in": "3599"})
	})
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "600123", payload["BusinessShortCode"])
		assert.Equal(t, "254700000001", payload["PhoneNumber"])
		assert.NotEmpty(t, payload["Password"])
		_ = json.NewEncoder(w).Encode(map[string]string{
			"MerchantRequestID":   "mr-1",
			"CheckoutRequestID":   "ws_CO_123",
			"ResponseCode":        "0",
			"ResponseDescription": "Success",
		})
	})

	client := newTestClient(t, mux)

	checkoutID, err := client.InitiateCollection(context.Background(), "grp-1", "254700000001", decimal.NewFromInt(500), "REPAY-loan-1")
	require.NoError(t, err)
	assert.Equal(t, "ws_CO_123", checkoutID)
}
