package subgraph

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-risk-lab/internal/observability"
)

const testWallet = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"

func accountResponse() map[string]interface{} {
	return map[string]interface{}{
		"data": map[string]interface{}{
			"account": map[string]interface{}{
				"id": testWallet,
				"borrows": []map[string]interface{}{
					{"id": "0xb1-0", "amount": "1500.25", "timestamp": 1600000200, "underlyingSymbol": "DAI"},
				},
				"repays": []map[string]interface{}{
					{"id": "0xr1-0", "amount": "1500.25", "timestamp": 1600000300, "underlyingSymbol": "DAI"},
					{"id": "0xr2-0", "amount": "10", "timestamp": "1600000400", "underlyingSymbol": "USDC"},
				},
				"liquidations": []map[string]interface{}{},
			},
		},
	}
}

func TestHTTPClient_GetAccountHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Variables["wallet_id"] != testWallet {
			t.Errorf("expected lower-cased wallet variable, got %v", req.Variables["wallet_id"])
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected json content type, got %s", r.Header.Get("Content-Type"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(accountResponse())
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)
	client := NewHTTPClient(server.URL, WithMetrics(metrics))

	acc, err := client.GetAccountHistory(context.Background(), "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.NoError(t, err)
	require.NotNil(t, acc)

	require.Len(t, acc.Borrows, 1)
	require.Len(t, acc.Repays, 2)
	assert.Empty(t, acc.Liquidations)
	assert.True(t, decimal.RequireFromString("1500.25").Equal(acc.Borrows[0].Amount))
	assert.Equal(t, int64(1600000400), acc.Repays[1].Timestamp.IntPart())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SubgraphRequests.WithLabelValues("account", "success")))
}

func TestHTTPClient_AccountNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"account": null}}`))
	}))
	defer server.Close()

	acc, err := NewHTTPClient(server.URL).GetAccountHistory(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Nil(t, acc)
}

func TestHTTPClient_GraphQLError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"errors": [{"message": "indexing_error"}, {"message": "bad block"}]}`))
	}))
	defer server.Close()

	_, err := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond)).GetAccountHistory(context.Background(), testWallet)

	var qe *QueryError
	require.True(t, errors.As(err, &qe), "expected QueryError, got %v", err)
	assert.Equal(t, []string{"indexing_error", "bad block"}, qe.Messages)
	assert.Equal(t, int32(1), calls.Load(), "GraphQL errors are not retried")
}

func TestHTTPClient_RetryOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(accountResponse())
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond), WithMaxDelay(5*time.Millisecond))
	acc, err := client.GetAccountHistory(context.Background(), testWallet)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClient_MaxRetriesExceeded(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)
	client := NewHTTPClient(server.URL, WithMaxRetries(2), WithRetryDelay(time.Millisecond), WithMetrics(metrics))

	_, err := client.GetAccountHistory(context.Background(), testWallet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SubgraphRequests.WithLabelValues("account", "error")))
}

func TestHTTPClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond)).GetAccountHistory(context.Background(), testWallet)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPClient(server.URL, WithRetryDelay(time.Hour)).GetAccountHistory(ctx, testWallet)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAccount_LedgerRows(t *testing.T) {
	acc := &Account{
		ID:           testWallet,
		Borrows:      []Event{{ID: "b1", Amount: decimal.NewFromInt(100), Timestamp: decimal.NewFromInt(10), UnderlyingSymbol: "DAI"}},
		Repays:       []Event{{ID: "r1", Amount: decimal.NewFromInt(40), Timestamp: decimal.NewFromInt(20), UnderlyingSymbol: "DAI"}},
		Liquidations: []Event{{ID: "l1", Amount: decimal.NewFromInt(5), Timestamp: decimal.NewFromInt(30), UnderlyingSymbol: "ETH"}},
	}

	rows := acc.LedgerRows("0xWallet")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{TypeBorrow, TypeRepay, TypeLiquidation}, []string{rows[0].Type, rows[1].Type, rows[2].Type})
	assert.Equal(t, "0xWallet", rows[2].WalletID)
	assert.Equal(t, "l1", rows[2].TransactionID)
	assert.Equal(t, int64(30), rows[2].Timestamp)

	var nilAcc *Account
	assert.Nil(t, nilAcc.LedgerRows("x"))
}
