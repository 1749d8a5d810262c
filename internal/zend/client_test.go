package zend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenops/shieldscan/internal/config"
	"github.com/zenops/shieldscan/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig()
	cfg.RPCURL = server.URL
	cfg.RPCUser = "dummy_user"
	cfg.RPCPassword = "dummy_password"

	return NewClient(cfg, logger.NewTestLogger()), server
}

func decodeRequest(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestGetPoolValue_WireFormat(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "request must carry basic auth credentials")
		assert.Equal(t, "dummy_user", user)
		assert.Equal(t, "dummy_password", pass)

		body := decodeRequest(t, r)
		assert.Equal(t, "1.0", body["jsonrpc"])
		assert.Equal(t, "getblock", body["method"])
		// The node expects the height as a string, not a number.
		assert.Equal(t, []any{"271850"}, body["params"])

		w.Write([]byte(`{"result":{"valuePools":[{"id":"sprout","chainValue":137.1082},{"id":"sapling","chainValue":9.5}]},"error":null,"id":"shieldscan"}`))
	})

	value, err := client.GetPoolValue(context.Background(), 271850)
	require.NoError(t, err)
	assert.Equal(t, 137.1082, value)
}

func TestGetPoolValue_NegativeHeight(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an invalid height")
	})

	_, err := client.GetPoolValue(context.Background(), -1)
	require.Error(t, err)
}

func TestGetPoolValue_MissingValuePools(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty valuePools", `{"result":{"valuePools":[]}}`},
		{"no valuePools key", `{"result":{"height":10}}`},
		{"chainValue absent", `{"result":{"valuePools":[{"id":"sprout"}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			_, err := client.GetPoolValue(context.Background(), 0)
			require.Error(t, err)

			var remote *RemoteError
			assert.True(t, errors.As(err, &remote), "shape mismatch must map to RemoteError, got %v", err)
		})
	}
}

func TestGetChainTip(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeRequest(t, r)
		assert.Equal(t, "getblockcount", body["method"])
		_, hasParams := body["params"]
		assert.False(t, hasParams, "getblockcount takes no params")

		w.Write([]byte(`{"result":1520412,"error":null,"id":"shieldscan"}`))
	})

	tip, err := client.GetChainTip(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1520412), tip)
}

func TestGetChainTip_NonIntegerResult(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"not-a-height"}`))
	})

	_, err := client.GetChainTip(context.Background())
	require.Error(t, err)

	var remote *RemoteError
	assert.True(t, errors.As(err, &remote))
}

func TestRPCCall_HTTPErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})

	_, err := client.GetChainTip(context.Background())
	require.Error(t, err)

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusUnauthorized, remote.Status)
}

func TestRPCCall_RPCErrorObject(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":null,"error":{"code":-5,"message":"Block not found"}}`))
	})

	_, err := client.GetPoolValue(context.Background(), 99999999)
	require.Error(t, err)

	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Contains(t, remote.Reason, "Block not found")
}

func TestRPCCall_ConnectionFailure(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.GetChainTip(context.Background())
	require.Error(t, err)

	var transport *TransportError
	assert.True(t, errors.As(err, &transport), "connection failure must map to TransportError, got %v", err)
}

func TestRPCCall_Timeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"result":1}`))
	})
	client.httpClient.Timeout = 20 * time.Millisecond

	_, err := client.GetChainTip(context.Background())
	require.Error(t, err)

	var transport *TransportError
	assert.True(t, errors.As(err, &transport), "an expired wait must map to TransportError, got %v", err)
}

func TestNewClient_NoAuthWhenUserEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := r.BasicAuth()
		assert.False(t, ok, "no credentials configured means no auth header")
		w.Write([]byte(`{"result":7}`))
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.RPCURL = server.URL
	client := NewClient(cfg, logger.NewTestLogger())

	tip, err := client.GetChainTip(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), tip)
}
