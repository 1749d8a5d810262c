package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenops/shieldscan/internal/config"
	"github.com/zenops/shieldscan/internal/metrics"
	"github.com/zenops/shieldscan/internal/store"
	"github.com/zenops/shieldscan/internal/verify"
	"github.com/zenops/shieldscan/internal/zend"
	"github.com/zenops/shieldscan/pkg/logger"
)

// fakeZend emulates the node's getblockcount/getblock JSON-RPC surface over
// a test HTTP server. The tip can be advanced between runs and a height can
// be made to fail.
type fakeZend struct {
	tip        atomic.Int64
	failHeight atomic.Int64
}

func (f *fakeZend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string   `json:"method"`
			Params []string `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch req.Method {
		case "getblockcount":
			fmt.Fprintf(w, `{"result":%d,"error":null,"id":"shieldscan"}`, f.tip.Load())
		case "getblock":
			require.Len(t, req.Params, 1)
			height, err := strconv.ParseInt(req.Params[0], 10, 64)
			require.NoError(t, err)
			if fail := f.failHeight.Load(); fail > 0 && height == fail {
				fmt.Fprint(w, `{"result":null,"error":{"code":-1,"message":"injected failure"}}`)
				return
			}
			fmt.Fprintf(w, `{"result":{"valuePools":[{"id":"sprout","chainValue":%g}]}}`, float64(height)/8)
		default:
			t.Errorf("unexpected rpc method %q", req.Method)
		}
	}
}

func newIntegrationEngine(t *testing.T, fake *fakeZend) (*Engine, *store.Store) {
	t.Helper()

	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig()
	cfg.RPCURL = server.URL
	cfg.CSVPath = filepath.Join(t.TempDir(), "pool.csv")

	log := logger.NewTestLogger()
	st := store.New(cfg.CSVPath, log)
	client := zend.NewClient(cfg, log)
	engine := NewEngine(client, st, metrics.NewCollector(), 0, log)

	return engine, st
}

func TestSynchronize_EndToEnd(t *testing.T) {
	fake := &fakeZend{}
	fake.tip.Store(49)
	engine, st := newIntegrationEngine(t, fake)

	// First run: bootstrap from an empty CSV.
	result, err := engine.Synchronize(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Complete)
	assert.Equal(t, 50, result.Fetched)

	series, err := st.Load()
	require.NoError(t, err)
	require.Len(t, series, 50)
	assert.Empty(t, verify.Verify(series))
	assert.Equal(t, 6.0, series[48].Value)

	// Second run with an unchanged tip appends nothing.
	result, err = engine.Synchronize(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Fetched)

	// Tip advances: only the new range is fetched.
	fake.tip.Store(59)
	result, err = engine.Synchronize(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Complete)
	assert.Equal(t, 10, result.Fetched)
	assert.Equal(t, int64(50), result.StartHeight)

	series, err = st.Load()
	require.NoError(t, err)
	require.Len(t, series, 60)
	assert.Empty(t, verify.Verify(series))
}

func TestSynchronize_EndToEnd_FailureThenResume(t *testing.T) {
	fake := &fakeZend{}
	fake.tip.Store(29)
	fake.failHeight.Store(20)
	engine, st := newIntegrationEngine(t, fake)

	// The run fails at height 20 but keeps heights 0..19 on disk.
	result, err := engine.Synchronize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "height 20")
	assert.Equal(t, 20, result.Fetched)

	series, err := st.Load()
	require.NoError(t, err)
	require.Len(t, series, 20)
	assert.Empty(t, verify.Verify(series))

	// Clearing the fault lets the next run resume at height 20, not 0.
	fake.failHeight.Store(0)
	result, err = engine.Synchronize(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Complete)
	assert.Equal(t, int64(20), result.StartHeight)
	assert.Equal(t, 10, result.Fetched)

	series, err = st.Load()
	require.NoError(t, err)
	require.Len(t, series, 30)
	assert.Empty(t, verify.Verify(series))
}
