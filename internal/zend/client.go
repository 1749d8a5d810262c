package zend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/zenops/shieldscan/internal/config"
	"github.com/zenops/shieldscan/pkg/logger"
)

// Client talks to a zend node's JSON-RPC interface. It is stateless and
// safe for concurrent use.
type Client struct {
	cfg        *config.Config
	logger     *logger.Logger
	httpClient *http.Client
	rpcURL     string
}

// NewClient creates a new zend RPC client. Each request is bounded by the
// configured RPC timeout.
func NewClient(cfg *config.Config, logger *logger.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: cfg.RPCTimeout,
		},
		rpcURL: cfg.RPCURL,
	}
}

// GetPoolValue returns the amount locked in the shielded pool at the given
// block height. The node expects the height as a string parameter of the
// getblock call.
func (c *Client) GetPoolValue(ctx context.Context, height int64) (float64, error) {
	if height < 0 {
		return 0, fmt.Errorf("height must be non-negative, got %d", height)
	}

	result, err := c.rpcCall(ctx, "getblock", []any{strconv.FormatInt(height, 10)})
	if err != nil {
		return 0, err
	}

	var block struct {
		ValuePools []struct {
			ChainValue *float64 `json:"chainValue"`
		} `json:"valuePools"`
	}
	if err := json.Unmarshal(result, &block); err != nil {
		return 0, &RemoteError{Op: "getblock", Reason: fmt.Sprintf("undecodable result: %v", err)}
	}
	if len(block.ValuePools) == 0 || block.ValuePools[0].ChainValue == nil {
		return 0, &RemoteError{Op: "getblock", Reason: "result missing valuePools[0].chainValue"}
	}

	return *block.ValuePools[0].ChainValue, nil
}

// GetChainTip returns the height of the most recent block known to the node.
func (c *Client) GetChainTip(ctx context.Context) (int64, error) {
	result, err := c.rpcCall(ctx, "getblockcount", nil)
	if err != nil {
		return 0, err
	}

	var tip json.Number
	if err := json.Unmarshal(result, &tip); err != nil {
		return 0, &RemoteError{Op: "getblockcount", Reason: fmt.Sprintf("non-numeric result: %v", err)}
	}
	height, err := tip.Int64()
	if err != nil {
		return 0, &RemoteError{Op: "getblockcount", Reason: fmt.Sprintf("non-integer result %q", tip)}
	}

	return height, nil
}

// rpcCall performs one JSON-RPC 1.0 request against the node. Legacy nodes
// reject unknown protocol versions, so the envelope is kept exactly as zend
// expects it.
func (c *Client) rpcCall(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	reqBody := map[string]any{
		"jsonrpc": "1.0",
		"id":      "shieldscan",
		"method":  method,
	}
	if params != nil {
		reqBody["params"] = params
	}

	reqData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(reqData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.RPCUser != "" {
		req.SetBasicAuth(c.cfg.RPCUser, c.cfg.RPCPassword)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("rpc request rejected",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode))
		return nil, &RemoteError{Op: method, Status: resp.StatusCode, Reason: resp.Status}
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, &RemoteError{Op: method, Reason: fmt.Sprintf("undecodable response: %v", err)}
	}
	if rpcResp.Error != nil {
		return nil, &RemoteError{Op: method, Reason: fmt.Sprintf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)}
	}
	if rpcResp.Result == nil {
		return nil, &RemoteError{Op: method, Reason: "response missing result"}
	}

	return rpcResp.Result, nil
}
