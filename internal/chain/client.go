// Package chain provides Neo N3 blockchain interaction for the task service.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client provides Neo N3 RPC client functionality.
type Client struct {
	rpcURL     string
	httpClient *http.Client
	networkID  uint32
}

// Config holds client configuration.
type Config struct {
	RPCURL    string
	NetworkID uint32 // MainNet: 860833102, TestNet: 894710606
	Timeout   time.Duration
}

// NewClient creates a new Neo N3 client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		rpcURL: cfg.RPCURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		networkID: cfg.NetworkID,
	}, nil
}

// NetworkID returns the configured network magic.
func (c *Client) NetworkID() uint32 {
	return c.networkID
}

// =============================================================================
// Core RPC Methods
// =============================================================================

// Call makes an RPC call to the Neo N3 node.
func (c *Client) Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	req := RPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var rpcResp RPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	return rpcResp.Result, nil
}

// GetBlockCount returns the current block height.
func (c *Client) GetBlockCount(ctx context.Context) (uint32, error) {
	result, err := c.Call(ctx, "getblockcount", nil)
	if err != nil {
		return 0, err
	}

	var count uint32
	if err := json.Unmarshal(result, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetApplicationLog returns the application log for a transaction.
func (c *Client) GetApplicationLog(ctx context.Context, txHash string) (*ApplicationLog, error) {
	result, err := c.Call(ctx, "getapplicationlog", []interface{}{txHash})
	if err != nil {
		return nil, err
	}

	var log ApplicationLog
	if err := json.Unmarshal(result, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

// =============================================================================
// Contract Invocation Methods
// =============================================================================

// InvokeFunction invokes a contract function (read-only).
func (c *Client) InvokeFunction(ctx context.Context, scriptHash string, method string, params []ContractParam) (*InvokeResult, error) {
	args := []interface{}{scriptHash, method, params}
	result, err := c.Call(ctx, "invokefunction", args)
	if err != nil {
		return nil, err
	}

	var invokeResult InvokeResult
	if err := json.Unmarshal(result, &invokeResult); err != nil {
		return nil, err
	}
	return &invokeResult, nil
}

// InvokeFunctionWithSigners simulates a contract invocation on behalf of the
// given signers, returning the execution script and consumed gas for
// transaction building.
func (c *Client) InvokeFunctionWithSigners(ctx context.Context, scriptHash string, method string, params []ContractParam, signers []Signer) (*InvokeResult, error) {
	args := []interface{}{scriptHash, method, params, signers}
	result, err := c.Call(ctx, "invokefunction", args)
	if err != nil {
		return nil, err
	}

	var invokeResult InvokeResult
	if err := json.Unmarshal(result, &invokeResult); err != nil {
		return nil, err
	}
	return &invokeResult, nil
}

// CalculateNetworkFee asks the node for the network fee of a base64-encoded
// transaction carrying witness placeholders.
func (c *Client) CalculateNetworkFee(ctx context.Context, txBase64 string) (int64, error) {
	result, err := c.Call(ctx, "calculatenetworkfee", []interface{}{txBase64})
	if err != nil {
		return 0, err
	}

	var response struct {
		NetworkFee string `json:"networkfee"`
	}
	if err := json.Unmarshal(result, &response); err != nil {
		return 0, err
	}

	fee, err := strconv.ParseInt(response.NetworkFee, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse network fee %q: %w", response.NetworkFee, err)
	}
	return fee, nil
}

// SendRawTransaction broadcasts a signed, base64-encoded transaction.
func (c *Client) SendRawTransaction(ctx context.Context, txBase64 string) (string, error) {
	result, err := c.Call(ctx, "sendrawtransaction", []interface{}{txBase64})
	if err != nil {
		return "", err
	}

	var response struct {
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(result, &response); err != nil {
		return "", err
	}
	return response.Hash, nil
}

// =============================================================================
// Transaction Confirmation
// =============================================================================

// DefaultTxWaitTimeout is the default timeout for waiting for transaction execution.
const DefaultTxWaitTimeout = 2 * time.Minute

// DefaultPollInterval is the default interval for polling transaction status.
const DefaultPollInterval = 2 * time.Second

// WaitForApplicationLog polls for a transaction application log until it is available or context is done.
// A missing transaction is treated as transient and retried until the context deadline/timeout expires.
func (c *Client) WaitForApplicationLog(ctx context.Context, txHash string, pollInterval time.Duration) (*ApplicationLog, error) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			log, err := c.GetApplicationLog(ctx, txHash)
			if err != nil {
				if isNotFoundError(err) {
					continue
				}
				return nil, err
			}
			return log, nil
		}
	}
}

// isNotFoundError reports whether an RPC error means "transaction not yet
// known", which the confirmation poll treats as transient.
func isNotFoundError(err error) bool {
	if rpcErr, ok := err.(*RPCError); ok {
		// -100 is the node's generic unknown-transaction code.
		if rpcErr.Code == -100 {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unknown transaction")
}
