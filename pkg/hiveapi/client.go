// Package hiveapi is a minimal client for the Hive condenser API.
package hiveapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors for client operations
var (
	ErrRequestFailed    = errors.New("hive API request failed")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrRPCError         = errors.New("hive RPC error")
	ErrDecodeFailed     = errors.New("decoding response failed")
	ErrWrongOperation   = errors.New("history item holds a different operation")
)

// TimeLayout is the timestamp format used by Hive nodes (UTC, no zone suffix)
const TimeLayout = "2006-01-02T15:04:05"

// DefaultNodeURL is the public API node used unless one is injected
const DefaultNodeURL = "https://api.hive.blog"

// Client represents a Hive condenser API client
type Client struct {
	httpClient *http.Client
	nodeURL    string
}

// NewClient creates a client against the default public node
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		nodeURL:    DefaultNodeURL,
	}
}

// NewClientWithHTTP creates a client with a custom HTTP client and node URL
func NewClientWithHTTP(httpClient *http.Client, nodeURL string) *Client {
	return &Client{
		httpClient: httpClient,
		nodeURL:    nodeURL,
	}
}

// rpcRequest is the JSON-RPC 2.0 envelope the condenser API expects
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC request and decodes the result into out
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return fmt.Errorf("%w: encoding request: %w", ErrRequestFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.nodeURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: creating request: %w", ErrRequestFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%w: %s (code %d)", ErrRPCError, rpcResp.Error.Message, rpcResp.Error.Code)
	}

	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	return nil
}

// DynamicGlobalProperties holds the chain-wide totals used for unit conversion
type DynamicGlobalProperties struct {
	HeadBlockNumber      int64  `json:"head_block_number"`
	Time                 string `json:"time"`
	TotalVestingFundHive string `json:"total_vesting_fund_hive"`
	TotalVestingShares   string `json:"total_vesting_shares"`
}

// DynamicGlobalProperties fetches the current chain-wide properties
func (c *Client) DynamicGlobalProperties(ctx context.Context) (DynamicGlobalProperties, error) {
	var props DynamicGlobalProperties
	err := c.call(ctx, "condenser_api.get_dynamic_global_properties", []any{}, &props)
	return props, err
}

// AccountHistoryRequest represents parameters for paging through account history.
// Start -1 begins at the newest entry; otherwise entries at or below Start are returned.
type AccountHistoryRequest struct {
	Account string
	Start   int64
	Limit   uint32
}

// Operation type names carried in history items
const (
	OpDelegateVestingShares = "delegate_vesting_shares"
	OpCurationReward        = "curation_reward"
)

// HistoryItem is one entry of an account's operation history
type HistoryItem struct {
	Index     int64
	TrxID     string
	Block     int64
	Timestamp time.Time
	OpType    string

	opPayload json.RawMessage
}

// historyEntry matches the condenser wire shape of the entry half of the pair
type historyEntry struct {
	TrxID     string            `json:"trx_id"`
	Block     int64             `json:"block"`
	Timestamp string            `json:"timestamp"`
	Op        []json.RawMessage `json:"op"`
}

// UnmarshalJSON decodes the condenser [index, entry] pair encoding
func (i *HistoryItem) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("history item: expected [index, entry] pair, got %d elements", len(pair))
	}

	if err := json.Unmarshal(pair[0], &i.Index); err != nil {
		return fmt.Errorf("history item index: %w", err)
	}

	var entry historyEntry
	if err := json.Unmarshal(pair[1], &entry); err != nil {
		return fmt.Errorf("history item entry: %w", err)
	}
	if len(entry.Op) != 2 {
		return fmt.Errorf("history item op: expected [name, payload] pair, got %d elements", len(entry.Op))
	}

	ts, err := time.Parse(TimeLayout, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("history item timestamp: %w", err)
	}

	var opType string
	if err := json.Unmarshal(entry.Op[0], &opType); err != nil {
		return fmt.Errorf("history item op name: %w", err)
	}

	i.TrxID = entry.TrxID
	i.Block = entry.Block
	i.Timestamp = ts.UTC()
	i.OpType = opType
	i.opPayload = entry.Op[1]
	return nil
}

// DelegateVestingSharesOperation is the payload of a delegation change
type DelegateVestingSharesOperation struct {
	Delegator     string `json:"delegator"`
	Delegatee     string `json:"delegatee"`
	VestingShares string `json:"vesting_shares"`
}

// DelegateVestingShares decodes the item payload as a delegation change
func (i HistoryItem) DelegateVestingShares() (DelegateVestingSharesOperation, error) {
	var op DelegateVestingSharesOperation
	if i.OpType != OpDelegateVestingShares {
		return op, fmt.Errorf("%w: %s", ErrWrongOperation, i.OpType)
	}
	if err := json.Unmarshal(i.opPayload, &op); err != nil {
		return op, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	return op, nil
}

// CurationRewardOperation is the payload of a realized curation reward
type CurationRewardOperation struct {
	Curator         string `json:"curator"`
	Reward          string `json:"reward"`
	CommentAuthor   string `json:"comment_author"`
	CommentPermlink string `json:"comment_permlink"`
}

// CurationReward decodes the item payload as a curation reward
func (i HistoryItem) CurationReward() (CurationRewardOperation, error) {
	var op CurationRewardOperation
	if i.OpType != OpCurationReward {
		return op, fmt.Errorf("%w: %s", ErrWrongOperation, i.OpType)
	}
	if err := json.Unmarshal(i.opPayload, &op); err != nil {
		return op, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	return op, nil
}

// AccountHistory retrieves one page of the account's operation history,
// ordered oldest to newest as returned by the node
func (c *Client) AccountHistory(ctx context.Context, req AccountHistoryRequest) ([]HistoryItem, error) {
	params := []any{req.Account, req.Start, req.Limit}

	var items []HistoryItem
	if err := c.call(ctx, "condenser_api.get_account_history", params, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Account holds the balances of a Hive account
type Account struct {
	Name          string `json:"name"`
	Balance       string `json:"balance"`
	HBDBalance    string `json:"hbd_balance"`
	VestingShares string `json:"vesting_shares"`
}

// Accounts fetches the named accounts
func (c *Client) Accounts(ctx context.Context, names []string) ([]Account, error) {
	var accounts []Account
	if err := c.call(ctx, "condenser_api.get_accounts", []any{names}, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}
