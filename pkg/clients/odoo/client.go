package odoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rmaldonado/stocksync/internal/config"
)

// ErrNotFound indicates the requested record id or code does not resolve.
var ErrNotFound = errors.New("odoo: record not found")

// ErrInvalidArgument indicates a malformed request that never reached Odoo.
var ErrInvalidArgument = errors.New("odoo: invalid argument")

// ErrAuthentication indicates the credentials were rejected by the server.
var ErrAuthentication = errors.New("odoo: authentication failed")

// Exception class Odoo raises when an entity call names a record id that
// does not exist or was deleted.
const missingErrorName = "odoo.exceptions.MissingError"

// Client is a resty-backed Odoo JSON-RPC client. Authenticate must be called
// once before any entity operation; failure to authenticate is fatal at
// startup, not per call.
type Client struct {
	httpClient *resty.Client
	database   string
	username   string
	password   string
	companyID  int64

	uid    int64
	callID atomic.Int64

	now func() time.Time
}

// NewClient builds an Odoo API client using the provided configuration values.
func NewClient(cfg config.OdooConfig) *Client {
	base := strings.TrimSuffix(cfg.URL, "/")

	restyClient := resty.New()
	restyClient.
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)

	return &Client{
		httpClient: restyClient,
		database:   cfg.Database,
		username:   cfg.Username,
		password:   cfg.Password,
		companyID:  cfg.CompanyID,
		now:        time.Now,
	}
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int64     `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call posts one JSON-RPC request to /jsonrpc and unmarshals result into out.
func (c *Client) call(ctx context.Context, service, method string, args []any, out any) error {
	payload := rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  rpcParams{Service: service, Method: method, Args: args},
		ID:      c.callID.Add(1),
	}

	envelope := new(rpcEnvelope)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(envelope).
		Post("/jsonrpc")
	if err != nil {
		return fmt.Errorf("odoo rpc %s.%s: %w", service, method, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("odoo rpc %s.%s: http status %d", service, method, resp.StatusCode())
	}

	if envelope.Error != nil {
		message := envelope.Error.Message
		if envelope.Error.Data.Message != "" {
			message = envelope.Error.Data.Message
		}
		// Odoo reports an unresolvable record id as a MissingError exception,
		// not an empty result.
		if envelope.Error.Data.Name == missingErrorName {
			return fmt.Errorf("odoo rpc %s.%s: %w: %s", service, method, ErrNotFound, message)
		}
		return fmt.Errorf("odoo rpc %s.%s: code=%d, message=%s", service, method, envelope.Error.Code, message)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("odoo rpc %s.%s: decode result: %w", service, method, err)
		}
	}

	return nil
}

// Authenticate resolves and caches the user id for subsequent entity calls.
// Odoo answers a bad login with a literal false instead of an error payload.
func (c *Client) Authenticate(ctx context.Context) error {
	args := []any{c.database, c.username, c.password, map[string]any{}}

	var result any
	if err := c.call(ctx, "common", "authenticate", args, &result); err != nil {
		return err
	}

	uid, ok := result.(float64)
	if !ok || uid <= 0 {
		return ErrAuthentication
	}

	c.uid = int64(uid)
	return nil
}

// executeKw invokes an entity method through the object service.
func (c *Client) executeKw(ctx context.Context, model, method string, args []any, kwargs map[string]any, out any) error {
	if c.uid == 0 {
		return fmt.Errorf("%w: client not authenticated", ErrAuthentication)
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}

	callArgs := []any{c.database, c.uid, c.password, model, method, args, kwargs}
	return c.call(ctx, "object", "execute_kw", callArgs, out)
}

// SearchRead searches model records matching domain and reads the requested
// fields in one round trip. A limit of zero means no limit.
func (c *Client) SearchRead(ctx context.Context, model string, domain []any, fields []string, limit, offset int, out any) error {
	kwargs := map[string]any{}
	if len(fields) > 0 {
		kwargs["fields"] = fields
	}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	if offset > 0 {
		kwargs["offset"] = offset
	}

	return c.executeKw(ctx, model, "search_read", []any{domain}, kwargs, out)
}

// Search returns the ids of model records matching domain.
func (c *Client) Search(ctx context.Context, model string, domain []any, limit int) ([]int64, error) {
	kwargs := map[string]any{}
	if limit > 0 {
		kwargs["limit"] = limit
	}

	var ids []int64
	if err := c.executeKw(ctx, model, "search", []any{domain}, kwargs, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SearchCount returns how many model records match domain.
func (c *Client) SearchCount(ctx context.Context, model string, domain []any) (int64, error) {
	var count int64
	if err := c.executeKw(ctx, model, "search_count", []any{domain}, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// Read fetches the requested fields of the given record ids.
func (c *Client) Read(ctx context.Context, model string, ids []int64, fields []string, out any) error {
	kwargs := map[string]any{}
	if len(fields) > 0 {
		kwargs["fields"] = fields
	}

	return c.executeKw(ctx, model, "read", []any{ids}, kwargs, out)
}

// Write updates the given record ids with values.
func (c *Client) Write(ctx context.Context, model string, ids []int64, values map[string]any) error {
	var ok bool
	if err := c.executeKw(ctx, model, "write", []any{ids, values}, nil, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("odoo write on %s %v reported failure", model, ids)
	}
	return nil
}

// Create inserts a new model record and returns its id.
func (c *Client) Create(ctx context.Context, model string, values map[string]any) (int64, error) {
	var id int64
	if err := c.executeKw(ctx, model, "create", []any{values}, nil, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// eq builds one equality condition of an Odoo search domain.
func eq(field string, value any) []any {
	return []any{field, "=", value}
}
