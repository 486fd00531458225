// Package appsync implements items.Gateway against an AWS AppSync GraphQL API
// authorized with Cognito user pool access tokens.
package appsync

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/louisbranch/itemdesk/internal/items"
	"github.com/louisbranch/itemdesk/internal/platform/timeouts"
)

const (
	listPageSize    = 100
	maxErrorBodyLen = 512
)

// Config locates the GraphQL endpoint.
type Config struct {
	Endpoint string `env:"ITEMDESK_APPSYNC_ENDPOINT"`
}

// Client is an items.Gateway backed by AppSync.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New builds a Client with an instrumented HTTP transport.
func New(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("appsync endpoint is required")
	}
	return NewWithHTTPClient(endpoint, &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeouts.BackendRequest,
	}), nil
}

// NewWithHTTPClient builds a Client over an existing HTTP client.
func NewWithHTTPClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: strings.TrimSpace(endpoint), httpClient: httpClient}
}

// StatusError is a non-2xx response from the GraphQL endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("appsync: status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatusCode matches the status accessor of AWS SDK response errors.
func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Unwrap exposes the matching items sentinel for authorization failures.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return items.ErrUnauthorized
	case http.StatusForbidden:
		return items.ErrForbidden
	default:
		return nil
	}
}

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message   string `json:"message"`
	ErrorType string `json:"errorType"`
}

// ResponseErrors reports GraphQL-level failures of an otherwise 200 response.
type ResponseErrors []GraphQLError

func (e ResponseErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, gqlErr := range e {
		msgs = append(msgs, strings.TrimSpace(gqlErr.ErrorType+" "+gqlErr.Message))
	}
	return "appsync: " + strings.Join(msgs, "; ")
}

// HTTPStatusCode reports 403 for authorization failures so callers can treat
// them like their HTTP counterpart.
func (e ResponseErrors) HTTPStatusCode() int {
	if e.unauthorized() {
		return http.StatusForbidden
	}
	return http.StatusBadGateway
}

func (e ResponseErrors) Unwrap() error {
	if e.unauthorized() {
		return items.ErrForbidden
	}
	return nil
}

func (e ResponseErrors) unauthorized() bool {
	for _, gqlErr := range e {
		if strings.EqualFold(gqlErr.ErrorType, "Unauthorized") {
			return true
		}
	}
	return false
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors ResponseErrors  `json:"errors"`
}

// do posts one operation and decodes its data into out.
func (c *Client) do(ctx context.Context, principal items.Principal, query string, vars map[string]any, out any) error {
	if strings.TrimSpace(principal.AccessToken) == "" {
		return items.ErrUnauthorized
	}
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode graphql request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.BackendRequest)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", principal.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("appsync request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var decoded graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode graphql response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return decoded.Errors
	}
	if out == nil || len(decoded.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(decoded.Data, out); err != nil {
		return fmt.Errorf("decode graphql data: %w", err)
	}
	return nil
}

// itemRecord is the wire shape of the Item model.
type itemRecord struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	OwnerID     string  `json:"owner_id"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func (r itemRecord) item() items.Item {
	item := items.Item{ID: r.ID, Title: r.Title, OwnerID: r.OwnerID}
	if r.Description != nil {
		item.Description = *r.Description
	}
	item.CreatedAt = parseTime(r.CreatedAt)
	item.UpdatedAt = parseTime(r.UpdatedAt)
	return item
}

func parseTime(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}

const itemFields = `id title description owner_id createdAt updatedAt`

const listItemsQuery = `query ListItems($limit: Int, $nextToken: String) {
  listItems(limit: $limit, nextToken: $nextToken) {
    items { ` + itemFields + ` }
    nextToken
  }
}`

const getItemQuery = `query GetItem($id: ID!) {
  getItem(id: $id) { ` + itemFields + ` }
}`

const createItemMutation = `mutation CreateItem($input: CreateItemInput!) {
  createItem(input: $input) { ` + itemFields + ` }
}`

const updateItemMutation = `mutation UpdateItem($input: UpdateItemInput!) {
  updateItem(input: $input) { ` + itemFields + ` }
}`

const deleteItemMutation = `mutation DeleteItem($input: DeleteItemInput!) {
  deleteItem(input: $input) { id }
}`

// List pages through every item the backend lets the principal read.
func (c *Client) List(ctx context.Context, principal items.Principal) ([]items.Item, error) {
	out := []items.Item{}
	var nextToken *string
	for {
		var data struct {
			ListItems struct {
				Items     []itemRecord `json:"items"`
				NextToken *string      `json:"nextToken"`
			} `json:"listItems"`
		}
		vars := map[string]any{"limit": listPageSize}
		if nextToken != nil {
			vars["nextToken"] = *nextToken
		}
		if err := c.do(ctx, principal, listItemsQuery, vars, &data); err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		for _, rec := range data.ListItems.Items {
			out = append(out, rec.item())
		}
		nextToken = data.ListItems.NextToken
		if nextToken == nil || *nextToken == "" {
			break
		}
	}
	return out, nil
}

// Get returns one item; a null result is items.ErrNotFound.
func (c *Client) Get(ctx context.Context, principal items.Principal, itemID string) (items.Item, error) {
	var data struct {
		GetItem *itemRecord `json:"getItem"`
	}
	if err := c.do(ctx, principal, getItemQuery, map[string]any{"id": itemID}, &data); err != nil {
		return items.Item{}, fmt.Errorf("get item: %w", err)
	}
	if data.GetItem == nil {
		return items.Item{}, items.ErrNotFound
	}
	return data.GetItem.item(), nil
}

// Create adds an item owned by the principal.
func (c *Client) Create(ctx context.Context, principal items.Principal, input items.Input) (items.Item, error) {
	input, err := input.Normalize()
	if err != nil {
		return items.Item{}, err
	}
	var data struct {
		CreateItem *itemRecord `json:"createItem"`
	}
	vars := map[string]any{"input": map[string]any{
		"title":       input.Title,
		"description": input.Description,
		"owner_id":    principal.UserID,
	}}
	if err := c.do(ctx, principal, createItemMutation, vars, &data); err != nil {
		return items.Item{}, fmt.Errorf("create item: %w", err)
	}
	if data.CreateItem == nil {
		return items.Item{}, errors.New("create item: empty result")
	}
	return data.CreateItem.item(), nil
}

// Update replaces the editable fields of an item.
func (c *Client) Update(ctx context.Context, principal items.Principal, itemID string, input items.Input) (items.Item, error) {
	input, err := input.Normalize()
	if err != nil {
		return items.Item{}, err
	}
	var data struct {
		UpdateItem *itemRecord `json:"updateItem"`
	}
	vars := map[string]any{"input": map[string]any{
		"id":          itemID,
		"title":       input.Title,
		"description": input.Description,
	}}
	if err := c.do(ctx, principal, updateItemMutation, vars, &data); err != nil {
		return items.Item{}, fmt.Errorf("update item: %w", err)
	}
	if data.UpdateItem == nil {
		return items.Item{}, items.ErrNotFound
	}
	return data.UpdateItem.item(), nil
}

// Delete removes an item.
func (c *Client) Delete(ctx context.Context, principal items.Principal, itemID string) error {
	vars := map[string]any{"input": map[string]any{"id": itemID}}
	if err := c.do(ctx, principal, deleteItemMutation, vars, nil); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

var _ items.Gateway = (*Client)(nil)
