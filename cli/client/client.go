// Package client provides the HTTP client for the SocialGraph API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GraphQLPath is where the server accepts GraphQL requests
const GraphQLPath = "/api/v1/graphql/"

// Client is the SocialGraph API client
type Client struct {
	// BaseURL is the SocialGraph server URL
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// Token is sent as a bearer token when non-empty
	Token string

	// Debug enables request logging to stderr
	Debug bool

	// UserAgent to use for requests
	UserAgent string
}

// ClientOption configures the client
type ClientOption func(*Client)

// NewClient creates a new API client
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		UserAgent: "sgctl/1.0",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithDebug enables debug mode
func WithDebug(debug bool) ClientOption {
	return func(c *Client) {
		c.Debug = debug
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.HTTPClient.Timeout = timeout
	}
}

// WithToken sets the bearer token
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.Token = token
	}
}

// GraphQLRequest is the body of a GraphQL request
type GraphQLRequest struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
}

// GraphQLResponse is the body of a GraphQL response
type GraphQLResponse struct {
	Data   interface{}    `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// GraphQLError is one entry of a response's errors list
type GraphQLError struct {
	Message    string                 `json:"message"`
	Locations  []GraphQLErrorLocation `json:"locations,omitempty"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// GraphQLErrorLocation points at the offending part of the query
type GraphQLErrorLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Code returns the error code from the extensions, if any
func (e GraphQLError) Code() string {
	code, _ := e.Extensions["code"].(string)
	return code
}

// Request makes an API request
func (c *Client) Request(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	if c.Debug {
		fmt.Printf("DEBUG: %s %s\n", method, u.String())
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// DoGet performs a GET request and decodes the response into target
func (c *Client) DoGet(ctx context.Context, path string, target interface{}) error {
	resp, err := c.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeBody(resp, target)
}

// GraphQL posts a request to the GraphQL endpoint. Error responses the
// server shapes as GraphQL (bad request, forbidden, rate limited) are
// returned as a response with Errors set rather than as an error.
func (c *Client) GraphQL(ctx context.Context, req GraphQLRequest) (*GraphQLResponse, error) {
	resp, err := c.Request(ctx, http.MethodPost, GraphQLPath, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeGraphQL(resp)
}

// Introspect fetches the full schema through the GET endpoint
func (c *Client) Introspect(ctx context.Context) (*GraphQLResponse, error) {
	resp, err := c.Request(ctx, http.MethodGet, GraphQLPath, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeGraphQL(resp)
}

func decodeGraphQL(resp *http.Response) (*GraphQLResponse, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out GraphQLResponse
	if err := json.Unmarshal(body, &out); err != nil || (out.Data == nil && len(out.Errors) == 0) {
		if resp.StatusCode >= 400 {
			return nil, newAPIError(resp.StatusCode, body)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return &out, nil
}

func decodeBody(resp *http.Response, target interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return newAPIError(resp.StatusCode, body)
	}
	if target == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// APIError represents a non-GraphQL error response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		message = payload.Error
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: message}
}
