package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to Supabase's PostgREST and auth endpoints with the service
// key.
type Client struct {
	URL        string
	ServiceKey string
	HTTPClient *http.Client
}

// NewClient creates a new Supabase client
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		URL:        baseURL,
		ServiceKey: serviceKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// APIError is a non-2xx response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase error (status %d): %s", e.Status, e.Body)
}

// IsConflict reports whether err is a 409 from PostgREST, which is what a
// unique index violation turns into.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

// Filter is a set of PostgREST query parameters, e.g. {"user_id": "eq.123"}.
type Filter map[string]string

func (c *Client) do(ctx context.Context, method, path string, filter Filter, payload any, prefer string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, body)
	if err != nil {
		return nil, err
	}
	if len(filter) > 0 {
		q := url.Values{}
		for k, v := range filter {
			q.Add(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// Query selects rows from table.
func (c *Client) Query(ctx context.Context, table string, filter Filter) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/rest/v1/"+table, filter, nil, "")
}

// Insert inserts one row or a slice of rows and returns the stored rows.
func (c *Client) Insert(ctx context.Context, table string, data any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/rest/v1/"+table, nil, data, "return=representation")
}

// Upsert inserts rows, merging into existing rows that collide on the
// onConflict columns (e.g. "user_id").
func (c *Client) Upsert(ctx context.Context, table string, data any, onConflict string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/rest/v1/"+table, Filter{"on_conflict": onConflict}, data,
		"return=representation,resolution=merge-duplicates")
}

// UpdateWhere patches every row matching filter.
func (c *Client) UpdateWhere(ctx context.Context, table string, filter Filter, data any) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, "/rest/v1/"+table, filter, data, "return=representation")
}

// DeleteWhere deletes every row matching filter and returns the deleted rows.
func (c *Client) DeleteWhere(ctx context.Context, table string, filter Filter) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, "/rest/v1/"+table, filter, nil, "return=representation")
}

// User is the subset of a Supabase auth user the service needs.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// VerifyToken resolves an access token to its user through the auth API.
func (c *Client) VerifyToken(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.ServiceKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}
