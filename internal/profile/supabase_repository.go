package profile

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

const (
	supabaseTable   = "profiles"
	profileColumns  = "clerk_id,first_name,last_name"
	maxErrorBodyLen = 4 << 10
)

// SupabaseRepository talks to the Supabase REST (PostgREST) endpoint of a project.
type SupabaseRepository struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewSupabaseRepository creates a repository for the project at baseURL authenticated with apiKey.
// A nil client gets a 10s timeout default.
func NewSupabaseRepository(baseURL, apiKey string, client *http.Client) *SupabaseRepository {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &SupabaseRepository{
		httpClient: client,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
	}
}

type supabaseRow struct {
	ClerkID   string  `json:"clerk_id"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// postgrestError matches the error body PostgREST returns.
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (r *SupabaseRepository) Upsert(ctx context.Context, p Profile) error {
	if p.ClerkID == "" {
		return ErrMissingClerkID
	}
	body, err := json.Marshal([]supabaseRow{{ClerkID: p.ClerkID, FirstName: p.FirstName, LastName: p.LastName}})
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	q := url.Values{}
	q.Set("on_conflict", "clerk_id")
	req, err := r.newRequest(ctx, http.MethodPost, q, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase upsert: %w", err)
	}
	defer resp.Body.Close()
	return checkResponse(resp, "upsert")
}

func (r *SupabaseRepository) Get(ctx context.Context, clerkID string) (*Profile, error) {
	q := url.Values{}
	q.Set("select", profileColumns)
	q.Set("clerk_id", "eq."+clerkID)
	q.Set("limit", "1")
	req, err := r.newRequest(ctx, http.MethodGet, q, nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase get: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse(resp, "get"); err != nil {
		return nil, err
	}

	var rows []supabaseRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	row := rows[0]
	return &Profile{ClerkID: row.ClerkID, FirstName: row.FirstName, LastName: row.LastName}, nil
}

func (r *SupabaseRepository) Delete(ctx context.Context, clerkID string) error {
	q := url.Values{}
	q.Set("clerk_id", "eq."+clerkID)
	req, err := r.newRequest(ctx, http.MethodDelete, q, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=minimal")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase delete: %w", err)
	}
	defer resp.Body.Close()
	return checkResponse(resp, "delete")
}

func (r *SupabaseRepository) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "clerk_id")
	q.Set("limit", "1")
	req, err := r.newRequest(ctx, http.MethodGet, q, nil)
	if err != nil {
		return err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase ping: %w", err)
	}
	defer resp.Body.Close()
	return checkResponse(resp, "ping")
}

func (r *SupabaseRepository) newRequest(ctx context.Context, method string, q url.Values, body io.Reader) (*http.Request, error) {
	endpoint := r.baseURL + "/rest/v1/" + supabaseTable
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build supabase request: %w", err)
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func checkResponse(resp *http.Response, op string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
	var pgErr postgrestError
	if err := json.Unmarshal(raw, &pgErr); err == nil && pgErr.Message != "" {
		return fmt.Errorf("supabase %s: status %d: %s (%s)", op, resp.StatusCode, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("supabase %s: status %d", op, resp.StatusCode)
}
