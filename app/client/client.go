// Package client is a Go SDK for the partner program API. It backs the link
// settings form with program reads, folder options and the update action.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/orochi-partners/app/dto"
	"github.com/amirphl/orochi-partners/utils"
	fiberclient "github.com/gofiber/fiber/v3/client"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-success API response
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// UserMessage returns the server message for display
func (e *APIError) UserMessage() string {
	return e.Message
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

type cacheEntry struct {
	body      []byte
	expiresAt time.Time
}

// Client is safe for concurrent use
type Client struct {
	http     *fiberclient.Client
	baseURL  string
	token    string
	cacheTTL time.Duration

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type Option func(*Client)

// WithCacheTTL sets how long program reads are served from memory. Zero disables
// expiry; entries then live until invalidated.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cacheTTL = ttl }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(timeout) }
}

// New creates a client for the API at baseURL authenticating with an access token
func New(baseURL, accessToken string, opts ...Option) *Client {
	c := &Client{
		http:     fiberclient.New().SetTimeout(defaultTimeout),
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		token:    accessToken,
		cacheTTL: time.Minute,
		cache:    make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) config(ctx context.Context, body any) fiberclient.Config {
	return fiberclient.Config{
		Ctx: ctx,
		Header: map[string]string{
			"Authorization": "Bearer " + c.token,
			"Accept":        "application/json",
		},
		Body: body,
	}
}

func workspacePath(workspaceID uint, parts ...string) string {
	path := fmt.Sprintf("/api/v1/workspaces/%d", workspaceID)
	for _, p := range parts {
		path += "/" + url.PathEscape(p)
	}
	return path
}

func decode(status int, raw []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{StatusCode: status, Code: "INVALID_RESPONSE", Message: "Unexpected response from server"}
	}
	if status >= 400 || !env.Success {
		return &APIError{StatusCode: status, Code: env.Error.Code, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) (int, []byte, error) {
	resp, err := c.http.Get(c.baseURL+path, c.config(ctx, nil))
	if err != nil {
		return 0, nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Close()
	return resp.StatusCode(), append([]byte(nil), resp.Body()...), nil
}

// GetProgram reads a program, serving repeated reads from the keyed cache
func (c *Client) GetProgram(ctx context.Context, workspaceID uint, programID string) (*dto.ProgramResponse, error) {
	key := utils.ProgramCacheKey(programID, workspaceID)
	if body, ok := c.cached(key); ok {
		var program dto.ProgramResponse
		if err := json.Unmarshal(body, &program); err == nil {
			return &program, nil
		}
	}

	status, raw, err := c.get(ctx, workspacePath(workspaceID, "programs", programID))
	if err != nil {
		return nil, err
	}
	var program dto.ProgramResponse
	if err := decode(status, raw, &program); err != nil {
		return nil, err
	}

	if body, err := json.Marshal(program); err == nil {
		c.store(key, body)
	}
	return &program, nil
}

func (c *Client) ListFolders(ctx context.Context, workspaceID uint) ([]dto.FolderItem, error) {
	status, raw, err := c.get(ctx, workspacePath(workspaceID, "folders"))
	if err != nil {
		return nil, err
	}
	var out dto.ListFoldersResponse
	if err := decode(status, raw, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) LinkStructureOptions(ctx context.Context, workspaceID uint, programID string) ([]dto.LinkStructureOptionItem, error) {
	status, raw, err := c.get(ctx, workspacePath(workspaceID, "programs", programID, "link-structures"))
	if err != nil {
		return nil, err
	}
	var out dto.LinkStructureOptionsResponse
	if err := decode(status, raw, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// UpdateLinkSettings calls the update action. It does not touch the cache;
// callers invalidate the program key once the update is applied.
func (c *Client) UpdateLinkSettings(ctx context.Context, req *dto.UpdateLinkSettingsRequest) (*dto.UpdateLinkSettingsResponse, error) {
	path := workspacePath(req.WorkspaceID, "programs", req.ProgramID, "link-settings")
	resp, err := c.http.Patch(c.baseURL+path, c.config(ctx, req))
	if err != nil {
		return nil, fmt.Errorf("PATCH %s: %w", path, err)
	}
	defer resp.Close()

	var out dto.UpdateLinkSettingsResponse
	if err := decode(resp.StatusCode(), resp.Body(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Invalidate drops a cached read
func (c *Client) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, key)
}

func (c *Client) cached(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(c.cache, key)
		return nil, false
	}
	return entry.body, true
}

func (c *Client) store(key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := cacheEntry{body: body}
	if c.cacheTTL > 0 {
		entry.expiresAt = time.Now().Add(c.cacheTTL)
	}
	c.cache[key] = entry
}
