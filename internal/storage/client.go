// Package storage provides the client for the remote object store holding the
// report tree. The store speaks the Dropbox content API: folder metadata reads,
// idempotent folder creation, server-side copies and overwrite uploads. Short-
// lived bearer tokens are obtained from the long-lived refresh credential via
// OAuth2 and renewed transparently.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.uber.org/fx"
	"golang.org/x/oauth2"

	"github.com/borealgeo/arvault/internal/config"
	"github.com/borealgeo/arvault/pkg/logger"
)

var Module = fx.Module("storage",
	fx.Provide(NewClient),
)

// Sentinel errors mapped from the store's conflict responses.
var (
	// ErrNotFound means the referenced path does not exist
	ErrNotFound = errors.New("storage: path not found")
	// ErrConflict means the destination already exists
	ErrConflict = errors.New("storage: path conflict")
	// ErrDisabled means the store credentials are not configured
	ErrDisabled = errors.New("storage: client not configured")
)

// Client talks to the remote object store. It is safe for concurrent use;
// token refresh is handled inside the underlying oauth2 transport.
type Client struct {
	httpClient *http.Client
	apiURL     string
	contentURL string
	log        *slog.Logger
}

// NewClient creates the store client. With incomplete credentials a disabled
// client is returned: every operation fails with ErrDisabled but the server
// still boots, matching how the rest of the app treats optional backends.
func NewClient(cfg *config.Config, log *slog.Logger) *Client {
	scoped := log.With(logger.Scope("storage"))

	c := &Client{
		apiURL:     strings.TrimRight(cfg.Storage.APIURL, "/"),
		contentURL: strings.TrimRight(cfg.Storage.ContentURL, "/"),
		log:        scoped,
	}

	if !cfg.Storage.Enabled() {
		scoped.Warn("storage client disabled - credentials not configured")
		return c
	}

	oc := &oauth2.Config{
		ClientID:     cfg.Storage.ClientID,
		ClientSecret: cfg.Storage.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.Storage.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	// The retrying base client handles both token-exchange POSTs and store
	// calls; oauth2 picks it up through the context.
	base := &http.Client{
		Timeout:   cfg.Fetch.Timeout,
		Transport: newRetryTransport(http.DefaultTransport, cfg.Fetch.MaxRetries, cfg.Fetch.BackoffBase),
	}
	baseCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)

	ts := oc.TokenSource(baseCtx, &oauth2.Token{
		RefreshToken: cfg.Storage.RefreshToken,
	})
	c.httpClient = oauth2.NewClient(baseCtx, ts)

	scoped.Info("storage client initialized",
		slog.String("api_url", c.apiURL),
	)

	return c
}

// Enabled returns true if the client has credentials
func (c *Client) Enabled() bool {
	return c.httpClient != nil
}

// apiError is the store's structured error body
type apiError struct {
	Summary string `json:"error_summary"`
}

// classify maps a non-2xx RPC response to a sentinel or generic error
func classify(status int, body []byte) error {
	var ae apiError
	_ = json.Unmarshal(body, &ae)

	if status == http.StatusConflict {
		if strings.Contains(ae.Summary, "not_found") {
			return ErrNotFound
		}
		if strings.Contains(ae.Summary, "conflict") {
			return ErrConflict
		}
	}
	if ae.Summary != "" {
		return fmt.Errorf("storage: %s (http %d)", ae.Summary, status)
	}
	return fmt.Errorf("storage: http %d", status)
}

// rpc issues a JSON RPC call against the api endpoint
func (c *Client) rpc(ctx context.Context, path string, args any) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("storage: marshal args: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("storage: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return classify(resp.StatusCode, body)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// GetMetadata checks that a path exists. Returns ErrNotFound when it does not.
func (c *Client) GetMetadata(ctx context.Context, path string) error {
	return c.rpc(ctx, "/2/files/get_metadata", map[string]any{"path": path})
}

// CreateFolder creates a folder. Returns ErrConflict when it already exists.
func (c *Client) CreateFolder(ctx context.Context, path string) error {
	return c.rpc(ctx, "/2/files/create_folder_v2", map[string]any{"path": path})
}

// EnsureFolder makes sure a folder exists: a metadata read followed by a
// create when absent. A create conflict (lost race) counts as success.
func (c *Client) EnsureFolder(ctx context.Context, path string) error {
	err := c.GetMetadata(ctx, path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	err = c.CreateFolder(ctx, path)
	if errors.Is(err, ErrConflict) {
		return nil
	}
	if err != nil {
		return err
	}

	c.log.Debug("folder created", slog.String("path", path))
	return nil
}

// Copy performs a server-side copy without autorename. Returns ErrConflict
// when the destination exists and ErrNotFound when the source is missing.
func (c *Client) Copy(ctx context.Context, fromPath, toPath string) error {
	return c.rpc(ctx, "/2/files/copy_v2", map[string]any{
		"from_path":  fromPath,
		"to_path":    toPath,
		"autorename": false,
	})
}

// uploadArg is serialized into the Dropbox-API-Arg header
type uploadArg struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Mute bool   `json:"mute"`
}

// Upload stores data at path with overwrite semantics, so re-runs of the same
// job converge instead of failing or duplicating.
func (c *Client) Upload(ctx context.Context, path string, data []byte) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	arg, err := json.Marshal(uploadArg{Path: path, Mode: "overwrite", Mute: true})
	if err != nil {
		return fmt.Errorf("storage: marshal upload arg: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contentURL+"/2/files/upload", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("storage: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Dropbox-API-Arg", string(arg))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return classify(resp.StatusCode, body)
	}

	c.log.Debug("object uploaded",
		slog.String("path", path),
		slog.Int("size", len(data)),
	)

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Download retrieves a stored object's bytes.
func (c *Client) Download(ctx context.Context, path string) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	arg, err := json.Marshal(map[string]string{"path": path})
	if err != nil {
		return nil, fmt.Errorf("storage: marshal download arg: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contentURL+"/2/files/download", nil)
	if err != nil {
		return nil, fmt.Errorf("storage: build request: %w", err)
	}
	req.Header.Set("Dropbox-API-Arg", string(arg))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, classify(resp.StatusCode, body)
	}

	return io.ReadAll(resp.Body)
}
