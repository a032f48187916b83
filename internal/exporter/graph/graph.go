package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shineum/email-composer/internal/exporter"
)

const (
	defaultGraphURL = "https://graph.microsoft.com/v1.0"
	tokenURLFormat  = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

	// maxRetries is the maximum number of retry attempts for transient failures.
	maxRetries = 3

	// baseRetryDelay is the initial delay for exponential backoff.
	baseRetryDelay = 1 * time.Second

	// SimpleUploadLimit is the largest file the single-request upload accepts.
	SimpleUploadLimit = 4 << 20
)

// ErrTooLarge is returned for artifacts above SimpleUploadLimit.
var ErrTooLarge = errors.New("artifact exceeds Graph simple upload limit")

// Config holds the configuration for creating a Graph Exporter.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string

	// User is the UPN or id of the user whose drive receives the files.
	User string

	// Folder is the drive path under the root, e.g. "Email Composer".
	Folder string

	// RunID groups one session's artifacts in a sub-folder. A random UUID is
	// used when empty.
	RunID string
}

// Exporter uploads artifacts to <folder>/<run id>/<filename> in a OneDrive.
type Exporter struct {
	user       string
	folder     string
	runID      string
	graphURL   string
	httpClient *http.Client
	token      *tokenCache
	retryBase  time.Duration
}

// New creates a new Graph Exporter with the given configuration.
func New(cfg Config) (*Exporter, error) {
	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.User == "" {
		return nil, errors.New("graph exporter requires tenant id, client id, client secret and user")
	}

	client := &http.Client{Timeout: 30 * time.Second}
	return newWithOverrides(cfg, defaultGraphURL, fmt.Sprintf(tokenURLFormat, cfg.TenantID), client), nil
}

// newWithOverrides creates an Exporter with custom URLs and HTTP client,
// used for testing.
func newWithOverrides(cfg Config, graphURL, tokenURL string, client *http.Client) *Exporter {
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	return &Exporter{
		user:       cfg.User,
		folder:     strings.Trim(cfg.Folder, "/"),
		runID:      runID,
		graphURL:   strings.TrimSuffix(graphURL, "/"),
		httpClient: client,
		token:      newTokenCache(tokenURL, cfg.ClientID, cfg.ClientSecret, client),
		retryBase:  baseRetryDelay,
	}
}

// Name returns the exporter name.
func (e *Exporter) Name() string {
	return "msgraph"
}

// UploadURL returns the content endpoint the named artifact is PUT to.
func (e *Exporter) UploadURL(filename string) string {
	var segments []string
	if e.folder != "" {
		for _, s := range strings.Split(e.folder, "/") {
			if s != "" {
				segments = append(segments, url.PathEscape(s))
			}
		}
	}
	segments = append(segments, url.PathEscape(e.runID), url.PathEscape(baseName(filename)))

	return fmt.Sprintf("%s/users/%s/drive/root:/%s:/content",
		e.graphURL, url.PathEscape(e.user), strings.Join(segments, "/"))
}

// Export uploads the artifact. Transient failures are retried with
// exponential backoff, HTTP 429 honours Retry-After, and a 401 triggers one
// token refresh.
func (e *Exporter) Export(ctx context.Context, a *exporter.Artifact) error {
	if len(a.Content) > SimpleUploadLimit {
		return fmt.Errorf("%w: %s is %s", ErrTooLarge, a.Filename, exporter.FormatSize(len(a.Content)))
	}

	target := e.UploadURL(a.Filename)

	var lastErr error
	tokenRefreshed := false

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("retrying Graph upload",
				"attempt", attempt,
				"max_retries", maxRetries,
			)
		}

		item, err := e.upload(ctx, target, a)
		if err == nil {
			slog.Info("uploaded artifact to OneDrive",
				"name", item.Name,
				"size", item.Size,
				"web_url", item.WebURL,
			)
			return nil
		}
		lastErr = err

		var upErr *uploadError
		if !errors.As(err, &upErr) {
			return err
		}

		switch {
		case upErr.permanent:
			return upErr
		case upErr.statusCode == http.StatusUnauthorized && !tokenRefreshed:
			slog.Info("refreshing Graph API token after 401")
			if _, refreshErr := e.token.ForceRefresh(ctx); refreshErr != nil {
				return fmt.Errorf("token refresh failed: %w", refreshErr)
			}
			tokenRefreshed = true
		case upErr.statusCode == http.StatusTooManyRequests:
			delay := e.retryAfterDelay(upErr.retryAfter, attempt)
			slog.Info("rate limited by Graph API",
				"retry_after", delay,
			)
			if err := sleepWithContext(ctx, delay); err != nil {
				return fmt.Errorf("context cancelled during retry wait: %w", err)
			}
		case upErr.transient:
			delay := e.backoffDelay(attempt)
			slog.Info("transient Graph API error, retrying",
				"status", upErr.statusCode,
				"delay", delay,
			)
			if err := sleepWithContext(ctx, delay); err != nil {
				return fmt.Errorf("context cancelled during retry wait: %w", err)
			}
		default:
			return upErr
		}
	}

	return fmt.Errorf("Graph upload failed after %d retries: %w", maxRetries, lastErr)
}

// upload performs a single PUT of the artifact content.
func (e *Exporter) upload(ctx context.Context, target string, a *exporter.Artifact) (*driveItem, error) {
	token, err := e.token.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(a.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", a.ContentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("upload cancelled: %w", ctx.Err())
		}
		return nil, &uploadError{
			message:   fmt.Sprintf("HTTP request failed: %v", err),
			transient: true,
		}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	// 201 for a new file, 200 when an existing one is replaced.
	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK {
		var item driveItem
		if err := json.Unmarshal(body, &item); err != nil {
			slog.Warn("unexpected Graph upload response", "error", err)
		}
		return &item, nil
	}

	message := string(body)
	var errResp graphErrorResponse
	if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}
	return nil, classifyError(resp.StatusCode, message, resp.Header.Get("Retry-After"))
}

// uploadError is a failed Graph request classified for retry decisions.
type uploadError struct {
	message    string
	statusCode int
	permanent  bool
	transient  bool
	retryAfter string
}

func (e *uploadError) Error() string {
	return fmt.Sprintf("Graph API error (HTTP %d): %s", e.statusCode, e.message)
}

// classifyError categorizes an HTTP error response for retry decisions.
func classifyError(statusCode int, message, retryAfter string) *uploadError {
	err := &uploadError{
		message:    message,
		statusCode: statusCode,
		retryAfter: retryAfter,
	}

	switch {
	case statusCode == http.StatusUnauthorized,
		statusCode == http.StatusTooManyRequests,
		statusCode >= 500:
		err.transient = true
	default:
		err.permanent = true
	}
	return err
}

// retryAfterDelay parses a Retry-After value in seconds, falling back to
// exponential backoff when it is missing or invalid.
func (e *Exporter) retryAfterDelay(retryAfter string, attempt int) time.Duration {
	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return e.backoffDelay(attempt)
}

// backoffDelay returns the exponential backoff delay for the given attempt
// number: 1s, 2s, 4s with the default base.
func (e *Exporter) backoffDelay(attempt int) time.Duration {
	delay := e.retryBase
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// sleepWithContext waits for the specified duration or until the context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func baseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == ".." {
		return "artifact"
	}
	return name
}
