// Package push uploads local audio files to a running conversion server.
//
// Files are matched to pads by their names: "A1 kick.wav" goes to bank A,
// pad 1. Separators after the pad address may be a space, dash or underscore.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/SPODhub/mpc3000-snd-player/internal/sp12"
)

// Config holds the push client settings.
type Config struct {
	// ServerURL is the base URL of the conversion server.
	ServerURL string
	// BearerToken authenticates requests; empty disables auth.
	BearerToken string
	// Tuning is applied to every uploaded file, in semitones.
	Tuning int
	// Session selects a server-side session; empty uses the default.
	Session string
	// MaxRetries bounds upload attempts per file.
	MaxRetries int
}

// padNameRe matches a leading pad address like "A1" or "c7".
var padNameRe = regexp.MustCompile(`^([A-Da-d])([1-8])[ _-]`)

// Client pushes sample files to a conversion server.
type Client struct {
	cfg        *Config
	logger     *slog.Logger
	httpClient *http.Client
}

// NewClient creates a new push client.
func NewClient(cfg *Config, logger *slog.Logger) *Client {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ParsePadName extracts the (bank, pad) address from a file name like
// "A1 kick.wav". The second return value reports whether one was found.
func ParsePadName(name string) (sp12.Bank, int, bool) {
	m := padNameRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, 0, false
	}
	bank, err := sp12.ParseBank(m[1])
	if err != nil {
		return 0, 0, false
	}
	return bank, int(m[2][0] - '0'), true
}

// PushDir uploads every pad-addressed WAV and MP3 file in dir.
// Files without a pad address are logged and skipped.
func (c *Client) PushDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	pushed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".wav" && ext != ".mp3" {
			continue
		}

		bank, pad, ok := ParsePadName(entry.Name())
		if !ok {
			c.logger.Warn("skipping file without pad address", "file", entry.Name())
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := c.uploadWithRetry(ctx, path, bank, pad); err != nil {
			return fmt.Errorf("failed to push %s: %w", entry.Name(), err)
		}
		pushed++
	}

	c.logger.Info("push complete", "dir", dir, "files", pushed)
	return nil
}

// uploadWithRetry uploads one file, retrying transient failures with
// exponential backoff capped at 30 seconds.
func (c *Client) uploadWithRetry(ctx context.Context, path string, bank sp12.Bank, pad int) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		lastErr = c.UploadFile(ctx, path, bank, pad)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn("upload failed, retrying",
			"file", filepath.Base(path),
			"attempt", attempt,
			"error", lastErr,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return lastErr
}

// UploadFile posts one file to the server's pad endpoint.
func (c *Client) UploadFile(ctx context.Context, path string, bank sp12.Bank, pad int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}

	fields := map[string]string{
		"bank":   bank.String(),
		"pad":    fmt.Sprintf("%d", pad),
		"tuning": fmt.Sprintf("%d", c.cfg.Tuning),
	}
	if c.cfg.Session != "" {
		fields["session"] = c.cfg.Session
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := form.Close(); err != nil {
		return err
	}

	url := strings.TrimSuffix(c.cfg.ServerURL, "/") + "/v1/pads"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	if c.cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	// The converted sample comes back in the response; drain and discard it,
	// the server has already recorded the pad assignment.
	io.Copy(io.Discard, resp.Body)

	c.logger.Info("uploaded", "file", filepath.Base(path), "bank", bank.String(), "pad", pad)
	return nil
}

// readErrorBody extracts the error message from a JSON error response.
func readErrorBody(r io.Reader) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&e); err != nil || e.Error == "" {
		return "unknown error"
	}
	return e.Error
}
