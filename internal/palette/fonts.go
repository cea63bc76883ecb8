// Package palette provides the RAL colour list and the font family list used
// by the style form. The font list may be refreshed from the Google Fonts API
// and always falls back to a static list.
package palette

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultFontsURL is the Google Fonts developer API endpoint.
const DefaultFontsURL = "https://www.googleapis.com/webfonts/v1/webfonts"

// FallbackFonts is served whenever the remote list is unavailable.
var FallbackFonts = []string{
	"Arial",
	"Helvetica",
	"Inter",
	"Lato",
	"Montserrat",
	"Open Sans",
	"Roboto",
	"Source Sans 3",
	"Times New Roman",
	"Verdana",
}

// Options configures a Provider.
type Options struct {
	FontsURL     string
	APIKey       string
	FetchTimeout time.Duration
	CacheFor     time.Duration
	Attempts     int
	HTTPClient   *http.Client
	Logger       *log.Logger
}

// Provider serves palette data. Safe for concurrent use.
type Provider struct {
	opts   Options
	logger *log.Logger

	mu        sync.Mutex
	fonts     []string
	fetchedAt time.Time
	now       func() time.Time
}

// NewProvider creates a palette provider. Without an API key only the
// fallback font list is served.
func NewProvider(opts Options) *Provider {
	if opts.FontsURL == "" {
		opts.FontsURL = DefaultFontsURL
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 3 * time.Second
	}
	if opts.CacheFor <= 0 {
		opts.CacheFor = time.Hour
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 2
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Provider{opts: opts, logger: logger.WithPrefix("palette"), now: time.Now}
}

// Fonts returns the font family list. Remote failures are logged and the
// fallback list is returned; Fonts never fails.
func (p *Provider) Fonts(ctx context.Context) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fonts != nil && p.now().Sub(p.fetchedAt) < p.opts.CacheFor {
		return append([]string(nil), p.fonts...)
	}
	if p.opts.APIKey == "" {
		return append([]string(nil), FallbackFonts...)
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.FetchTimeout)
	defer cancel()

	fonts, err := p.fetch(ctx)
	if err != nil {
		p.logger.Warn("font list unavailable, using fallback", "err", err)
		return append([]string(nil), FallbackFonts...)
	}

	p.fonts = fonts
	p.fetchedAt = p.now()
	p.logger.Debug("font list refreshed", "count", len(fonts))
	return append([]string(nil), fonts...)
}

type webfontsResponse struct {
	Items []struct {
		Family string `json:"family"`
	} `json:"items"`
}

// retryableError marks transient fetch failures.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func (p *Provider) fetch(ctx context.Context) ([]string, error) {
	u, err := url.Parse(p.opts.FontsURL)
	if err != nil {
		return nil, fmt.Errorf("fonts url: %w", err)
	}
	q := u.Query()
	q.Set("key", p.opts.APIKey)
	q.Set("sort", "popularity")
	u.RawQuery = q.Encode()

	var fonts []string
	err = retry(ctx, p.opts.Attempts, 200*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return err
		}
		resp, err := p.opts.HTTPClient.Do(req)
		if err != nil {
			return &retryableError{err}
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return &retryableError{fmt.Errorf("fonts api: status %d", resp.StatusCode)}
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("fonts api: status %d", resp.StatusCode)
		}

		var body webfontsResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&body); err != nil {
			return fmt.Errorf("fonts api: decode: %w", err)
		}
		fonts = fonts[:0]
		for _, item := range body.Items {
			if item.Family != "" {
				fonts = append(fonts, item.Family)
			}
		}
		if len(fonts) == 0 {
			return errors.New("fonts api: empty list")
		}
		return nil
	})
	return fonts, err
}

// retry runs fn up to attempts times, doubling delay after each retryable
// failure. Non-retryable errors are returned immediately.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.As(err, new(*retryableError)) {
			return err
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
