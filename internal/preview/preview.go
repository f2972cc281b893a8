// Package preview resolves a link's preview image and title from the page it
// points at.
//
// The resolver is the one place where unreliable outbound I/O happens, so it
// never returns an error: any failure is logged and the caller gets fallback
// values (the default preview image and the URL as title).
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sakif/storelink/internal/metrics"
)

// DefaultUserAgent mimics a desktop browser. Some sites refuse requests
// without one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxBodyBytes = 5 << 20
	DefaultImage        = "/static/img/default-preview.svg"
)

// Config tunes the resolver. Zero values fall back to the defaults above.
type Config struct {
	Timeout      time.Duration
	UserAgent    string
	DefaultImage string
	MaxBodyBytes int64
}

// Resolver fetches Open Graph metadata over HTTP.
type Resolver struct {
	client       *http.Client
	userAgent    string
	defaultImage string
	maxBodyBytes int64
	logger       *slog.Logger
}

// New builds a Resolver with its own http.Client bounded by cfg.Timeout.
func New(cfg Config, logger *slog.Logger) *Resolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.DefaultImage == "" {
		cfg.DefaultImage = DefaultImage
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Resolver{
		client:       &http.Client{Timeout: cfg.Timeout},
		userAgent:    cfg.UserAgent,
		defaultImage: cfg.DefaultImage,
		maxBodyBytes: cfg.MaxBodyBytes,
		logger:       logger.With(slog.String("component", "preview")),
	}
}

// errHTTPStatus marks a non-2xx response.
var errHTTPStatus = errors.New("unexpected status")

// Fetch returns the preview image reference and title for rawURL.
//
// Resolution order for the title is og:title, then <title>, then rawURL.
// The image is og:image when it is an absolute http(s) URL, otherwise the
// default preview image.
func (r *Resolver) Fetch(ctx context.Context, rawURL string) (imageURL, title string) {
	imageURL, title = r.defaultImage, rawURL
	start := time.Now()

	doc, err := r.get(ctx, rawURL)
	if err != nil {
		outcome := metrics.OutcomeNetworkError
		switch {
		case errors.Is(err, errHTTPStatus):
			outcome = metrics.OutcomeHTTPError
		case errors.Is(err, errParse):
			outcome = metrics.OutcomeParseError
		}
		metrics.ObservePreviewFetch(outcome, time.Since(start))
		r.logger.Warn("preview fetch failed",
			slog.String("url", rawURL),
			slog.String("outcome", outcome),
			slog.String("error", err.Error()),
		)
		return imageURL, title
	}
	metrics.ObservePreviewFetch(metrics.OutcomeOK, time.Since(start))

	if img := metaContent(doc, "og:image"); img != "" && strings.HasPrefix(img, "http") {
		imageURL = img
	}

	if og := metaContent(doc, "og:title"); og != "" {
		title = og
	} else if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		title = t
	}

	return imageURL, title
}

var (
	errParse    = errors.New("parse html")
	errTooLarge = errors.New("body too large")
)

func (r *Resolver) get(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, fmt.Errorf("%w: %d", errHTTPStatus, resp.StatusCode)
	}

	// one byte past the cap tells a page that exactly fits from one that doesn't
	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(body)) > r.maxBodyBytes {
		return nil, fmt.Errorf("%w: over %d bytes", errTooLarge, r.maxBodyBytes)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errParse, err)
	}
	return doc, nil
}

func metaContent(doc *goquery.Document, property string) string {
	content, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return strings.TrimSpace(content)
}
