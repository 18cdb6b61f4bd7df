// Package placementapi is a client for the corporate placement record
// endpoint. Imported placements are mirrored there so the media agency's
// dashboard sees them without direct database access.
package placementapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Record is one placement submission.
type Record struct {
	ID        string    `json:"id"`
	Brand     string    `json:"brand"`
	Campaign  string    `json:"campaign"`
	Provider  string    `json:"provider"`
	Type      string    `json:"type"`
	State     string    `json:"state"`
	City      string    `json:"city"`
	Address   string    `json:"address"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	// ImagePath, when set, attaches the creative photo to the submission.
	ImagePath string `json:"-"`
}

// Client submits placement records.
type Client interface {
	SubmitRecord(ctx context.Context, rec Record) error
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithRateLimit sets the requests-per-second limit for submissions.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(key string) Option {
	return func(c *client) { c.apiKey = key }
}

type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Client for the record endpoint at baseURL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(5, 1), // endpoint default: 5 req/s
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitRecord posts one placement record as a multipart form with a
// JSON "record" field and an optional "image" file part.
func (c *client) SubmitRecord(ctx context.Context, rec Record) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "placementapi: rate limit")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	payload, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "placementapi: marshal record")
	}
	if err := writer.WriteField("record", string(payload)); err != nil {
		return eris.Wrap(err, "placementapi: write record field")
	}

	if rec.ImagePath != "" {
		if err := attachImage(writer, rec.ImagePath); err != nil {
			return err
		}
	}

	if err := writer.Close(); err != nil {
		return eris.Wrap(err, "placementapi: close multipart writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/records", &buf)
	if err != nil {
		return eris.Wrap(err, "placementapi: build request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "placementapi: submit record")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return eris.Errorf("placementapi: endpoint returned status %d: %s", resp.StatusCode, body)
	}
	return nil
}

func attachImage(writer *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "placementapi: open image %s", path)
	}
	defer f.Close() //nolint:errcheck

	part, err := writer.CreateFormFile("image", filepath.Base(path))
	if err != nil {
		return eris.Wrap(err, "placementapi: create image part")
	}
	if _, err := io.Copy(part, f); err != nil {
		return eris.Wrapf(err, "placementapi: copy image %s", path)
	}
	return nil
}
