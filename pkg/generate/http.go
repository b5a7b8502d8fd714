package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cooketh/flow/pkg/errors"
	"github.com/cooketh/flow/pkg/layout"
	"github.com/cooketh/flow/pkg/observability"
)

const httpTimeout = 60 * time.Second

// maxResponseBytes caps how much of a generator response is read.
const maxResponseBytes = 4 << 20

// HTTPGenerator calls a JSON generation endpoint. It POSTs
//
//	{"prompt": "...", "style": "mindmap", "instruction": "..."}
//
// and expects a [Raw] object in the response body. Each call is a single
// attempt.
type HTTPGenerator struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// HTTPOption configures an [HTTPGenerator].
type HTTPOption func(*HTTPGenerator)

// WithHTTPClient replaces the default client (60s timeout).
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(g *HTTPGenerator) {
		if c != nil {
			g.http = c
		}
	}
}

// NewHTTPGenerator returns a generator posting to endpoint. A non-empty
// apiKey is sent as a bearer token.
func NewHTTPGenerator(endpoint, apiKey string, opts ...HTTPOption) *HTTPGenerator {
	g := &HTTPGenerator{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: httpTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type request struct {
	Prompt      string       `json:"prompt"`
	Style       layout.Style `json:"style"`
	Instruction string       `json:"instruction"`
}

// Generate implements [Generator].
func (g *HTTPGenerator) Generate(ctx context.Context, prompt string, style layout.Style) (Raw, error) {
	if err := errors.ValidateURL(g.endpoint); err != nil {
		return Raw{}, err
	}
	u, err := url.Parse(g.endpoint)
	if err != nil {
		return Raw{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse endpoint")
	}

	body, err := json.Marshal(request{Prompt: prompt, Style: style, Instruction: Instruction(style)})
	if err != nil {
		return Raw{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return Raw{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()

	resp, err := g.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		return Raw{}, errors.Wrap(errors.ErrCodeNetwork, err, "generate")
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return Raw{}, errors.New(errors.ErrCodeNetwork, "generate: status %d", resp.StatusCode)
	}

	var raw Raw
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&raw); err != nil {
		return Raw{}, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode generator response")
	}
	return raw, nil
}
