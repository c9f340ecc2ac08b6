package removal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/nao1215/gridcrop/internal/model"
	"github.com/nao1215/gridcrop/internal/raster"
	"github.com/nao1215/gridcrop/internal/transport"
)

// maxResponseBytes caps the response body read from the endpoint.
const maxResponseBytes = 256 << 20

// uploadChunk is the granularity of upload progress reports.
const uploadChunk = 32 << 10

// RemoteOptions configures a Remote service.
type RemoteOptions struct {
	// Endpoint receives a POST with the image as the body.
	Endpoint string
	// APIKey is sent as a bearer token when set.
	APIKey string
	// Proxy is an optional SOCKS5 host:port.
	Proxy string
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
	// RateInterval is the minimum time between requests. Zero disables
	// pacing.
	RateInterval time.Duration
	// CacheTTL keeps results keyed by input hash. Zero disables caching.
	CacheTTL time.Duration
}

// Remote calls an HTTP inference endpoint. Requests are paced by a rate
// limiter and results are cached by the BLAKE2b hash of the input, so the
// same crop sent twice costs one call.
type Remote struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	cache    *cache.Cache
	logger   *slog.Logger
}

// NewRemote validates opts and builds a Remote service.
func NewRemote(opts RemoteOptions, logger *slog.Logger) (*Remote, error) {
	u, err := url.Parse(opts.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: got %q", ErrNoEndpoint, opts.Endpoint)
	}

	clientOpts := []transport.ClientOption{transport.WithHeader("User-Agent", "gridcrop")}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, transport.WithHeader("Authorization", "Bearer "+opts.APIKey))
	}
	tc, err := transport.NewClient(opts.Proxy, opts.Timeout, clientOpts...)
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if opts.RateInterval > 0 {
		limit = rate.Every(opts.RateInterval)
	}

	r := &Remote{
		endpoint: u.String(),
		client:   tc.HTTPClient(),
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.CacheTTL > 0 {
		r.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return r, nil
}

// Name implements Service.
func (r *Remote) Name() string {
	return KindRemote
}

// RemoveBackground implements Service. Upload progress is reported as
// StageFetchUpload and StageComputeInference follows once the whole body
// has been sent.
func (r *Remote) RemoveBackground(ctx context.Context, input []byte, progress ProgressFunc) ([]byte, error) {
	total := int64(len(input))
	key := raster.Hash(input)

	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			r.logger.Debug("background removal cache hit", slog.String("hash", key))
			report(progress, StageFetchUpload, total, total)
			report(progress, StageComputeInference, 0, 0)
			return bytes.Clone(v.([]byte)), nil
		}
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: waiting for rate limiter: %w", model.ErrProcessing, err)
	}

	body := &progressReader{r: bytes.NewReader(input), total: total, fn: progress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %w", model.ErrProcessing, err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "image/png")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request to inference endpoint failed: %w", model.ErrProcessing, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck // best-effort detail
		return nil, fmt.Errorf("%w: %w: %d %s", model.ErrProcessing, ErrUnexpectedStatus,
			resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", model.ErrProcessing, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %w", model.ErrProcessing, ErrEmptyResponse)
	}
	if !raster.IsImageMIME(http.DetectContentType(data)) {
		return nil, fmt.Errorf("%w: %w", model.ErrProcessing, ErrNotImageResponse)
	}

	r.logger.Debug("background removed remotely",
		slog.Int("bytes_in", len(input)),
		slog.Int("bytes_out", len(data)),
		slog.Duration("elapsed", time.Since(start)))

	if r.cache != nil {
		r.cache.SetDefault(key, bytes.Clone(data))
	}
	return data, nil
}

// progressReader reports upload progress as the HTTP client reads the body
// and reports the compute stage once at EOF.
type progressReader struct {
	r     io.Reader
	total int64
	fn    ProgressFunc

	mu       sync.Mutex
	read     int64
	reported int64
	done     bool
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.read += int64(n)
	if p.read-p.reported >= uploadChunk || (err == io.EOF && p.read > p.reported) {
		p.reported = p.read
		report(p.fn, StageFetchUpload, p.read, p.total)
	}
	if err == io.EOF && !p.done {
		p.done = true
		if p.total == 0 {
			report(p.fn, StageFetchUpload, 0, 0)
		}
		report(p.fn, StageComputeInference, 0, 0)
	}
	return n, err
}
