package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/safari-cb-converter/internal/models"
)

// ErrNoSource is returned for a list with neither a URL nor a path
var ErrNoSource = errors.New("filter list has no url or path")

// Maximum number of lists downloaded at the same time
const maxParallel = 4

// Fetcher downloads filter lists
type Fetcher struct {
	client  *http.Client
	retries int
	backoff time.Duration
	logger  zerolog.Logger
}

// New creates a new fetcher from config
func New(cfg models.HTTPConfig, logger zerolog.Logger) *Fetcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	retries := cfg.Retries
	if retries == 0 {
		retries = 3
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		retries: retries,
		backoff: time.Second,
		logger:  logger,
	}
}

// Fetch downloads content from a URL with retries
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for i := 0; i < f.retries; i++ {
		if i > 0 {
			// Linear backoff
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * f.backoff):
			}
		}

		data, err := f.doFetch(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		f.logger.Debug().Err(err).Str("url", url).Int("attempt", i+1).Msg("download failed")
	}

	return nil, fmt.Errorf("failed after %d retries: %w", f.retries, lastErr)
}

// Load returns the content of a filter list, from its URL or its local path
func (f *Fetcher) Load(ctx context.Context, list models.FilterList) ([]byte, error) {
	switch {
	case list.URL != "":
		return f.Fetch(ctx, list.URL)
	case list.Path != "":
		data, err := os.ReadFile(list.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", list.Path, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%s: %w", list.Name, ErrNoSource)
	}
}

// Result is the outcome of loading one list
type Result struct {
	List models.FilterList
	Data []byte
	Err  error
}

// LoadAll loads lists concurrently. Results keep the order of lists; a
// failed list carries its error and does not stop the others.
func (f *Fetcher) LoadAll(ctx context.Context, lists []models.FilterList) []Result {
	results := make([]Result, len(lists))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for i, list := range lists {
		i, list := i, list
		g.Go(func() error {
			start := time.Now()
			data, err := f.Load(ctx, list)
			results[i] = Result{List: list, Data: data, Err: err}

			if err != nil {
				f.logger.Warn().Err(err).Str("list", list.Name).Msg("cannot load filter list")
				return nil
			}
			f.logger.Debug().
				Str("list", list.Name).
				Int("bytes", len(data)).
				Dur("took", time.Since(start)).
				Msg("filter list loaded")
			return nil
		})
	}

	// Workers never return an error
	_ = g.Wait()

	return results
}

func (f *Fetcher) doFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "safari-cb-converter/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}
