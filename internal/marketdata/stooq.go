package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"retest-scanner/internal/errors"
	"retest-scanner/internal/models"
)

const stooqBaseURL = "https://stooq.com"

// StooqOptions holds options for creating a Stooq provider.
type StooqOptions struct {
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetryElapsed time.Duration
}

// StooqProvider fetches historical bars from the Stooq CSV endpoint.
// Requests are rate limited and retried with exponential backoff.
type StooqProvider struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxElapsed time.Duration
	logger     zerolog.Logger
}

// NewStooqProvider creates a new Stooq provider.
func NewStooqProvider(opts StooqOptions, logger zerolog.Logger) *StooqProvider {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxRetryElapsed == 0 {
		opts.MaxRetryElapsed = 30 * time.Second
	}

	return &StooqProvider{
		baseURL:    stooqBaseURL,
		httpClient: &http.Client{Timeout: opts.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), opts.RequestsPerSec),
		maxElapsed: opts.MaxRetryElapsed,
		logger:     logger.With().Str("component", "stooq_provider").Logger(),
	}
}

func (p *StooqProvider) Name() string {
	return "stooq"
}

// GetHistorical fetches bars for a symbol. Stooq serves completed
// periods only, daily and coarser intervals.
func (p *StooqProvider) GetHistorical(ctx context.Context, req Request) ([]models.Bar, error) {
	interval := req.Interval
	if interval == "" {
		interval = "d"
	}

	url := fmt.Sprintf("%s/q/d/l/?s=%s&i=%s", p.baseURL, strings.ToLower(req.Symbol), interval)
	if !req.From.IsZero() {
		url += "&d1=" + req.From.Format("20060102")
	}
	if !req.To.IsZero() {
		url += "&d2=" + req.To.Format("20060102")
	}

	p.logger.Debug().Str("symbol", req.Symbol).Str("url", url).Msg("Fetching bars")

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.NewProviderError(p.Name(), "rate limiter", err)
	}

	var body string
	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := p.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		buf := new(strings.Builder)
		if _, err := io.Copy(buf, resp.Body); err != nil {
			return err
		}
		body = buf.String()
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = p.maxElapsed

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return nil, errors.NewProviderError(p.Name(), "fetching "+req.Symbol, err)
	}

	if strings.Contains(body, "No data") || !strings.HasPrefix(body, "Date,") {
		return nil, errors.NewProviderError(p.Name(), "no data for "+req.Symbol, errors.ErrDataNotFound)
	}

	var rows []*csvRow
	if err := gocsv.UnmarshalString(body, &rows); err != nil {
		return nil, errors.NewProviderError(p.Name(), "parsing response for "+req.Symbol, err)
	}

	bars, dropped := parseRows(rows, time.Time{}, time.Time{})
	if dropped > 0 {
		p.logger.Warn().Int("dropped", dropped).Str("symbol", req.Symbol).Msg("Dropped unparsable rows")
	}
	if len(bars) == 0 {
		return nil, errors.NewProviderError(p.Name(), "no usable rows for "+req.Symbol, errors.ErrDataNotFound)
	}

	p.logger.Debug().Int("bars", len(bars)).Str("symbol", req.Symbol).Msg("Fetched bars")
	return bars, nil
}
