package search

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/paisapro/pricewise/internal/currency"
	"github.com/paisapro/pricewise/internal/domain/catalog"
	"github.com/paisapro/pricewise/internal/pkg/errors"
	"github.com/paisapro/pricewise/internal/pkg/logger"
	"github.com/paisapro/pricewise/internal/pkg/metrics"
	"github.com/paisapro/pricewise/internal/sources"
)

// Coordinator fans a search query out across the enabled catalog sources,
// normalizes each batch as it lands, and hands the completed set to the
// selector. One call returns one complete batch; there is no streaming.
type Coordinator struct {
	registry   *sources.Registry
	converter  *currency.Converter
	logger     *logger.Logger
	deadline   time.Duration
	maxResults int
}

// NewCoordinator creates a coordinator. deadline bounds a whole fan-out
// run; maxResults caps the offers requested from each source.
func NewCoordinator(reg *sources.Registry, conv *currency.Converter, deadline time.Duration, maxResults int, log *logger.Logger) *Coordinator {
	return &Coordinator{
		registry:   reg,
		converter:  conv,
		logger:     log,
		deadline:   deadline,
		maxResults: maxResults,
	}
}

// fetchOutcome is one source's complete result or its failure
type fetchOutcome struct {
	source   string
	products []catalog.RawProduct
	err      error
}

// Search runs the query and returns the ranked recommendations plus the
// per-source failure report. Partial failure is not an error; the call
// fails only when the query is invalid or every source failed.
func (c *Coordinator) Search(ctx context.Context, q catalog.SearchQuery) (*catalog.SearchResult, error) {
	if err := c.validate(q); err != nil {
		return nil, err
	}

	adapters, err := c.registry.Subset(q.Sources)
	if err != nil {
		return nil, errors.BadRequest(err.Error())
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.deadline)
	defer cancel()

	outcomes := make([]fetchOutcome, len(adapters))
	if q.Parallel {
		var wg sync.WaitGroup
		for i, a := range adapters {
			wg.Add(1)
			go func(i int, a sources.Adapter) {
				defer wg.Done()
				outcomes[i] = c.fetch(ctx, a, q.Term)
			}(i, a)
		}
		wg.Wait()
	} else {
		for i, a := range adapters {
			outcomes[i] = c.fetch(ctx, a, q.Term)
		}
	}

	// Collect in registry order so arrival order is stable across runs
	var normalized []catalog.NormalizedProduct
	var failures []catalog.SourceFailure
	for _, o := range outcomes {
		if o.err != nil {
			failures = append(failures, catalog.SourceFailure{
				Source: o.source,
				Reason: failureReason(o.err),
			})
			continue
		}
		for _, p := range o.products {
			prices, err := c.converter.Normalize(p.Price, p.Currency)
			if err != nil {
				c.logger.WithError(err).Warnf("dropping offer from %s", p.Source)
				continue
			}
			normalized = append(normalized, catalog.NormalizedProduct{
				RawProduct: p,
				Prices:     prices,
				Rate:       c.converter.Rate(),
			})
		}
	}

	duration := time.Since(start)
	metrics.RecordSearch(duration, len(failures))

	if len(failures) == len(adapters) {
		c.logger.WithFields(map[string]interface{}{
			"term":    q.Term,
			"sources": q.Sources,
		}).Error("every catalog source failed")
		return nil, errors.AllSourcesFailed(fmt.Errorf("%d of %d sources failed", len(failures), len(adapters))).
			WithDetails(failures)
	}

	recs := Select(normalized, SelectConfig{
		TopN:              q.TopN,
		SortByPrice:       q.SortByPrice,
		EqualDistribution: q.EqualDistribution,
		SourcePos:         c.registry.Position,
	})

	queried := make([]string, len(adapters))
	for i, a := range adapters {
		queried[i] = a.Name()
	}

	return &catalog.SearchResult{
		Query:           q,
		Recommendations: recs,
		Failures:        failures,
		SourcesQueried:  queried,
		Duration:        duration,
	}, nil
}

// fetch runs one adapter and records its metrics
func (c *Coordinator) fetch(ctx context.Context, a sources.Adapter, term string) fetchOutcome {
	start := time.Now()
	products, err := a.Fetch(ctx, term, c.maxResults)
	status := "ok"
	if err != nil {
		status = "error"
		if isTimeout(err) {
			status = "timeout"
		}
		c.logger.WithError(err).Warnf("source %s failed", a.Name())
	}
	metrics.RecordSourceFetch(a.Name(), status, time.Since(start))
	return fetchOutcome{source: a.Name(), products: products, err: err}
}

// validate rejects malformed queries before any source is contacted
func (c *Coordinator) validate(q catalog.SearchQuery) error {
	if strings.TrimSpace(q.Term) == "" {
		return errors.BadRequest("search term must not be blank")
	}
	if q.TopN < 1 {
		return errors.BadRequest("top_n must be at least 1")
	}
	if len(q.Sources) == 0 {
		return errors.BadRequest("at least one source must be requested")
	}
	return nil
}

// isTimeout distinguishes deadline misses from other source failures
func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if stderrors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return false
}

func failureReason(err error) string {
	if isTimeout(err) {
		return "timeout: " + err.Error()
	}
	return err.Error()
}
