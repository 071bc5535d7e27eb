// Package scraper fetches raw job postings from external job boards.
package scraper

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"jobmate/ingestion-service/internal/model"
)

// ErrMissingCredentials is returned by sources that cannot authenticate.
var ErrMissingCredentials = errors.New("missing upstream credentials")

// Source is an external job-search API.
type Source interface {
	// Name identifies the source on stored postings.
	Name() string
	// Fetch returns at most max raw postings for query near location.
	Fetch(ctx context.Context, query, location string, max int) ([]model.RawPosting, error)
}

// Validator is implemented by sources that can check their configuration
// before any call is made.
type Validator interface {
	Validate() error
}

// Paced wraps a Source so that successive Fetch calls are at least delay
// apart. The first call goes through immediately.
type Paced struct {
	src     Source
	limiter *rate.Limiter
}

// NewPaced returns src paced by delay. A non-positive delay disables pacing.
func NewPaced(src Source, delay time.Duration) *Paced {
	lim := rate.NewLimiter(rate.Inf, 1)
	if delay > 0 {
		lim = rate.NewLimiter(rate.Every(delay), 1)
	}
	return &Paced{src: src, limiter: lim}
}

func (p *Paced) Name() string { return p.src.Name() }

func (p *Paced) Fetch(ctx context.Context, query, location string, max int) ([]model.RawPosting, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.src.Fetch(ctx, query, location, max)
}

// Validate forwards to the wrapped source when it supports validation.
func (p *Paced) Validate() error {
	if v, ok := p.src.(Validator); ok {
		return v.Validate()
	}
	return nil
}
