/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
	"golang.org/x/time/rate"
)

// RateLimited paces calls to an inner backend.
type RateLimited struct {
	inner   Interface
	limiter *rate.Limiter
}

var _ Interface = (*RateLimited)(nil)

// WithRateLimit wraps inner so that at most requestsPerMinute calls start per
// minute. A non-positive limit returns inner unchanged.
func WithRateLimit(inner Interface, requestsPerMinute int) Interface {
	if requestsPerMinute <= 0 {
		return inner
	}
	every := time.Minute / time.Duration(requestsPerMinute)
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(every), 1),
	}
}

// Generate implements Interface.
func (r *RateLimited) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}
	if waited := time.Since(start); waited > time.Second {
		clog.FromContext(ctx).With("model", req.Model).
			With("waited", waited).
			Debug("Rate limiter delayed request")
	}
	return r.inner.Generate(ctx, req)
}
