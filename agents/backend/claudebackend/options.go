/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package claudebackend

import (
	"errors"
	"fmt"

	"github.com/zswitten/starchameleon/agents/backend/retry"
	"github.com/zswitten/starchameleon/agents/metrics"
)

// Option configures a Backend.
type Option func(*Backend) error

// WithRetryConfig sets the retry policy for transient errors.
func WithRetryConfig(cfg retry.Config) Option {
	return func(b *Backend) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid retry config: %w", err)
		}
		b.retryConfig = cfg
		return nil
	}
}

// WithAttributeEnricher replaces the metric attribute enricher.
func WithAttributeEnricher(enricher metrics.AttributeEnricher) Option {
	return func(b *Backend) error {
		if enricher == nil {
			return errors.New("enricher cannot be nil")
		}
		b.genaiMetrics.SetAttributeEnricher(enricher)
		return nil
	}
}
