/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package backend

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/zswitten/starchameleon/agents/backend/retry"
)

var (
	// ErrUnavailable marks transient failures: network, auth, rate limit,
	// overloaded or exhausted retries. The unit that hit it is recorded as
	// missing and the run continues.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrUnknownModel is returned when no provider is registered for a model.
	ErrUnknownModel = errors.New("unknown model")

	// ErrEmptyResponse is returned when a provider answers without any text.
	ErrEmptyResponse = errors.New("empty response")
)

// Unavailable wraps err so that IsUnavailable reports true for it.
func Unavailable(model string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, model, err)
}

// IsUnavailable reports whether err is a transient backend failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Classify turns a provider error into the package's error kinds. Context
// errors pass through untouched, exhausted retries, network failures and
// errors isTransient accepts become ErrUnavailable, and anything else is
// returned as a permanent failure.
func Classify(model string, err error, isTransient func(error) bool) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var exhausted *retry.ExhaustedError
	var netErr net.Error
	if errors.As(err, &exhausted) || errors.As(err, &netErr) || (isTransient != nil && isTransient(err)) {
		return Unavailable(model, err)
	}
	return fmt.Errorf("%s: %w", model, err)
}
