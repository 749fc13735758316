/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package openaibackend

import (
	"errors"

	"github.com/openai/openai-go"
)

// isRetryableOpenAIError reports rate limit and transient server errors.
func isRetryableOpenAIError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return false
}

// isUnavailableOpenAIError additionally treats auth failures as unavailability.
func isUnavailableOpenAIError(err error) bool {
	if isRetryableOpenAIError(err) {
		return true
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}
