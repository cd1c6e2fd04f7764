// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pvledger/pvledger/model"
)

// httpError carries the status code an adapter observed, so
// classifyStatus can be tested without a live response.
type httpError struct {
	statusCode int
	url        string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("upstream returned status %d for %s", e.statusCode, e.url)
}

// classifyStatus reports whether an HTTP status code should be retried.
// 429 and 5xx are transient; any other 4xx is fatal.
func classifyStatus(statusCode int) (retryable bool) {
	if statusCode == 429 {
		return true
	}
	return statusCode >= 500
}

// withRetry runs fn with exponential backoff and jitter, retrying only
// while fn's error is classified retryable. baseDelay seeds the backoff
// interval; perAttemptTimeout bounds a single attempt; totalDeadline
// bounds the whole retry loop.
func withRetry(ctx context.Context, maxRetries int, baseDelay, perAttemptTimeout, totalDeadline time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, totalDeadline)
	defer cancel()

	expo := backoff.NewExponentialBackOff()
	if baseDelay > 0 {
		expo.InitialInterval = baseDelay
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(maxRetries)), ctx)

	operation := func() error {
		attemptCtx, attemptCancel := context.WithTimeout(ctx, perAttemptTimeout)
		defer attemptCancel()

		err := fn(attemptCtx)
		if err == nil {
			return nil
		}
		if model.Is(err, model.KindCanceled) {
			return backoff.Permanent(err)
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(operation, policy); err != nil {
		if model.KindOf(err) != "" {
			return err
		}
		var httpErr *httpError
		if errors.As(err, &httpErr) && !classifyStatus(httpErr.statusCode) {
			return model.NewError(model.KindProviderError, "upstream rejected request", err)
		}
		return model.NewError(model.KindProviderUnavailable, "upstream retries exhausted", err)
	}
	return nil
}

func isRetryable(err error) bool {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return classifyStatus(httpErr.statusCode)
	}
	return model.Is(err, model.KindProviderUnavailable)
}
