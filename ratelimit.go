// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package htmlentity

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces operations at least one interval apart, across every
// goroutine sharing it. The first permit is granted immediately.
type RateLimiter struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewRateLimiter returns a limiter granting one permit per interval. An
// interval <= 0 disables limiting.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	r := &RateLimiter{interval: interval}
	if interval > 0 {
		r.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return r
}

// Wait blocks until a permit is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil || r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}

// Interval returns the configured interval.
func (r *RateLimiter) Interval() time.Duration {
	return r.interval
}

// Enabled reports whether the limiter ever blocks.
func (r *RateLimiter) Enabled() bool {
	return r != nil && r.limiter != nil
}
