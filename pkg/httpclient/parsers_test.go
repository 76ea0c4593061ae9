// Copyright 2025 Kadir Pekel
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

package httpclient

import (
	"net/http"
	"testing"
	"time"
)

func TestParseAnthropicHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("retry-after", "30")
	headers.Set("anthropic-ratelimit-requests-remaining", "99")
	headers.Set("anthropic-ratelimit-requests-reset", "2025-06-01T12:00:00Z")

	info := ParseAnthropicHeaders(headers)
	if info.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", info.RetryAfter)
	}
	if info.RequestsRemaining != 99 {
		t.Errorf("RequestsRemaining = %d, want 99", info.RequestsRemaining)
	}
	if info.ResetTime == 0 {
		t.Error("ResetTime should be parsed from RFC3339 header")
	}
}

func TestParseOpenAIHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Retry-After", "5")
	headers.Set("x-ratelimit-remaining-requests", "10")
	headers.Set("x-ratelimit-remaining-tokens", "5000")

	info := ParseOpenAIHeaders(headers)
	if info.RetryAfter != 5*time.Second {
		t.Errorf("RetryAfter = %v, want 5s", info.RetryAfter)
	}
	if info.RequestsRemaining != 10 {
		t.Errorf("RequestsRemaining = %d, want 10", info.RequestsRemaining)
	}
	if info.TokensRemaining != 5000 {
		t.Errorf("TokensRemaining = %d, want 5000", info.TokensRemaining)
	}
}

func TestParseRetryAfterHeader(t *testing.T) {
	headers := http.Header{}
	headers.Set("Retry-After", "12")

	info := ParseRetryAfterHeader(headers)
	if info.RetryAfter != 12*time.Second {
		t.Errorf("RetryAfter = %v, want 12s", info.RetryAfter)
	}

	empty := ParseRetryAfterHeader(http.Header{})
	if empty.RetryAfter != 0 {
		t.Errorf("RetryAfter = %v, want 0 for missing header", empty.RetryAfter)
	}
}
