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

package backends

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/brandforge/brandforge/pkg/fault"
	"github.com/brandforge/brandforge/pkg/httpclient"
)

// Classify maps a raw provider error onto the shared taxonomy.
// Rate limits, server errors and network failures are transient;
// auth failures, policy rejections and malformed requests are
// permanent for the offending backend.
func Classify(err error) fault.Kind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return fault.KindCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fault.KindTransient
	}

	var fe *fault.Error
	if errors.As(err, &fe) {
		return fe.Kind
	}

	if status := httpclient.StatusCodeOf(err); status != 0 {
		switch {
		case status == 408 || status == 429 || status >= 500:
			return fault.KindTransient
		default:
			return fault.KindProviderPermanent
		}
	}

	if IsTransport(err) {
		return fault.KindTransient
	}

	return fault.KindTransient
}

// IsTransport reports whether the error is a connection-level failure
// with no provider response at all. The dispatcher refunds rate-limit
// tokens only for these.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	if httpclient.StatusCodeOf(err) != 0 {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// wrapProviderError turns a raw error into a fault attributed to the
// backend, preserving the original for unwrapping.
func wrapProviderError(backendID string, err error) error {
	if err == nil {
		return nil
	}
	var fe *fault.Error
	if errors.As(err, &fe) {
		return err
	}
	return fault.Wrap(Classify(err), err, "backend %s", backendID)
}
