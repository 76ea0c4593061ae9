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

// Package dispatch routes abstract generation requests across the
// registered model backends. It owns backend selection, per-backend
// rate limiting, the fallback chain, and fan-out; it never retries a
// single backend (the transport layer does) and never retries a whole
// stage (the coordinator does).
package dispatch

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brandforge/brandforge/pkg/backends"
	"github.com/brandforge/brandforge/pkg/fault"
	"github.com/brandforge/brandforge/pkg/logger"
	"github.com/brandforge/brandforge/pkg/ratelimit"
)

// Request is one abstract generation request.
type Request struct {
	Modality             backends.Modality
	Prompt               string
	System               string
	MaxTokens            int
	Temperature          float64
	JSONOutput           bool
	Width                int
	Height               int
	RequiredCapabilities []string

	// DesiredN asks for parallel fan-out; zero means one.
	DesiredN int

	// PerCallTimeout bounds each backend invocation. Zero disables the
	// per-call bound (the caller's context still applies).
	PerCallTimeout time.Duration

	// BackendPreference overrides the ranking for this request. Entries
	// match backend model names; unlisted backends keep their weight
	// order after the listed ones.
	BackendPreference []string
}

// Result is one successful generation with its provenance.
type Result struct {
	BackendID  string
	Model      string
	IssueIndex int
	Text       *backends.TextResult
	Image      *backends.ImageResult
}

// Dispatcher routes requests over the backend registry. Safe for
// concurrent use; the rate-limit buckets are shared process-wide.
type Dispatcher struct {
	registry *backends.Registry
	buckets  *ratelimit.Buckets
	logger   *slog.Logger
}

func New(reg *backends.Registry, buckets *ratelimit.Buckets) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		buckets:  buckets,
		logger:   logger.GetLogger(),
	}
}

// Dispatch executes a single request over the fallback chain and
// returns the first acceptable result.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	chain := d.route(req)
	if len(chain) == 0 {
		return nil, fault.New(fault.KindAllBackendsFailed,
			"no enabled %s backend matches capabilities %v", req.Modality, req.RequiredCapabilities)
	}

	poisoned := newPoisonSet()
	result, diags := d.runChain(ctx, req, 0, chain, poisoned)
	if result != nil {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fault.Wrap(fault.KindCancelled, err, "dispatch aborted")
	}
	return nil, &fault.Error{
		Kind:        fault.KindAllBackendsFailed,
		Message:     "all backends failed",
		Diagnostics: diags,
	}
}

// DispatchN fans the request out desired_n times. Each issue walks the
// fallback chain independently; results come back in completion order.
// An error is returned only when every issue failed.
func (d *Dispatcher) DispatchN(ctx context.Context, req Request) ([]*Result, error) {
	n := req.DesiredN
	if n <= 1 {
		result, err := d.Dispatch(ctx, req)
		if err != nil {
			return nil, err
		}
		return []*Result{result}, nil
	}

	chain := d.route(req)
	if len(chain) == 0 {
		return nil, fault.New(fault.KindAllBackendsFailed,
			"no enabled %s backend matches capabilities %v", req.Modality, req.RequiredCapabilities)
	}

	// Permanent failures poison a backend for the whole request,
	// including sibling issues.
	poisoned := newPoisonSet()

	var mu sync.Mutex
	var results []*Result
	var diags []fault.BackendDiagnostic

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		issue := i
		g.Go(func() error {
			result, issueDiags := d.runChain(gctx, req, issue, chain, poisoned)

			mu.Lock()
			defer mu.Unlock()
			if result != nil {
				results = append(results, result)
			} else {
				diags = append(diags, issueDiags...)
			}
			// Issue failures never cancel siblings.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fault.Wrap(fault.KindInternal, err, "fan-out group failed")
	}

	if len(results) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, fault.Wrap(fault.KindCancelled, err, "dispatch aborted")
		}
		return nil, &fault.Error{
			Kind:        fault.KindAllBackendsFailed,
			Message:     "all backends failed for every fan-out issue",
			Diagnostics: diags,
		}
	}
	return results, nil
}

// runChain walks the fallback chain once for one issue.
func (d *Dispatcher) runChain(ctx context.Context, req Request, issue int, chain []backends.ModelBackend, poisoned *poisonSet) (*Result, []fault.BackendDiagnostic) {
	var diags []fault.BackendDiagnostic

	for _, backend := range chain {
		if ctx.Err() != nil {
			return nil, diags
		}

		desc := backend.Describe()
		if poisoned.has(desc.ID) {
			diags = append(diags, fault.BackendDiagnostic{
				BackendID: desc.ID,
				Kind:      fault.KindProviderPermanent,
				Message:   "poisoned earlier in this request",
			})
			continue
		}

		bucket := d.buckets.ForBackend(desc.ID, desc.RateLimitPerMinute)
		if !bucket.TryAcquire() {
			diags = append(diags, fault.BackendDiagnostic{
				BackendID: desc.ID,
				Kind:      fault.KindTransient,
				Message:   "no rate-limit capacity",
			})
			continue
		}

		start := time.Now()
		result, err := d.invoke(ctx, backend, req, issue)
		elapsed := time.Since(start)

		if err == nil {
			return result, diags
		}

		kind := backends.Classify(err)
		if backends.IsTransport(err) {
			// The call never reached the provider.
			bucket.Refund()
		}
		if kind == fault.KindProviderPermanent {
			poisoned.add(desc.ID)
		}

		d.logger.Debug("Backend attempt failed",
			"backend", desc.ID, "kind", string(kind), "elapsed", elapsed, "error", err)

		diags = append(diags, fault.BackendDiagnostic{
			BackendID: desc.ID,
			Kind:      kind,
			Message:   err.Error(),
			Elapsed:   elapsed,
		})
	}

	return nil, diags
}

func (d *Dispatcher) invoke(ctx context.Context, backend backends.ModelBackend, req Request, issue int) (*Result, error) {
	if req.PerCallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.PerCallTimeout)
		defer cancel()
	}

	desc := backend.Describe()
	result := &Result{
		BackendID:  desc.ID,
		Model:      desc.Model,
		IssueIndex: issue,
	}

	switch req.Modality {
	case backends.ModalityText:
		text, err := backend.GenerateText(ctx, backends.TextRequest{
			System:      req.System,
			Prompt:      req.Prompt,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			JSONOutput:  req.JSONOutput,
		})
		if err != nil {
			return nil, err
		}
		result.Text = text
	case backends.ModalityImage:
		image, err := backend.GenerateImage(ctx, backends.ImageRequest{
			Prompt: req.Prompt,
			Width:  req.Width,
			Height: req.Height,
		})
		if err != nil {
			return nil, err
		}
		result.Image = image
	default:
		return nil, fault.New(fault.KindInternal, "unknown modality %q", req.Modality)
	}

	return result, nil
}

// route filters and orders the registry for one request.
func (d *Dispatcher) route(req Request) []backends.ModelBackend {
	var chain []backends.ModelBackend
	for _, backend := range d.registry.List() {
		desc := backend.Describe()
		if !desc.Enabled {
			continue
		}
		if desc.Modality != req.Modality {
			continue
		}
		if !desc.HasCapabilities(req.RequiredCapabilities) {
			continue
		}
		chain = append(chain, backend)
	}

	rank := func(desc backends.Descriptor) (int, int) {
		for i, model := range req.BackendPreference {
			if model == desc.Model || model == desc.ID {
				return 0, i
			}
		}
		return 1, desc.PriorityWeight
	}

	// Stable sort keeps registry insertion order as the tie-break.
	sort.SliceStable(chain, func(i, j int) bool {
		gi, wi := rank(chain[i].Describe())
		gj, wj := rank(chain[j].Describe())
		if gi != gj {
			return gi < gj
		}
		return wi < wj
	})

	return chain
}

// PriorityOf returns a model's position in the preference list, used
// by callers that need deterministic candidate ordering. Unlisted
// models rank after all listed ones.
func PriorityOf(model string, preference []string) int {
	for i, m := range preference {
		if m == model {
			return i
		}
	}
	return len(preference)
}

type poisonSet struct {
	mu  sync.Mutex
	ids map[string]bool
}

func newPoisonSet() *poisonSet {
	return &poisonSet{ids: make(map[string]bool)}
}

func (p *poisonSet) add(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids[id] = true
}

func (p *poisonSet) has(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ids[id]
}
