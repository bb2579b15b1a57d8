// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
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

package storage

import (
	"sync"
	"time"
)

// HealthState summarizes how a remote container has been answering.
type HealthState string

const (
	HealthOK          HealthState = "healthy"
	HealthDegraded    HealthState = "degraded"
	HealthUnavailable HealthState = "unavailable"
)

// HealthConfig sets the thresholds over the sampling window.
type HealthConfig struct {
	Window     time.Duration
	SlowAfter  time.Duration
	DownAfter  time.Duration
	ErrorWarn  float64
	ErrorCrit  float64
	MaxSamples int
}

// Health tracks recent container requests and derives a state from their
// mean latency and error ratio.
type Health struct {
	cfg HealthConfig
	now func() time.Time

	mu      sync.Mutex
	samples []healthSample
	state   HealthState
	since   time.Time
	latency time.Duration
	errRate float64
}

type healthSample struct {
	at      time.Time
	latency time.Duration
	failed  bool
}

// HealthSnapshot is a point-in-time view of Health.
type HealthSnapshot struct {
	State     HealthState
	Since     time.Time
	Latency   time.Duration
	ErrorRate float64
	Samples   int
}

func NewHealth(cfg HealthConfig) *Health {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.SlowAfter <= 0 {
		cfg.SlowAfter = 500 * time.Millisecond
	}
	if cfg.DownAfter <= 0 {
		cfg.DownAfter = 3 * time.Second
	}
	if cfg.ErrorWarn <= 0 {
		cfg.ErrorWarn = 0.2
	}
	if cfg.ErrorCrit <= 0 {
		cfg.ErrorCrit = 0.6
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = 256
	}
	h := &Health{cfg: cfg, now: time.Now, state: HealthOK}
	h.since = h.now()
	return h
}

// Record adds one request outcome.
func (h *Health) Record(latency time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	h.samples = append(h.samples, healthSample{at: now, latency: latency, failed: err != nil})
	if over := len(h.samples) - h.cfg.MaxSamples; over > 0 {
		h.samples = h.samples[over:]
	}
	h.expire(now)
	h.update(now)
}

func (h *Health) State() HealthState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Health) Snapshot() HealthSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return HealthSnapshot{
		State:     h.state,
		Since:     h.since,
		Latency:   h.latency,
		ErrorRate: h.errRate,
		Samples:   len(h.samples),
	}
}

// expire drops samples older than the window; samples are in time order.
func (h *Health) expire(now time.Time) {
	cutoff := now.Add(-h.cfg.Window)
	i := 0
	for i < len(h.samples) && !h.samples[i].at.After(cutoff) {
		i++
	}
	if i > 0 {
		h.samples = append([]healthSample(nil), h.samples[i:]...)
	}
}

func (h *Health) update(now time.Time) {
	next := HealthOK
	h.latency, h.errRate = 0, 0
	if n := len(h.samples); n > 0 {
		var total time.Duration
		failed := 0
		for _, s := range h.samples {
			total += s.latency
			if s.failed {
				failed++
			}
		}
		h.latency = total / time.Duration(n)
		h.errRate = float64(failed) / float64(n)
		switch {
		case h.latency >= h.cfg.DownAfter || h.errRate >= h.cfg.ErrorCrit:
			next = HealthUnavailable
		case h.latency >= h.cfg.SlowAfter || h.errRate >= h.cfg.ErrorWarn:
			next = HealthDegraded
		}
	}
	if next != h.state {
		h.state = next
		h.since = now
	}
}
