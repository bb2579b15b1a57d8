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

package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "hwpscale"

var (
	RecordsDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_decoded_total",
			Help:      "Records decoded by outcome (typed, opaque, failed).",
		},
		[]string{"outcome"},
	)
	Diagnostics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Decoding diagnostics by kind.",
		},
		[]string{"kind"},
	)
	TemplateCompiles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_compiles_total",
			Help:      "Schema templates built, by stage (compiled, filtered).",
		},
		[]string{"stage"},
	)
	TemplateCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_cache_hits_total",
			Help:      "Schema template cache hits by stage.",
		},
		[]string{"stage"},
	)
	StreamBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_bytes_total",
			Help:      "Stream bytes read, by encoding (raw, inflated).",
		},
		[]string{"encoding"},
	)
	StreamCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_cache_lookups_total",
			Help:      "Stream cache lookups by result (hit, miss).",
		},
		[]string{"result"},
	)
	S3Requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "s3_requests_total",
			Help:      "S3 requests by operation.",
		},
		[]string{"operation"},
	)
	S3Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "s3_errors_total",
			Help:      "S3 errors by operation.",
		},
		[]string{"operation"},
	)
	S3Duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "s3_request_duration_ms",
			Help:      "S3 request duration in milliseconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	SectionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "section_decode_duration_ms",
			Help:      "Body section decode duration in milliseconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	ActiveSections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sections",
			Help:      "Body sections currently decoding.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RecordsDecoded,
		Diagnostics,
		TemplateCompiles,
		TemplateCacheHits,
		StreamBytes,
		StreamCacheHits,
		S3Requests,
		S3Errors,
		S3Duration,
		SectionDuration,
		ActiveSections,
	)
}
