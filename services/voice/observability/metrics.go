// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the voice service.
//
// Metrics are exposed via the /metrics endpoint. All operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "voiceledger"
	voiceSubsystem   = "voice"
)

// VoiceMetrics holds all Prometheus metrics for call handling.
//
// Initialize once at startup via NewVoiceMetrics. The struct satisfies
// both the controller's MetricsObserver and the synthesizer's
// CacheObserver.
type VoiceMetrics struct {
	// TurnsTotal counts completed speech turns.
	// Labels: outcome (chat, tool:<name>, consent_request, consent_denied,
	// consent_reprompt, apology)
	TurnsTotal *prometheus.CounterVec

	// IntentsTotal counts classified tool intents.
	// Labels: tool (transactions, balance, debt, summary)
	IntentsTotal *prometheus.CounterVec

	// ConsentTotal counts consent policy outcomes.
	// Labels: decision (run_now, request_consent, awaiting_answer,
	// granted, denied, reprompt)
	ConsentTotal *prometheus.CounterVec

	// TTSCacheTotal counts speech cache lookups.
	// Labels: result (hit, miss)
	TTSCacheTotal *prometheus.CounterVec

	// SynthesisSeconds observes the latency of paid synthesis calls.
	// Cache hits are not observed.
	SynthesisSeconds prometheus.Histogram

	// FinanceSeconds observes finance API request latency.
	// Labels: endpoint (balance, debt, summary, transactions)
	FinanceSeconds *prometheus.HistogramVec
}

// NewVoiceMetrics creates and registers all voice metrics.
//
// Pass prometheus.DefaultRegisterer in production; tests pass a private
// registry so parallel tests don't collide on registration.
func NewVoiceMetrics(reg prometheus.Registerer) *VoiceMetrics {
	factory := promauto.With(reg)
	return &VoiceMetrics{
		TurnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: voiceSubsystem,
			Name:      "turns_total",
			Help:      "Completed speech turns by outcome.",
		}, []string{"outcome"}),
		IntentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: voiceSubsystem,
			Name:      "intents_total",
			Help:      "Classified tool intents by tool.",
		}, []string{"tool"}),
		ConsentTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: voiceSubsystem,
			Name:      "consent_total",
			Help:      "Consent policy outcomes by decision.",
		}, []string{"decision"}),
		TTSCacheTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: voiceSubsystem,
			Name:      "tts_cache_total",
			Help:      "Speech cache lookups by result.",
		}, []string{"result"}),
		SynthesisSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: voiceSubsystem,
			Name:      "tts_synthesis_seconds",
			Help:      "Latency of paid TTS synthesis calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		FinanceSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: voiceSubsystem,
			Name:      "finance_request_seconds",
			Help:      "Latency of finance API requests by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

func (m *VoiceMetrics) TurnObserved(outcome string) {
	m.TurnsTotal.WithLabelValues(outcome).Inc()
}

func (m *VoiceMetrics) IntentObserved(tool string) {
	m.IntentsTotal.WithLabelValues(tool).Inc()
}

func (m *VoiceMetrics) ConsentObserved(decision string) {
	m.ConsentTotal.WithLabelValues(decision).Inc()
}

func (m *VoiceMetrics) TTSCacheHit() {
	m.TTSCacheTotal.WithLabelValues("hit").Inc()
}

func (m *VoiceMetrics) TTSCacheMiss() {
	m.TTSCacheTotal.WithLabelValues("miss").Inc()
}

func (m *VoiceMetrics) SynthesisObserved(elapsed time.Duration) {
	m.SynthesisSeconds.Observe(elapsed.Seconds())
}

func (m *VoiceMetrics) FinanceObserved(endpoint string, elapsed time.Duration) {
	m.FinanceSeconds.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}
