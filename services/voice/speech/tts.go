// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package speech resolves reply text to playable audio URLs.
//
// Audio is content-addressed: the cache key is a fingerprint of the exact
// reply text, so identical text resolves to the same artifact forever and
// the paid synthesis API is contacted at most once per distinct sentence.
// Artifacts live on disk and survive restarts; they are served from the
// public /audio path by filename.
package speech

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	elevenLabsBaseURL = "https://api.elevenlabs.io/v1/text-to-speech/"
	elevenLabsModel   = "eleven_monolingual_v1"

	// DefaultVoiceID is the ElevenLabs "George" voice (professional male).
	DefaultVoiceID = "JBFqnCBsd6RMkjVDRZzb"

	synthesisTimeout = 15 * time.Second
	audioExtension   = ".mp3"
)

// HTTPClient allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// CacheObserver receives cache hit/miss notifications and synthesis
// latency samples. Wired to the prometheus metrics in production; nil
// disables observation.
type CacheObserver interface {
	TTSCacheHit()
	TTSCacheMiss()
	SynthesisObserved(elapsed time.Duration)
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
}

// Synthesizer is the caching TTS client.
type Synthesizer struct {
	APIKey        string
	VoiceID       string
	AudioDir      string
	PublicBaseURL string
	Client        HTTPClient
	Observer      CacheObserver

	// limiter bounds the rate of paid synthesis calls. Cache hits are
	// never limited.
	limiter *rate.Limiter
}

// NewSynthesizer creates a Synthesizer and ensures the audio directory
// exists.
func NewSynthesizer(apiKey, voiceID, audioDir, publicBaseURL string) (*Synthesizer, error) {
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create the audio directory %s: %w", audioDir, err)
	}
	return &Synthesizer{
		APIKey:        apiKey,
		VoiceID:       voiceID,
		AudioDir:      audioDir,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		Client:        &http.Client{Timeout: synthesisTimeout},
		limiter:       rate.NewLimiter(rate.Every(time.Second), 3),
	}, nil
}

// Fingerprint is the deterministic cache key for a reply text: the first
// 16 hex characters of its SHA-1. Stable across processes and restarts.
func Fingerprint(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}

// SpeakURL resolves text to a publicly reachable audio URL, synthesizing
// and persisting the artifact on first use. Synthesis failures are
// returned to the caller; the controller decides how to degrade.
func (s *Synthesizer) SpeakURL(ctx context.Context, text string) (string, error) {
	filename := Fingerprint(text) + audioExtension
	path := filepath.Join(s.AudioDir, filename)

	if _, err := os.Stat(path); err == nil {
		slog.Debug("TTS cache hit", "file", filename)
		if s.Observer != nil {
			s.Observer.TTSCacheHit()
		}
		return s.publicURL(filename), nil
	}
	if s.Observer != nil {
		s.Observer.TTSCacheMiss()
	}

	if s.APIKey == "" {
		return "", fmt.Errorf("ELEVENLABS_API_KEY is not configured")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("synthesis rate limit wait aborted: %w", err)
	}

	start := time.Now()
	audio, err := s.synthesize(ctx, text)
	if err != nil {
		return "", err
	}
	if s.Observer != nil {
		s.Observer.SynthesisObserved(time.Since(start))
	}
	if err := writeAtomic(s.AudioDir, path, audio); err != nil {
		return "", err
	}
	slog.Info("Synthesized new TTS artifact", "file", filename, "bytes", len(audio))
	return s.publicURL(filename), nil
}

func (s *Synthesizer) synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, synthesisTimeout)
	defer cancel()

	payload, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: elevenLabsModel,
		VoiceSettings: voiceSettings{
			Stability:       0.35,
			SimilarityBoost: 0.9,
			Style:           0.3,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal the synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		elevenLabsBaseURL+s.VoiceID, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build the synthesis request: %w", err)
	}
	req.Header.Set("xi-api-key", s.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("synthesis provider returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read the synthesized audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis provider returned an empty body")
	}
	return audio, nil
}

// writeAtomic writes to a temp file in the same directory and renames it
// into place, so a concurrent reader of an existing artifact never sees a
// partial file.
func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".tts-*")
	if err != nil {
		return fmt.Errorf("failed to create a temp audio file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write the audio artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close the temp audio file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish the audio artifact: %w", err)
	}
	return nil
}

func (s *Synthesizer) publicURL(filename string) string {
	return s.PublicBaseURL + "/audio/" + filename
}

// CacheStats reports the artifact count and total size of an audio cache
// directory.
func CacheStats(dir string) (files int, bytes int64, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read the audio cache %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), audioExtension) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files++
		bytes += info.Size()
	}
	return files, bytes, nil
}

// PurgeCache deletes every cached artifact. The next mention of each
// sentence pays for one fresh synthesis.
func PurgeCache(dir string) (removed int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read the audio cache %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), audioExtension) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}
