// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the voice service configuration from the
// environment, once, at startup.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/VoiceLedger/services/voice/consent"
)

var configValidate = validator.New()

// Config is the full startup configuration of the voice service.
//
// PublicBaseURL must be externally reachable: the telephony provider
// fetches audio artifacts from it.
type Config struct {
	Port          string `validate:"required,numeric"`
	PublicBaseURL string `validate:"required,url"`
	AudioDir      string `validate:"required"`
	Language      string `validate:"required"`

	ConsentMode consent.Mode `validate:"required"`

	// FinanceAPIURL may be empty: the gateway then answers every tool
	// with the fixed "not linked" sentence instead of querying.
	FinanceAPIURL string `validate:"omitempty,url"`

	ElevenLabsAPIKey string
	ElevenVoiceID    string

	// IntentRulesPath optionally overrides the embedded intent rule
	// table; the file is hot-reloaded on change.
	IntentRulesPath string

	AuditDBPath string `validate:"required"`
}

func getenvDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load reads and validates the configuration. Quoting that container
// runtimes sometimes pass through literally is stripped.
func Load() (*Config, error) {
	mode, err := consent.ParseMode(os.Getenv("CONSENT_MODE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:             getenvDefault("VOICE_PORT", "12230"),
		PublicBaseURL:    strings.Trim(getenvDefault("PUBLIC_BASE_URL", "http://localhost:12230"), "\"' "),
		AudioDir:         getenvDefault("AUDIO_DIR", "audio"),
		Language:         getenvDefault("VOICE_LANGUAGE", "en-GB"),
		ConsentMode:      mode,
		FinanceAPIURL:    strings.Trim(os.Getenv("FINANCE_API_URL"), "\"' "),
		ElevenLabsAPIKey: strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
		ElevenVoiceID:    strings.TrimSpace(os.Getenv("ELEVEN_VOICE_ID")),
		IntentRulesPath:  strings.TrimSpace(os.Getenv("INTENT_RULES_PATH")),
		AuditDBPath:      getenvDefault("AUDIT_DB_PATH", "data/audit"),
	}

	if err := configValidate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid voice service configuration: %w", err)
	}
	return cfg, nil
}
