// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "time"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Turn is one user utterance plus the reply it produced, as persisted to
// the call audit store.
type Turn struct {
	TurnID    string    `json:"turn_id"`
	CallSid   string    `json:"call_sid"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	// Outcome records how the reply was produced: chat, tool:<name>,
	// consent_request, consent_denied, consent_reprompt, or apology.
	Outcome string `json:"outcome"`
}

// CallRecord is the audit store's per-call envelope.
type CallRecord struct {
	CallSid   string     `json:"call_sid"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Turns     int        `json:"turns"`
}
