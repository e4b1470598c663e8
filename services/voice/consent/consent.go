// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package consent decides whether a finance tool may run immediately or
// must first be confirmed by the caller's voice.
//
// The decision function is pure; all per-call state (the pending-tool
// marker, tools already granted this call) is owned by the conversation
// store and passed in.
package consent

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/VoiceLedger/services/voice/intent"
)

// Mode is the configured consent policy.
type Mode string

const (
	// ModeAlwaysAllow runs tools with no confirmation ever.
	ModeAlwaysAllow Mode = "always-allow"
	// ModeAlwaysDeny requires a fresh confirmation on every tool turn,
	// even for a tool the caller already affirmed earlier in the call.
	ModeAlwaysDeny Mode = "always-deny"
	// ModeAsk requires confirmation the first time a tool is requested;
	// a grant is remembered for the rest of the call.
	ModeAsk Mode = "ask"
)

// ParseMode maps a configuration string to a Mode. The empty string is
// the default ask mode; anything else unknown is an error.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.TrimSpace(strings.ToLower(s))) {
	case ModeAlwaysAllow:
		return ModeAlwaysAllow, nil
	case ModeAlwaysDeny:
		return ModeAlwaysDeny, nil
	case ModeAsk, Mode(""):
		return ModeAsk, nil
	default:
		return "", fmt.Errorf("invalid consent mode %q (want always-allow, always-deny, or ask)", s)
	}
}

// Decision is the policy outcome for one tool turn.
type Decision int

const (
	// RunNow invokes the tool gateway immediately.
	RunNow Decision = iota
	// RequestConsent sets the pending-tool marker and asks the caller.
	RequestConsent
	// AwaitingAnswer means the marker is already set for this tool and
	// the utterance should be read as a yes/no answer.
	AwaitingAnswer
	// Denied acknowledges a negative answer; the tool is not invoked.
	Denied
)

func (d Decision) String() string {
	switch d {
	case RunNow:
		return "run_now"
	case RequestConsent:
		return "request_consent"
	case AwaitingAnswer:
		return "awaiting_answer"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// Decide applies the configured mode to one classified tool intent.
//
// pending is the call's current pending-tool marker ("" when none) and
// granted reports whether this tool was already affirmed earlier in the
// call. granted is only honored in ask mode.
func Decide(mode Mode, tool, pending intent.Tool, granted bool) Decision {
	if mode == ModeAlwaysAllow {
		return RunNow
	}
	if pending == tool {
		return AwaitingAnswer
	}
	if mode == ModeAsk && granted {
		return RunNow
	}
	return RequestConsent
}

// Answer classifies the caller's reply while a consent question is open.
type Answer int

const (
	AnswerUnclear Answer = iota
	AnswerAffirmative
	AnswerNegative
)

// Fixed yes/no vocabularies. Matching is exact after trimming and
// lowercasing; trailing punctuation from the recognizer is stripped.
var (
	affirmatives = map[string]struct{}{
		"yes": {}, "yeah": {}, "yep": {}, "yes please": {}, "ok": {},
		"okay": {}, "sure": {}, "go ahead": {}, "please do": {},
		"correct": {}, "affirmative": {},
	}
	negatives = map[string]struct{}{
		"no": {}, "nope": {}, "nah": {}, "no thanks": {}, "no thank you": {},
		"don't": {}, "do not": {}, "negative": {},
	}
)

// ParseAnswer maps an utterance to an Answer. Anything outside the fixed
// vocabularies is AnswerUnclear, which leaves the pending marker in place
// and triggers the fixed re-prompt.
func ParseAnswer(utterance string) Answer {
	norm := strings.ToLower(strings.TrimSpace(utterance))
	norm = strings.TrimRight(norm, ".!?,")
	if _, ok := affirmatives[norm]; ok {
		return AnswerAffirmative
	}
	if _, ok := negatives[norm]; ok {
		return AnswerNegative
	}
	return AnswerUnclear
}

// Resolve maps an answer while AwaitingAnswer to the follow-up decision:
// affirmative runs the tool, negative denies it, anything else keeps
// waiting.
func Resolve(answer Answer) Decision {
	switch answer {
	case AnswerAffirmative:
		return RunNow
	case AnswerNegative:
		return Denied
	default:
		return AwaitingAnswer
	}
}
