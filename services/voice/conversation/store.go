// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package conversation

import (
	"sync"

	"github.com/AleutianAI/VoiceLedger/services/voice/datatypes"
	"github.com/AleutianAI/VoiceLedger/services/voice/intent"
)

// Store owns every call's session and pending-tool state. It is the only
// process-wide mutable state in the service and does its own locking, so
// the controller never touches a map directly.
//
// The transport serializes turns for one call in practice (the next
// utterance only arrives after the previous directive played), but each
// Session still carries its own mutex so duplicated or reordered webhooks
// cannot interleave half-applied turns.
type Store struct {
	mu           sync.Mutex
	systemPrompt string
	sessions     map[string]*Session
}

func NewStore(systemPrompt string) *Store {
	return &Store{
		systemPrompt: systemPrompt,
		sessions:     make(map[string]*Session),
	}
}

// Session returns the call's session, creating it lazily on first use.
// The new session's first entry is always the fixed system instruction.
func (s *Store) Session(callSid string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[callSid]
	if !ok {
		sess = &Session{
			callSid: callSid,
			messages: []datatypes.Message{
				{Role: datatypes.RoleSystem, Content: s.systemPrompt},
			},
			granted: make(map[intent.Tool]bool),
		}
		s.sessions[callSid] = sess
	}
	return sess
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Session is one call's conversational state. Callers must hold Lock for
// the whole turn; sessions live for the process lifetime.
type Session struct {
	mu       sync.Mutex
	callSid  string
	messages []datatypes.Message

	pending intent.Tool
	// pendingUtterance is the utterance that triggered the pending tool,
	// kept so date-range inference runs on the original question rather
	// than on the caller's "yes".
	pendingUtterance string

	// granted tracks tools the caller has already affirmed this call.
	// Only consulted in ask mode.
	granted map[intent.Tool]bool
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

func (s *Session) AppendUser(text string) {
	s.messages = append(s.messages, datatypes.Message{Role: datatypes.RoleUser, Content: text})
}

func (s *Session) AppendAssistant(text string) {
	s.messages = append(s.messages, datatypes.Message{Role: datatypes.RoleAssistant, Content: text})
}

// History returns a copy of the rolling message list, system instruction
// first.
func (s *Session) History() []datatypes.Message {
	out := make([]datatypes.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Pending() (intent.Tool, string) {
	return s.pending, s.pendingUtterance
}

// SetPending records the consent question just asked. At most one tool is
// pending per call; a new tool replaces the old marker.
func (s *Session) SetPending(tool intent.Tool, utterance string) {
	s.pending = tool
	s.pendingUtterance = utterance
}

func (s *Session) ClearPending() {
	s.pending = ""
	s.pendingUtterance = ""
}

func (s *Session) Granted(tool intent.Tool) bool {
	return s.granted[tool]
}

func (s *Session) Grant(tool intent.Tool) {
	s.granted[tool] = true
}
