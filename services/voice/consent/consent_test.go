// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the consent policy

package consent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/VoiceLedger/services/voice/intent"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"always-allow", ModeAlwaysAllow, false},
		{"always-deny", ModeAlwaysDeny, false},
		{"ask", ModeAsk, false},
		{"", ModeAsk, false},
		{"  ASK  ", ModeAsk, false},
		{"Always-Allow", ModeAlwaysAllow, false},
		{"allow", "", true},
		{"never", "", true},
	}

	for _, tt := range tests {
		t.Run("input_"+tt.input, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, mode)
		})
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		tool    intent.Tool
		pending intent.Tool
		granted bool
		want    Decision
	}{
		{"always-allow runs", ModeAlwaysAllow, intent.ToolBalance, "", false, RunNow},
		{"always-allow ignores pending", ModeAlwaysAllow, intent.ToolBalance, intent.ToolBalance, false, RunNow},
		{"ask first time", ModeAsk, intent.ToolBalance, "", false, RequestConsent},
		{"ask remembers grant", ModeAsk, intent.ToolBalance, "", true, RunNow},
		{"ask pending same tool", ModeAsk, intent.ToolDebt, intent.ToolDebt, false, AwaitingAnswer},
		{"ask pending beats grant", ModeAsk, intent.ToolDebt, intent.ToolDebt, true, AwaitingAnswer},
		{"always-deny asks", ModeAlwaysDeny, intent.ToolSummary, "", false, RequestConsent},
		{"always-deny ignores grant", ModeAlwaysDeny, intent.ToolSummary, "", true, RequestConsent},
		{"always-deny pending same tool", ModeAlwaysDeny, intent.ToolSummary, intent.ToolSummary, false, AwaitingAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.mode, tt.tool, tt.pending, tt.granted)
			assert.Equal(t, tt.want, got, "Decide() = %s, want %s", got, tt.want)
		})
	}
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		utterance string
		want      Answer
	}{
		{"yes", AnswerAffirmative},
		{"Yes", AnswerAffirmative},
		{"  yes please  ", AnswerAffirmative},
		{"Okay.", AnswerAffirmative},
		{"go ahead!", AnswerAffirmative},
		{"no", AnswerNegative},
		{"No thanks.", AnswerNegative},
		{"nope", AnswerNegative},
		{"maybe", AnswerUnclear},
		{"", AnswerUnclear},
		{"yes but what's my debt", AnswerUnclear},
		{"that's a no from me", AnswerUnclear},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAnswer(tt.utterance))
		})
	}
}

func TestResolve(t *testing.T) {
	assert.Equal(t, RunNow, Resolve(AnswerAffirmative))
	assert.Equal(t, Denied, Resolve(AnswerNegative))
	assert.Equal(t, AwaitingAnswer, Resolve(AnswerUnclear))
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "run_now", RunNow.String())
	assert.Equal(t, "request_consent", RequestConsent.String())
	assert.Equal(t, "awaiting_answer", AwaitingAnswer.String())
	assert.Equal(t, "denied", Denied.String())
	assert.Equal(t, "unknown", Decision(99).String())
}
