// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package conversation drives one phone call forward, one speech turn at
// a time.
//
// The controller is the only stateful, branching piece of the service:
// per turn it classifies the utterance, applies the consent policy,
// dispatches to the finance gateway or the chat model, resolves the reply
// to audio, and returns the next telephony directive. Everything it talks
// to is injected, so every branch is testable without a network.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/VoiceLedger/services/llm"
	"github.com/AleutianAI/VoiceLedger/services/voice/consent"
	"github.com/AleutianAI/VoiceLedger/services/voice/datatypes"
	"github.com/AleutianAI/VoiceLedger/services/voice/intent"
)

var convTracer = otel.Tracer("voiceledger.voice.conversation")

// SystemPrompt is the fixed first entry of every session.
const SystemPrompt = "You are a friendly personal voice assistant. " +
	"Keep answers under two sentences unless asked for more detail. " +
	"Never read out account numbers or other identifiers."

// Fixed spoken sentences for the consent flow and chat degradation.
const (
	DeclineReply  = "No problem, I won't touch your account data. Is there anything else I can help with?"
	RepromptReply = "Sorry, I just need a yes or no. Should I look that up in your account?"
	ChatApology   = "I apologize, I am having trouble right now. Please say that again in a moment."
)

// ConsentPrompt names the tool the caller is being asked to authorize.
func ConsentPrompt(tool intent.Tool) string {
	var what string
	switch tool {
	case intent.ToolTransactions:
		what = "your recent transactions"
	case intent.ToolBalance:
		what = "your bank balance"
	case intent.ToolDebt:
		what = "your card balances"
	default:
		what = "your account summary"
	}
	return fmt.Sprintf("I can check %s, but that means reading your linked finance account. Shall I go ahead?", what)
}

// Turn outcomes as recorded in metrics and the audit trail.
const (
	OutcomeChat           = "chat"
	OutcomeConsentRequest = "consent_request"
	OutcomeConsentDenied  = "consent_denied"
	OutcomeReprompt       = "consent_reprompt"
	OutcomeApology        = "apology"
)

// ToolGateway is the finance collaborator. Summarize never fails; it
// degrades to spoken apologies internally.
type ToolGateway interface {
	Summarize(ctx context.Context, tool intent.Tool, utterance string) string
}

// SpeechResolver resolves reply text to a playable audio URL.
type SpeechResolver interface {
	SpeakURL(ctx context.Context, text string) (string, error)
}

// AuditSink receives the durable per-turn transcript. Sink failures are
// logged and never block the turn.
type AuditSink interface {
	RecordTurn(ctx context.Context, turn datatypes.Turn) error
	EndCall(ctx context.Context, callSid string) error
}

// MetricsObserver receives turn-level counters. All methods must be safe
// for concurrent use.
type MetricsObserver interface {
	TurnObserved(outcome string)
	IntentObserved(tool string)
	ConsentObserved(decision string)
}

// Controller is the per-call state machine.
type Controller struct {
	Store      *Store
	Classifier *intent.Classifier
	Mode       consent.Mode
	Gateway    ToolGateway
	Chat       llm.LLMClient
	Speech     SpeechResolver
	Audit      AuditSink
	Metrics    MetricsObserver

	// HandleAction and ConnectPath are the webhook paths baked into the
	// emitted directives; Language is the speech recognition locale.
	HandleAction string
	ConnectPath  string
	Language     string
}

var (
	chatTemperature = float32(0.7)
	chatMaxTokens   = 120
)

// GreetingReply opens every call. It flows through the speech cache like
// any other reply, so after the first call it is a cache hit.
const GreetingReply = "Hello! You're through to your personal assistant. How can I help you today?"

// Connect answers a freshly connected call: a pause, the greeting, and
// the first speech gather. Synthesis failure degrades to the transport's
// builtin voice.
func (c *Controller) Connect(ctx context.Context) *datatypes.TwiML {
	ctx, span := convTracer.Start(ctx, "Controller.Connect")
	defer span.End()

	audioURL, err := c.Speech.SpeakURL(ctx, GreetingReply)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Greeting synthesis failed, degrading to transport voice", "error", err)
		return datatypes.ConnectSayTwiML(GreetingReply, c.HandleAction, c.Language)
	}
	return datatypes.ConnectTwiML(audioURL, c.HandleAction, c.Language)
}

// Turn consumes one webhook delivery and returns the next directive.
//
// An empty call identifier terminates the call with no session side
// effects; an empty utterance redirects back to connect without consuming
// a turn.
func (c *Controller) Turn(ctx context.Context, callSid, utterance string) *datatypes.TwiML {
	ctx, span := convTracer.Start(ctx, "Controller.Turn")
	defer span.End()

	if callSid == "" {
		slog.Warn("Turn received without a call identifier, hanging up")
		return datatypes.HangupTwiML()
	}
	span.SetAttributes(attribute.String("call_sid", callSid))

	if utterance == "" {
		slog.Info("No speech recognized, redirecting to connect", "call_sid", callSid)
		return datatypes.RedirectTwiML(c.ConnectPath)
	}

	sess := c.Store.Session(callSid)
	sess.Lock()
	defer sess.Unlock()

	sess.AppendUser(utterance)
	reply, outcome := c.reply(ctx, sess, utterance)
	sess.AppendAssistant(reply)

	c.observeTurn(outcome)
	c.recordTurn(ctx, callSid, utterance, reply, outcome)

	return c.speak(ctx, span, reply)
}

// reply runs the intent/consent branch of the state machine and returns
// the assistant text plus the outcome tag.
func (c *Controller) reply(ctx context.Context, sess *Session, utterance string) (string, string) {
	pending, pendingUtterance := sess.Pending()
	tool, hasTool := c.Classifier.Classify(utterance)
	if hasTool && c.Metrics != nil {
		c.Metrics.IntentObserved(string(tool))
	}

	if pending != "" {
		// A consent question is open. Read the utterance as an answer
		// first; a clearly different tool intent replaces the marker.
		answer := consent.ParseAnswer(utterance)
		if answer == consent.AnswerUnclear && hasTool && tool != pending {
			sess.ClearPending()
			return c.toolReply(ctx, sess, tool, utterance)
		}
		switch consent.Resolve(answer) {
		case consent.RunNow:
			sess.ClearPending()
			sess.Grant(pending)
			c.observeConsent("granted")
			return c.runTool(ctx, pending, pendingUtterance), "tool:" + string(pending)
		case consent.Denied:
			sess.ClearPending()
			c.observeConsent("denied")
			return DeclineReply, OutcomeConsentDenied
		default:
			c.observeConsent("reprompt")
			return RepromptReply, OutcomeReprompt
		}
	}

	if hasTool {
		return c.toolReply(ctx, sess, tool, utterance)
	}
	return c.chatReply(ctx, sess)
}

// toolReply applies the consent policy to a fresh tool intent.
func (c *Controller) toolReply(ctx context.Context, sess *Session, tool intent.Tool, utterance string) (string, string) {
	pending, _ := sess.Pending()
	decision := consent.Decide(c.Mode, tool, pending, sess.Granted(tool))
	c.observeConsent(decision.String())
	switch decision {
	case consent.RunNow:
		return c.runTool(ctx, tool, utterance), "tool:" + string(tool)
	default:
		sess.SetPending(tool, utterance)
		return ConsentPrompt(tool), OutcomeConsentRequest
	}
}

func (c *Controller) runTool(ctx context.Context, tool intent.Tool, utterance string) string {
	return c.Gateway.Summarize(ctx, tool, utterance)
}

// chatReply falls back to the conversational model with the full rolling
// history. Model failures degrade to a fixed apology; the turn completes.
func (c *Controller) chatReply(ctx context.Context, sess *Session) (string, string) {
	reply, err := c.Chat.Chat(ctx, sess.History(), llm.GenerationParams{
		Temperature: &chatTemperature,
		MaxTokens:   &chatMaxTokens,
	})
	if err != nil {
		slog.Error("Chat completion failed", "error", err)
		return ChatApology, OutcomeApology
	}
	return reply, OutcomeChat
}

// speak resolves the reply to audio. When synthesis fails the call still
// gets an answer: the transport's builtin voice reads the text.
func (c *Controller) speak(ctx context.Context, span trace.Span, reply string) *datatypes.TwiML {
	audioURL, err := c.Speech.SpeakURL(ctx, reply)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Speech synthesis failed, degrading to transport voice", "error", err)
		return datatypes.SayTwiML(reply, c.HandleAction, c.Language)
	}
	return datatypes.PlayTwiML(audioURL, c.HandleAction, c.Language)
}

func (c *Controller) observeTurn(outcome string) {
	if c.Metrics != nil {
		c.Metrics.TurnObserved(outcome)
	}
}

func (c *Controller) observeConsent(decision string) {
	if c.Metrics != nil {
		c.Metrics.ConsentObserved(decision)
	}
}

func (c *Controller) recordTurn(ctx context.Context, callSid, user, assistant, outcome string) {
	if c.Audit == nil {
		return
	}
	turn := datatypes.Turn{
		TurnID:    uuid.NewString(),
		CallSid:   callSid,
		Timestamp: time.Now().UTC(),
		User:      user,
		Assistant: assistant,
		Outcome:   outcome,
	}
	if err := c.Audit.RecordTurn(ctx, turn); err != nil {
		slog.Warn("Failed to persist the turn transcript", "call_sid", callSid, "error", err)
	}
}

// EndCall closes the audit record when the transport reports the call
// completed. Sessions themselves are never evicted.
func (c *Controller) EndCall(ctx context.Context, callSid string) {
	if c.Audit == nil || callSid == "" {
		return
	}
	if err := c.Audit.EndCall(ctx, callSid); err != nil {
		slog.Warn("Failed to close the call audit record", "call_sid", callSid, "error", err)
	}
}
