// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/VoiceLedger/pkg/validation"
	"github.com/AleutianAI/VoiceLedger/services/voice/conversation"
	"github.com/AleutianAI/VoiceLedger/services/voice/datatypes"
)

var voiceTracer = otel.Tracer("voiceledger.voice.handlers")

// DiagnosticText is served by the test endpoint to verify the transport
// integration without touching the conversational logic.
const DiagnosticText = "The voice webhook test path is working."

func renderTwiML(c *gin.Context, doc *datatypes.TwiML) {
	body, err := doc.Render()
	if err != nil {
		slog.Error("Failed to render the TwiML document", "error", err)
		c.String(http.StatusInternalServerError, "failed to render directive")
		return
	}
	c.Data(http.StatusOK, datatypes.ContentTypeXML, []byte(body))
}

// HandleConnect answers a freshly connected call with the greeting and
// the first speech gather.
func HandleConnect(ctrl *conversation.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := voiceTracer.Start(c.Request.Context(), "HandleConnect")
		defer span.End()
		slog.Info("Call connected", "call_sid", c.PostForm("CallSid"))
		renderTwiML(c, ctrl.Connect(ctx))
	}
}

// HandleSpeech consumes one recognized utterance and returns the next
// directive. Conversational failures never become HTTP errors; the
// controller degrades to spoken text so the call continues.
func HandleSpeech(ctrl *conversation.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := voiceTracer.Start(c.Request.Context(), "HandleSpeech")
		defer span.End()

		callSid := c.PostForm("CallSid")
		utterance := c.PostForm("SpeechResult")
		if callSid != "" {
			if err := validation.ValidateCallSid(callSid); err != nil {
				// A spoofed identifier must not reach the session or
				// audit keyspace. The controller hangs up on empty sids.
				slog.Warn("Rejected malformed call sid", "error", err)
				callSid = ""
			}
		}
		slog.Info("Speech turn received", "call_sid", callSid,
			"utterance_len", len(utterance))

		renderTwiML(c, ctrl.Turn(ctx, callSid, utterance))
	}
}

// HandleStatus receives the transport's call status callbacks and closes
// the audit record on completion.
func HandleStatus(ctrl *conversation.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := voiceTracer.Start(c.Request.Context(), "HandleStatus")
		defer span.End()

		callSid := c.PostForm("CallSid")
		status := c.PostForm("CallStatus")
		slog.Info("Call status callback", "call_sid", callSid, "status", status)

		switch status {
		case "completed", "failed", "busy", "no-answer", "canceled":
			ctrl.EndCall(ctx, callSid)
		}
		c.Status(http.StatusNoContent)
	}
}

// HandleTest returns the fixed diagnostic directive.
func HandleTest() gin.HandlerFunc {
	return func(c *gin.Context) {
		renderTwiML(c, datatypes.DiagnosticTwiML(DiagnosticText))
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
