// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/VoiceLedger/services/voice/conversation"
	"github.com/AleutianAI/VoiceLedger/services/voice/handlers"
)

// Webhook paths baked into the emitted directives.
const (
	ConnectPath = "/voice/connect"
	HandlePath  = "/voice/handle"
	StatusPath  = "/voice/status"
	TestPath    = "/voice/test"
	AudioPath   = "/audio"
)

// SetupRoutes wires the telephony webhook surface, the static audio
// artifacts, and the operational endpoints.
func SetupRoutes(router *gin.Engine, ctrl *conversation.Controller, audioDir string) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Synthesized artifacts are served by content fingerprint.
	router.Static(AudioPath, audioDir)

	voice := router.Group("/voice")
	{
		voice.POST("/connect", handlers.HandleConnect(ctrl))
		voice.POST("/handle", handlers.HandleSpeech(ctrl))
		voice.POST("/status", handlers.HandleStatus(ctrl))
		voice.POST("/test", handlers.HandleTest())
	}
}
