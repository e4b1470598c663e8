// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/VoiceLedger/services/voice/speech"
)

func runCacheStats(cmd *cobra.Command, args []string) {
	files, bytes, err := speech.CacheStats(audioDir)
	if err != nil {
		log.Fatalf("Error reading the audio cache: %v", err)
	}

	if jsonOutput {
		stats := map[string]any{"files": files, "bytes": bytes}
		if err := json.NewEncoder(os.Stdout).Encode(stats); err != nil {
			log.Fatalf("Error encoding cache stats: %v", err)
		}
		return
	}

	fmt.Printf("Audio cache %s: %d files, %.1f KiB\n",
		audioDir, files, float64(bytes)/1024)
}

func runCachePurge(cmd *cobra.Command, args []string) {
	removed, err := speech.PurgeCache(audioDir)
	if err != nil {
		log.Fatalf("Error purging the audio cache: %v", err)
	}
	fmt.Printf("Removed %d cached audio files from %s\n", removed, audioDir)
}
