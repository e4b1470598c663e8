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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	auditDBPath string // Path to the badger call audit database
	audioDir    string // Path to the synthesized audio cache
	serviceURL  string // Base URL of a running voice service
	jsonOutput  bool   // Machine-readable output

	rootCmd = &cobra.Command{
		Use:   "voiceledger",
		Short: "A cli to inspect and maintain the VoiceLedger voice assistant",
		Long: `VoiceLedger is a phone-call assistant that answers questions about
				your finances. This tool inspects its call records and audio cache.`,
	}

	// --- Call Records ---
	callsCmd = &cobra.Command{
		Use:   "calls",
		Short: "Inspect recorded call transcripts",
	}
	callsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List recorded calls, newest first",
		Run:   runCallsList, // Defined in cmd_calls.go
	}
	callsShowCmd = &cobra.Command{
		Use:   "show [call_sid]",
		Short: "Print the full transcript of one call",
		Args:  cobra.ExactArgs(1),
		Run:   runCallsShow, // Defined in cmd_calls.go
	}

	// --- Audio Cache ---
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Manage the synthesized audio cache",
	}
	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Report the size of the synthesized audio cache",
		Run:   runCacheStats, // Defined in cmd_cache.go
	}
	cachePurgeCmd = &cobra.Command{
		Use:   "purge",
		Short: "Delete every cached audio artifact",
		Run:   runCachePurge, // Defined in cmd_cache.go
	}

	// --- Service ---
	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Check whether the voice service is up",
		Run:   runStatus, // Defined in cmd_status.go
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Emit machine-readable JSON output")

	callsCmd.PersistentFlags().StringVar(&auditDBPath, "db", "data/voice_audit",
		"Path to the call audit database")
	callsCmd.AddCommand(callsListCmd)
	callsCmd.AddCommand(callsShowCmd)
	rootCmd.AddCommand(callsCmd)

	cacheCmd.PersistentFlags().StringVar(&audioDir, "dir", "data/audio",
		"Path to the synthesized audio cache directory")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)

	statusCmd.Flags().StringVar(&serviceURL, "url", "http://localhost:8080",
		"Base URL of the voice service")
	rootCmd.AddCommand(statusCmd)
}
