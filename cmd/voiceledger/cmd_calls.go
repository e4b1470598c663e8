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
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/VoiceLedger/services/voice/audit"
)

// openAuditStore opens the badger store read-only enough for inspection.
// Badger takes a directory lock, so the commands fail while the service
// is running against the same path.
func openAuditStore() *audit.Store {
	store, err := audit.Open(audit.DefaultConfig(auditDBPath))
	if err != nil {
		log.Fatalf("Error opening the audit database at %s: %v", auditDBPath, err)
	}
	return store
}

func runCallsList(cmd *cobra.Command, args []string) {
	store := openAuditStore()
	defer store.Close()

	calls, err := store.ListCalls(context.Background())
	if err != nil {
		log.Fatalf("Error listing calls: %v", err)
	}

	if jsonOutput {
		if err := json.NewEncoder(os.Stdout).Encode(calls); err != nil {
			log.Fatalf("Error encoding calls: %v", err)
		}
		return
	}

	if len(calls) == 0 {
		fmt.Println("No recorded calls.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CALL SID\tSTARTED\tENDED\tTURNS")
	for _, call := range calls {
		ended := "in progress"
		if call.EndedAt != nil {
			ended = call.EndedAt.Local().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			call.CallSid, call.StartedAt.Local().Format(time.RFC3339), ended, call.Turns)
	}
	w.Flush()
}

func runCallsShow(cmd *cobra.Command, args []string) {
	store := openAuditStore()
	defer store.Close()

	turns, err := store.Transcript(context.Background(), args[0])
	if err != nil {
		log.Fatalf("Error reading the transcript for %s: %v", args[0], err)
	}

	if jsonOutput {
		if err := json.NewEncoder(os.Stdout).Encode(turns); err != nil {
			log.Fatalf("Error encoding the transcript: %v", err)
		}
		return
	}

	if len(turns) == 0 {
		fmt.Printf("No turns recorded for call %s.\n", args[0])
		return
	}

	for _, turn := range turns {
		fmt.Printf("[%s] (%s)\n", turn.Timestamp.Local().Format(time.RFC3339), turn.Outcome)
		fmt.Printf("  caller:    %s\n", turn.User)
		fmt.Printf("  assistant: %s\n", turn.Assistant)
	}
}
