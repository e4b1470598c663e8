// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
This file bridges the build system and the runtime classifier. It uses the
Go embed package to bake intent_rules.yaml directly into the compiled
binary, so the default rule table travels with the executable and cannot
drift from the code that interprets it.
*/

package rules

import (
	_ "embed"
)

// IntentRules holds the raw byte content of the 'intent_rules.yaml' file.
//
// Populated at compile time via the Go 'embed' directive. Deployments that
// need a different vocabulary point INTENT_RULES_PATH at an external file
// instead of rebuilding.
//
//go:embed intent_rules.yaml
var IntentRules []byte
