// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for caller-provided identifiers that end up
// in database keys, file paths, or log lines. Using these validators prevents
// key injection and path traversal from spoofed webhook payloads.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// callSidPattern matches telephony call identifiers.
// Twilio issues "CA" followed by 32 lowercase hex characters; test traffic
// and other carriers use freer identifiers, so the pattern accepts any
// alphanumeric token with hyphens or underscores up to 64 characters.
var callSidPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,63}$`)

// phonePattern matches E.164 phone numbers: a plus sign, a non-zero
// leading digit, and up to 14 further digits.
var phonePattern = regexp.MustCompile(`^\+[1-9][0-9]{1,14}$`)

// ValidateCallSid validates a call identifier before it is used as a
// database key component.
//
// Valid identifiers:
//   - 1-64 characters
//   - Letters A-Z, a-z and digits 0-9
//   - Hyphens (-) and underscores (_)
//
// Colons, slashes, and dots are rejected because call identifiers are
// embedded in composite store keys and cache filenames.
//
// Example:
//
//	if err := validation.ValidateCallSid(sid); err != nil {
//	    return fmt.Errorf("invalid call sid: %w", err)
//	}
//	// Safe to use as a key component
func ValidateCallSid(sid string) error {
	if sid == "" {
		return fmt.Errorf("call sid cannot be empty")
	}

	if !callSidPattern.MatchString(sid) {
		return fmt.Errorf("invalid call sid format: %q (must be 1-64 alphanumeric chars, hyphens, or underscores)", sid)
	}

	return nil
}

// ValidatePhoneNumber validates an E.164 formatted caller number.
// Returns an error if the number is missing its plus prefix or carries
// anything other than 2-15 digits.
func ValidatePhoneNumber(number string) error {
	if number == "" {
		return fmt.Errorf("phone number cannot be empty")
	}

	if !phonePattern.MatchString(number) {
		return fmt.Errorf("invalid phone number format: %q (must be E.164, like +447700900123)", number)
	}

	return nil
}

// SanitizePhoneNumber normalizes and validates a caller number.
// Strips spaces, parentheses, and dashes that carriers sometimes leave in
// webhook payloads, then validates the result against E.164.
//
//	safeNumber, err := validation.SanitizePhoneNumber(form.Get("From"))
//	if err != nil {
//	    return err
//	}
//	// safeNumber is compact E.164
func SanitizePhoneNumber(number string) (string, error) {
	normalized := strings.NewReplacer(" ", "", "(", "", ")", "", "-", "").
		Replace(strings.TrimSpace(number))
	if err := ValidatePhoneNumber(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
