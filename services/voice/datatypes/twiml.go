// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the voice service.
//
// This file contains the TwiML directive documents returned to the telephony
// transport. Only the five verbs the service actually emits are modeled;
// marshaling order follows struct field order, which matches the order
// Twilio executes the verbs in.
package datatypes

import (
	"encoding/xml"
	"fmt"
)

// ContentTypeXML is the response content type for all TwiML documents.
const ContentTypeXML = "application/xml"

// TwiML is one directive document. Nil verb pointers are omitted from the
// output, so each helper below populates only the verbs its directive needs.
type TwiML struct {
	XMLName  xml.Name  `xml:"Response"`
	Pause    *Pause    `xml:",omitempty"`
	Play     *Play     `xml:",omitempty"`
	Say      *Say      `xml:",omitempty"`
	Gather   *Gather   `xml:",omitempty"`
	Redirect *Redirect `xml:",omitempty"`
	Hangup   *Hangup   `xml:",omitempty"`
}

type Pause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

type Play struct {
	XMLName xml.Name `xml:"Play"`
	URL     string   `xml:",chardata"`
}

type Say struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

// Gather re-opens the microphone and posts the recognized speech to Action.
type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr,omitempty"`
	Language      string   `xml:"language,attr,omitempty"`
	SpeechTimeout string   `xml:"speechTimeout,attr,omitempty"`
}

type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Render marshals the document with the XML prolog Twilio expects.
func (t *TwiML) Render() (string, error) {
	body, err := xml.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal TwiML document: %w", err)
	}
	return xml.Header + string(body), nil
}

func speechGather(action, language string) *Gather {
	return &Gather{
		Input:         "speech",
		Action:        action,
		Method:        "POST",
		Language:      language,
		SpeechTimeout: "auto",
	}
}

// ConnectTwiML opens the call: a short pause, the greeting audio, then a
// speech gather pointing at the handle endpoint.
func ConnectTwiML(greetingURL, action, language string) *TwiML {
	return &TwiML{
		Pause:  &Pause{Length: 1},
		Play:   &Play{URL: greetingURL},
		Gather: speechGather(action, language),
	}
}

// ConnectSayTwiML is the connect document when no greeting audio is
// available; the transport's builtin voice speaks the greeting instead.
func ConnectSayTwiML(greeting, action, language string) *TwiML {
	return &TwiML{
		Pause:  &Pause{Length: 1},
		Say:    &Say{Voice: "alice", Text: greeting},
		Gather: speechGather(action, language),
	}
}

// PlayTwiML plays a synthesized reply and re-opens the microphone.
func PlayTwiML(audioURL, action, language string) *TwiML {
	return &TwiML{
		Play:   &Play{URL: audioURL},
		Gather: speechGather(action, language),
	}
}

// SayTwiML is the degraded reply document used when synthesis fails: the
// reply text is spoken by the transport and the microphone still re-opens.
func SayTwiML(text, action, language string) *TwiML {
	return &TwiML{
		Say:    &Say{Voice: "alice", Text: text},
		Gather: speechGather(action, language),
	}
}

// RedirectTwiML sends the call back to the connect step. Used when the
// transport delivered no recognized speech; the turn is not consumed.
func RedirectTwiML(url string) *TwiML {
	return &TwiML{Redirect: &Redirect{Method: "POST", URL: url}}
}

// HangupTwiML terminates the call.
func HangupTwiML() *TwiML {
	return &TwiML{Hangup: &Hangup{}}
}

// DiagnosticTwiML is the static document served by the test endpoint to
// verify the transport integration independent of conversational logic.
func DiagnosticTwiML(text string) *TwiML {
	return &TwiML{
		Say:    &Say{Text: text},
		Hangup: &Hangup{},
	}
}
