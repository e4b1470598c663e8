// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package finance turns one tool identifier into one read-only query
// against the linked finance service and a spoken-language summary of
// the result.
//
// Failure policy: the call must continue. Every network or decoding
// failure becomes a fixed spoken apology; nothing here returns an error
// to the controller.
package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/VoiceLedger/services/voice/datatypes"
	"github.com/AleutianAI/VoiceLedger/services/voice/intent"
)

var financeTracer = otel.Tracer("voiceledger.voice.finance")

// Fixed spoken sentences for the degraded paths.
const (
	NotLinkedReply = "Your finance account isn't linked yet, so I can't look that up."
	apologyReply   = "Sorry, I couldn't reach your finance account just now. Let's try again in a minute."
)

const (
	requestTimeout  = 8 * time.Second
	transactionsCap = 5
	spokenTxLimit   = 3
	defaultRangeDay = 3
)

// HTTPClient allows injecting mock HTTP clients for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestObserver receives per-endpoint latency samples. Wired to the
// prometheus metrics in production; nil disables observation.
type RequestObserver interface {
	FinanceObserved(endpoint string, elapsed time.Duration)
}

// Gateway issues finance queries and formats spoken replies.
type Gateway struct {
	BaseURL  string
	Client   HTTPClient
	Observer RequestObserver

	// Now is the clock used for date-range inference. Defaults to
	// time.Now; tests pin it.
	Now func() time.Time
}

func NewGateway(baseURL string) *Gateway {
	return &Gateway{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Client:  &http.Client{Timeout: requestTimeout},
		Now:     time.Now,
	}
}

// Summarize runs the tool and returns the sentence to speak. The raw
// utterance is consulted only for transaction date-range and type
// inference.
func (g *Gateway) Summarize(ctx context.Context, tool intent.Tool, utterance string) string {
	ctx, span := financeTracer.Start(ctx, "Gateway.Summarize")
	defer span.End()
	span.SetAttributes(attribute.String("tool", string(tool)))

	if g.BaseURL == "" {
		slog.Warn("Finance tool requested but FINANCE_API_URL is not set", "tool", tool)
		return NotLinkedReply
	}

	switch tool {
	case intent.ToolBalance:
		return g.balanceReply(ctx)
	case intent.ToolDebt:
		return g.debtReply(ctx)
	case intent.ToolSummary:
		return g.summaryReply(ctx)
	case intent.ToolTransactions:
		return g.transactionsReply(ctx, utterance)
	default:
		slog.Error("Unknown finance tool", "tool", tool)
		return apologyReply
	}
}

// fetch performs one GET and decodes the success envelope into out.
func (g *Gateway) fetch(ctx context.Context, endpoint string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	u := g.BaseURL + "/api/finance/" + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build the finance request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")

	start := time.Now()
	resp, err := g.Client.Do(req)
	if err != nil {
		return fmt.Errorf("finance request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if g.Observer != nil {
		g.Observer.FinanceObserved(endpoint, time.Since(start))
	}

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("finance endpoint %s returned status %d", endpoint, resp.StatusCode)
	}

	var envelope datatypes.FinanceEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode the finance response from %s: %w", endpoint, err)
	}
	if !envelope.Success {
		return fmt.Errorf("finance endpoint %s reported success=false", endpoint)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode the finance payload from %s: %w", endpoint, err)
	}
	return nil
}

func (g *Gateway) balanceReply(ctx context.Context) string {
	var data datatypes.BalanceData
	if err := g.fetch(ctx, "balance", nil, &data); err != nil {
		slog.Error("Balance query failed", "error", err)
		return apologyReply
	}
	data.Normalize()
	if data.BankName != "" {
		return fmt.Sprintf("You have %.0f %s in %s.", data.TotalBalance, data.Currency, data.BankName)
	}
	return fmt.Sprintf("You have %.0f %s in the bank.", data.TotalBalance, data.Currency)
}

func (g *Gateway) debtReply(ctx context.Context) string {
	var data datatypes.DebtData
	if err := g.fetch(ctx, "debt", nil, &data); err != nil {
		slog.Error("Debt query failed", "error", err)
		return apologyReply
	}
	data.Normalize()

	reply := fmt.Sprintf("You owe %.0f %s on your cards.", data.TotalDebt, data.Currency)
	if n := len(data.OverdueCards); n == 1 {
		reply += " One card is maxed out."
	} else if n > 1 {
		reply += fmt.Sprintf(" %d cards are maxed out.", n)
	}
	if len(data.Cards) > 0 {
		parts := make([]string, 0, spokenTxLimit)
		for i, card := range data.Cards {
			if i == spokenTxLimit {
				break
			}
			parts = append(parts, fmt.Sprintf("%s %.0f", card.Name, card.Balance))
		}
		reply += " That's " + strings.Join(parts, ", ") + "."
	}
	return reply
}

func (g *Gateway) summaryReply(ctx context.Context) string {
	var data datatypes.SummaryData
	if err := g.fetch(ctx, "summary", nil, &data); err != nil {
		slog.Error("Summary query failed", "error", err)
		return apologyReply
	}
	data.Normalize()
	if data.NetWorth < 0 {
		return fmt.Sprintf("You have %.0f %s in the bank and %.0f %s in debt. Your net worth is negative %.0f %s.",
			data.BankBalance, data.Currency, data.TotalDebt, data.Currency, -data.NetWorth, data.Currency)
	}
	return fmt.Sprintf("You have %.0f %s in the bank and %.0f %s in debt. Your net worth is %.0f %s.",
		data.BankBalance, data.Currency, data.TotalDebt, data.Currency, data.NetWorth, data.Currency)
}

func (g *Gateway) transactionsReply(ctx context.Context, utterance string) string {
	start, end := inferDateRange(utterance, g.Now())
	query := url.Values{}
	query.Set("start", start.Format("2006-01-02"))
	query.Set("end", end.Format("2006-01-02"))
	query.Set("limit", fmt.Sprint(transactionsCap))
	if txType := inferTransactionType(utterance); txType != "" {
		query.Set("type", txType)
	}

	var data datatypes.TransactionsData
	if err := g.fetch(ctx, "transactions", query, &data); err != nil {
		slog.Error("Transactions query failed", "error", err)
		return apologyReply
	}
	data.Normalize()

	if len(data.Transactions) == 0 {
		return "I couldn't find any matching transactions in that period."
	}

	parts := make([]string, 0, spokenTxLimit)
	for i, tx := range data.Transactions {
		if i == spokenTxLimit {
			break
		}
		sign := "minus"
		if tx.Type == "deposit" {
			sign = "plus"
		}
		parts = append(parts, fmt.Sprintf("%s: %s, %s %.0f %s",
			tx.Date, tx.Merchant, sign, tx.Amount, tx.Currency))
	}
	return "Here are your latest transactions. " + strings.Join(parts, "; ") + "."
}

// inferDateRange reads period phrases out of the utterance. The default
// window is the last three days through today.
func inferDateRange(utterance string, now time.Time) (start, end time.Time) {
	lower := strings.ToLower(utterance)
	end = now
	switch {
	case strings.Contains(lower, "today"):
		start = now
	case strings.Contains(lower, "yesterday"):
		start = now.AddDate(0, 0, -1)
		end = start
	case strings.Contains(lower, "last week"):
		start = now.AddDate(0, 0, -7)
	case strings.Contains(lower, "last month"):
		start = now.AddDate(0, 0, -30)
	default:
		start = now.AddDate(0, 0, -defaultRangeDay)
	}
	return start, end
}

// inferTransactionType maps spending and income verbs to a type filter.
// Returns "" when no verb is recognized, meaning both types.
func inferTransactionType(utterance string) string {
	lower := strings.ToLower(utterance)
	// "paid in" must be tested before the bare spending verb "paid".
	for _, kw := range []string{"paid in", "received", "deposit", "came in"} {
		if strings.Contains(lower, kw) {
			return "deposit"
		}
	}
	for _, kw := range []string{"spent", "spend", "bought", "paid", "purchase"} {
		if strings.Contains(lower, kw) {
			return "withdrawal"
		}
	}
	return ""
}
