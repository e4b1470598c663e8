// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the finance gateway

package finance

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/VoiceLedger/services/voice/intent"
)

// mockHTTPClient captures the last request and replays a canned response.
type mockHTTPClient struct {
	lastRequest *http.Request
	status      int
	body        string
	err         error
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.lastRequest = req
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.status,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func newTestGateway(client *mockHTTPClient) *Gateway {
	g := NewGateway("http://finance.local")
	g.Client = client
	g.Now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return g
}

type recordingObserver struct {
	endpoints []string
}

func (r *recordingObserver) FinanceObserved(endpoint string, _ time.Duration) {
	r.endpoints = append(r.endpoints, endpoint)
}

func TestSummarize_ObservesLatencyPerEndpoint(t *testing.T) {
	client := &mockHTTPClient{status: 200, body: `{"success": true, "data": {"totalBalance": 1}}`}
	g := newTestGateway(client)
	observer := &recordingObserver{}
	g.Observer = observer

	g.Summarize(context.Background(), intent.ToolBalance, "balance")

	assert.Equal(t, []string{"balance"}, observer.endpoints)
}

func TestSummarize_NotLinked(t *testing.T) {
	g := NewGateway("")
	reply := g.Summarize(context.Background(), intent.ToolBalance, "what's my balance")
	assert.Equal(t, NotLinkedReply, reply)
}

func TestSummarize_Balance(t *testing.T) {
	client := &mockHTTPClient{status: 200, body: `{
		"success": true,
		"data": {"totalBalance": 1250.40, "bankName": "Starling", "currency": "pounds"}
	}`}
	g := newTestGateway(client)

	reply := g.Summarize(context.Background(), intent.ToolBalance, "what's my balance")

	assert.Equal(t, "You have 1250 pounds in Starling.", reply)
	require.NotNil(t, client.lastRequest)
	assert.Equal(t, "http://finance.local/api/finance/balance", client.lastRequest.URL.String())
	assert.Contains(t, client.lastRequest.Header.Get("Cache-Control"), "no-cache")
}

func TestSummarize_BalanceLegacyKey(t *testing.T) {
	// Older deployments use "balance" instead of "totalBalance" and
	// serialize money as a string.
	client := &mockHTTPClient{status: 200, body: `{
		"success": true,
		"data": {"balance": "980.00"}
	}`}
	g := newTestGateway(client)

	reply := g.Summarize(context.Background(), intent.ToolBalance, "how much is in my account")
	assert.Equal(t, "You have 980 pounds in the bank.", reply)
}

func TestSummarize_Debt(t *testing.T) {
	client := &mockHTTPClient{status: 200, body: `{
		"success": true,
		"data": {
			"totalDebt": 2100,
			"cards": [
				{"name": "Barclaycard", "balance": 1500},
				{"name": "Capital One", "balance": 600}
			],
			"overdueCards": [{"name": "Barclaycard", "balance": 1500}]
		}
	}`}
	g := newTestGateway(client)

	reply := g.Summarize(context.Background(), intent.ToolDebt, "how much do I owe")

	assert.Contains(t, reply, "You owe 2100 pounds on your cards.")
	assert.Contains(t, reply, "One card is maxed out.")
	assert.Contains(t, reply, "Barclaycard 1500, Capital One 600")
}

func TestSummarize_SummaryNegativeNetWorth(t *testing.T) {
	client := &mockHTTPClient{status: 200, body: `{
		"success": true,
		"data": {"bankBalance": 500, "totalDebt": 2000, "netWorth": -1500}
	}`}
	g := newTestGateway(client)

	reply := g.Summarize(context.Background(), intent.ToolSummary, "summary please")
	assert.Equal(t, "You have 500 pounds in the bank and 2000 pounds in debt. Your net worth is negative 1500 pounds.", reply)
}

func TestSummarize_Transactions(t *testing.T) {
	client := &mockHTTPClient{status: 200, body: `{
		"success": true,
		"data": {"transactions": [
			{"date": "2025-06-14", "merchant": "Tesco", "amount": 32, "type": "withdrawal"},
			{"date": "2025-06-13", "merchant": "Payroll", "amount": 1800, "type": "deposit"},
			{"date": "2025-06-13", "merchant": "Boots", "amount": 12, "type": "withdrawal"},
			{"date": "2025-06-12", "merchant": "Amazon", "amount": 25, "type": "withdrawal"}
		]}
	}`}
	g := newTestGateway(client)

	reply := g.Summarize(context.Background(), intent.ToolTransactions, "read my transactions")

	// Only the first three are spoken.
	assert.Contains(t, reply, "2025-06-14: Tesco, minus 32 pounds")
	assert.Contains(t, reply, "2025-06-13: Payroll, plus 1800 pounds")
	assert.Contains(t, reply, "2025-06-13: Boots, minus 12 pounds")
	assert.NotContains(t, reply, "Amazon")

	q := client.lastRequest.URL.Query()
	assert.Equal(t, "5", q.Get("limit"))
	assert.Equal(t, "2025-06-12", q.Get("start"), "default window is three days")
	assert.Equal(t, "2025-06-15", q.Get("end"))
	assert.Empty(t, q.Get("type"))
}

func TestSummarize_TransactionsEmpty(t *testing.T) {
	client := &mockHTTPClient{status: 200, body: `{"success": true, "data": {"transactions": []}}`}
	g := newTestGateway(client)

	reply := g.Summarize(context.Background(), intent.ToolTransactions, "transactions today")
	assert.Equal(t, "I couldn't find any matching transactions in that period.", reply)
}

func TestSummarize_DegradedPaths(t *testing.T) {
	tests := []struct {
		name   string
		client *mockHTTPClient
	}{
		{"network error", &mockHTTPClient{err: fmt.Errorf("connection refused")}},
		{"server error", &mockHTTPClient{status: 500, body: "boom"}},
		{"success false", &mockHTTPClient{status: 200, body: `{"success": false}`}},
		{"malformed body", &mockHTTPClient{status: 200, body: `{{{`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(tt.client)
			reply := g.Summarize(context.Background(), intent.ToolBalance, "balance")
			assert.Equal(t, apologyReply, reply)
		})
	}
}

func TestInferDateRange(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	day := func(d int) string {
		return now.AddDate(0, 0, d).Format("2006-01-02")
	}

	tests := []struct {
		name      string
		utterance string
		wantStart string
		wantEnd   string
	}{
		{"today", "what did I spend today", day(0), day(0)},
		{"yesterday", "transactions from yesterday", day(-1), day(-1)},
		{"last week", "what did I buy last week", day(-7), day(0)},
		{"last month", "spending last month", day(-30), day(0)},
		{"default window", "read my transactions", day(-3), day(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := inferDateRange(tt.utterance, now)
			assert.Equal(t, tt.wantStart, start.Format("2006-01-02"))
			assert.Equal(t, tt.wantEnd, end.Format("2006-01-02"))
		})
	}
}

func TestInferTransactionType(t *testing.T) {
	tests := []struct {
		utterance string
		want      string
	}{
		{"what did I spend on food", "withdrawal"},
		{"what have I bought recently", "withdrawal"},
		{"what got paid in last week", "deposit"},
		{"money that came in", "deposit"},
		{"show me what I received", "deposit"},
		{"read my transactions", ""},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			assert.Equal(t, tt.want, inferTransactionType(tt.utterance))
		})
	}
}
