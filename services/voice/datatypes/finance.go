// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Typed response schema for the linked finance service.
//
// The upstream API historically renamed a few keys (`balance` vs
// `totalBalance`) and serializes money sometimes as a number and sometimes
// as a string. All of that tolerance lives here, in one place; consumers
// only ever see the normalized fields.

package datatypes

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Money accepts both JSON numbers and numeric strings.
type Money float64

func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid money value %q: %w", s, err)
	}
	*m = Money(v)
	return nil
}

// FinanceEnvelope wraps every finance API response.
type FinanceEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type BalanceData struct {
	TotalBalance Money  `json:"totalBalance"`
	BankName     string `json:"bankName,omitempty"`
	Currency     string `json:"currency,omitempty"`

	// LegacyBalance is the pre-rename key still emitted by older
	// deployments. Folded into TotalBalance by Normalize.
	LegacyBalance *Money `json:"balance,omitempty"`
}

// Normalize folds legacy keys into their canonical fields and fills
// defaults. Must be called once, immediately after decoding.
func (b *BalanceData) Normalize() {
	if b.TotalBalance == 0 && b.LegacyBalance != nil {
		b.TotalBalance = *b.LegacyBalance
	}
	if b.Currency == "" {
		b.Currency = "pounds"
	}
}

type CreditCard struct {
	Name            string `json:"name"`
	Balance         Money  `json:"balance"`
	CreditLimit     Money  `json:"creditLimit,omitempty"`
	AvailableCredit Money  `json:"availableCredit,omitempty"`
}

type DebtData struct {
	TotalDebt    Money        `json:"totalDebt"`
	Cards        []CreditCard `json:"cards,omitempty"`
	OverdueCards []CreditCard `json:"overdueCards,omitempty"`
	Currency     string       `json:"currency,omitempty"`
}

func (d *DebtData) Normalize() {
	if d.Currency == "" {
		d.Currency = "pounds"
	}
}

type SummaryData struct {
	BankBalance Money  `json:"bankBalance"`
	TotalDebt   Money  `json:"totalDebt"`
	NetWorth    Money  `json:"netWorth"`
	Currency    string `json:"currency,omitempty"`
}

func (s *SummaryData) Normalize() {
	if s.Currency == "" {
		s.Currency = "pounds"
	}
}

type Transaction struct {
	Date     string `json:"date"`
	Merchant string `json:"merchant"`
	Amount   Money  `json:"amount"`
	Currency string `json:"currency,omitempty"`
	// Type is "deposit" or "withdrawal".
	Type string `json:"type"`
}

type TransactionsData struct {
	Transactions []Transaction `json:"transactions"`
}

func (t *TransactionsData) Normalize() {
	for i := range t.Transactions {
		if t.Transactions[i].Currency == "" {
			t.Transactions[i].Currency = "pounds"
		}
	}
}
