// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.
package intent

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tool identifies one read-only finance operation.
type Tool string

const (
	ToolTransactions Tool = "transactions"
	ToolBalance      Tool = "balance"
	ToolDebt         Tool = "debt"
	ToolSummary      Tool = "summary"
)

func (t *Tool) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	incoming := Tool(s)
	switch incoming {
	case ToolTransactions, ToolBalance, ToolDebt, ToolSummary:
		*t = incoming
		return nil
	default:
		return fmt.Errorf("invalid value for Tool: %q", incoming)
	}
}

// RuleFile is the on-disk (and embedded) shape of the intent rule table.
type RuleFile struct {
	Groups []Group `yaml:"groups"`
}

// Group maps a keyword vocabulary to a tool. Higher priority groups are
// evaluated first; the first group with a matching keyword wins, so
// precedence between overlapping vocabularies is pinned here rather than
// by iteration order.
type Group struct {
	Tool        Tool     `yaml:"tool"`
	Description string   `yaml:"description"`
	Priority    int      `yaml:"priority"`
	Keywords    []string `yaml:"keywords"`
}

// Prepare lowercases every keyword and sorts groups from highest to
// lowest priority. Returns an error on an empty or degenerate table.
func (f *RuleFile) Prepare() error {
	if len(f.Groups) == 0 {
		return fmt.Errorf("intent rule table contains no groups")
	}
	for i := range f.Groups {
		g := &f.Groups[i]
		if len(g.Keywords) == 0 {
			return fmt.Errorf("intent group %q has no keywords", g.Tool)
		}
		for j, kw := range g.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				return fmt.Errorf("intent group %q has an empty keyword", g.Tool)
			}
			g.Keywords[j] = kw
		}
	}
	sort.SliceStable(f.Groups, func(i, j int) bool {
		return f.Groups[i].Priority > f.Groups[j].Priority
	})
	return nil
}
