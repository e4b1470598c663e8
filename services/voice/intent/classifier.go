// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package intent maps free utterance text to an optional finance tool.
//
// Classification is keyword matching only, driven by a priority-ordered
// rule table embedded in the binary (see the rules subpackage). There is
// no model call here; the controller falls back to free-form chat when no
// group matches.
package intent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/VoiceLedger/services/voice/intent/rules"
)

// Classifier evaluates utterances against the loaded rule table.
//
// Safe for concurrent use; Reload may be called while Classify is running
// on other goroutines.
type Classifier struct {
	mu     sync.RWMutex
	groups []Group
}

// NewClassifier initializes a classifier from the embedded rule table.
func NewClassifier() (*Classifier, error) {
	c := &Classifier{}
	if err := c.load(rules.IntentRules); err != nil {
		return nil, fmt.Errorf("failed to load the embedded intent rules: %w", err)
	}
	return c, nil
}

// NewClassifierFromFile initializes a classifier from an external rule
// file, falling back to nothing: a bad file is a startup error.
func NewClassifierFromFile(path string) (*Classifier, error) {
	c := &Classifier{}
	if err := c.Reload(path); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Classifier) load(raw []byte) error {
	var file RuleFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to unmarshal the intent rule file: %w", err)
	}
	if err := file.Prepare(); err != nil {
		return err
	}
	c.mu.Lock()
	c.groups = file.Groups
	c.mu.Unlock()
	return nil
}

// Reload replaces the rule table from an external file. On any error the
// previous table stays active.
func (c *Classifier) Reload(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read the intent rule file %s: %w", path, err)
	}
	if err := c.load(raw); err != nil {
		return fmt.Errorf("failed to parse the intent rule file %s: %w", path, err)
	}
	slog.Info("Reloaded intent rules", "path", path, "groups", len(c.groups))
	return nil
}

// Classify returns the tool triggered by the utterance, or false when no
// group matches. Matching is case-insensitive substring matching against
// groups in descending priority order, so overlaps between vocabularies
// (transaction verbs vs balance nouns) resolve deterministically.
func (c *Classifier) Classify(utterance string) (Tool, bool) {
	lower := strings.ToLower(utterance)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, g := range c.groups {
		for _, kw := range g.Keywords {
			if strings.Contains(lower, kw) {
				return g.Tool, true
			}
		}
	}
	return "", false
}

// Watch re-reads the rule file whenever it changes on disk. Blocks until
// the context is cancelled; run in a goroutine. Editors that replace the
// file (rename-over) remove the watch, so the path is re-added after
// every event.
func (c *Classifier) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create the rules watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch the intent rule file %s: %w", path, err)
	}
	slog.Info("Watching intent rules for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := c.Reload(path); err != nil {
				slog.Warn("Intent rule reload failed, keeping previous table", "error", err)
			}
			// Re-arm in case the file was replaced rather than written.
			_ = watcher.Add(path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Intent rules watcher error", "error", err)
		}
	}
}
