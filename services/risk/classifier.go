// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package risk

import "strings"

// MessageClassifier classifies message text into zero or more finding kinds.
//
// Implementations must be deterministic and safe for concurrent use. The
// evaluator emits at most one finding per returned kind, in the order the
// kinds are returned.
type MessageClassifier interface {
	Classify(text string) []FindingKind
}

// KeywordClassifier flags a dependency mention when the text contains any
// keyword as a case-insensitive substring.
//
// Matching is deliberately naive: "awaiting" matches "waiting". Swap in a
// different MessageClassifier for anything smarter.
type KeywordClassifier struct {
	keywords []string
}

// NewKeywordClassifier creates a classifier for the given keywords.
// Blank keywords are ignored; with none left it falls back to "waiting".
func NewKeywordClassifier(keywords ...string) *KeywordClassifier {
	kc := &KeywordClassifier{}
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kc.keywords = append(kc.keywords, k)
		}
	}
	if len(kc.keywords) == 0 {
		kc.keywords = []string{DefaultDependencyKeyword}
	}
	return kc
}

// Keywords returns a copy of the lowercased keyword list.
func (kc *KeywordClassifier) Keywords() []string {
	out := make([]string, len(kc.keywords))
	copy(out, kc.keywords)
	return out
}

// Classify implements MessageClassifier.
func (kc *KeywordClassifier) Classify(text string) []FindingKind {
	lower := strings.ToLower(text)
	for _, k := range kc.keywords {
		if strings.Contains(lower, k) {
			return []FindingKind{KindDependencyMention}
		}
	}
	return nil
}
