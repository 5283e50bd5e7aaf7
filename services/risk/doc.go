// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package risk derives discrete risk findings from project signals.
//
// The evaluator is a pure function over two signal feeds:
//
//	┌────────────────────────────────────────────────────────────┐
//	│                    Risk Evaluation                         │
//	├────────────────────────────────────────────────────────────┤
//	│                                                            │
//	│  TaskSignal[]            MessageSignal[]                   │
//	│       │                        │                           │
//	│       ▼                        ▼                           │
//	│  ┌──────────────┐      ┌──────────────────┐                │
//	│  │  Task rules  │      │ MessageClassifier│                │
//	│  │ blocked/stale│      │ (keyword match)  │                │
//	│  └──────────────┘      └──────────────────┘                │
//	│       │                        │                           │
//	│       └───────────┬────────────┘                           │
//	│                   ▼                                        │
//	│        Finding[] (task order, then message order)          │
//	│                                                            │
//	└────────────────────────────────────────────────────────────┘
//
// # Ordering
//
// Task findings come first, in input task order. For one task the blocked
// finding precedes the stale finding, which precedes the optional overdue
// finding. Message findings follow in input message order. Summaries and
// tests depend on this order being reproducible.
//
// # Validation
//
// Every record is validated before any rule runs. The first malformed
// record aborts evaluation with a *ValidationError; nothing is skipped.
//
// # Thread Safety
//
// Evaluator holds only read-only configuration and is safe for concurrent
// use from any number of request goroutines.
package risk
