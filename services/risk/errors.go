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

import (
	"errors"
	"fmt"
)

// RecordKind names the signal feed a malformed record came from.
type RecordKind string

const (
	RecordTask    RecordKind = "task"
	RecordMessage RecordKind = "message"
)

// ValidationError reports a malformed input record.
//
// Index is the zero-based position of the record in its feed. RecordID is
// the record's identifier when one was supplied, so callers can point the
// user at the offending row.
type ValidationError struct {
	Record   RecordKind `json:"record"`
	Index    int        `json:"index"`
	RecordID string     `json:"record_id,omitempty"`
	Field    string     `json:"field"`
	Reason   string     `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("invalid %s %q at index %d: field %s: %s",
			e.Record, e.RecordID, e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s at index %d: field %s: %s",
		e.Record, e.Index, e.Field, e.Reason)
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
