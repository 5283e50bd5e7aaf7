// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package summarizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/AleutianAI/AleutianPulse/services/llm"
)

// ErrorKind classifies a summarization failure.
type ErrorKind string

const (
	KindAuthenticationFailed ErrorKind = "authentication_failed"
	KindRateLimited          ErrorKind = "rate_limited"
	KindTimeout              ErrorKind = "timeout"
	KindMalformedResponse    ErrorKind = "malformed_response"
	KindUnavailable          ErrorKind = "unavailable"
)

// Retryable reports whether a caller may reasonably retry this kind.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimited, KindTimeout, KindUnavailable:
		return true
	default:
		return false
	}
}

// SummarizationError is returned when the LLM call for a non-empty finding
// set fails. FindingCount and Truncated describe the prompt that was sent
// so the caller can decide whether to retry.
type SummarizationError struct {
	Kind         ErrorKind
	FindingCount int
	Truncated    bool
	Err          error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarize %d findings: %s: %v", e.FindingCount, e.Kind, e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// Canceled reports whether the caller cancelled the request, as opposed
// to the provider or the deadline running out. Such errors carry
// KindTimeout.
func (e *SummarizationError) Canceled() bool { return errors.Is(e.Err, context.Canceled) }

// Retryable reports whether the failure kind is worth retrying.
func (e *SummarizationError) Retryable() bool { return e.Kind.Retryable() }

// AsSummarizationError extracts a *SummarizationError from err's chain.
func AsSummarizationError(err error) (*SummarizationError, bool) {
	var se *SummarizationError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func kindFromLLM(k llm.ErrorKind) ErrorKind {
	switch k {
	case llm.KindAuthentication:
		return KindAuthenticationFailed
	case llm.KindRateLimited:
		return KindRateLimited
	case llm.KindTimeout:
		return KindTimeout
	case llm.KindMalformedResponse:
		return KindMalformedResponse
	default:
		return KindUnavailable
	}
}
