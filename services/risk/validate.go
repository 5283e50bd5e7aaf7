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
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks signals against the ingestion invariants.
//
// # Description
//
// Wraps a go-playground validator with three custom tags:
//
//   - task_status: one of TaskStatuses
//   - task_source: DefaultTaskSources plus any extra task sources
//   - message_source: DefaultMessageSources plus any extra message sources
//
// Source comparison is case-insensitive.
//
// # Thread Safety
//
// Safe for concurrent use once constructed; the source sets are never
// mutated after NewValidator returns.
type Validator struct {
	validate       *validator.Validate
	taskSources    map[Source]struct{}
	messageSources map[Source]struct{}
}

// NewValidator creates a Validator that also accepts the given extra
// source tags.
func NewValidator(extraTaskSources, extraMessageSources []string) *Validator {
	v := &Validator{
		validate:       validator.New(),
		taskSources:    sourceSet(DefaultTaskSources, extraTaskSources),
		messageSources: sourceSet(DefaultMessageSources, extraMessageSources),
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.validate.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		return TaskStatus(fl.Field().String()).Valid()
	})
	_ = v.validate.RegisterValidation("task_source", func(fl validator.FieldLevel) bool {
		_, ok := v.taskSources[normalizeSource(fl.Field().String())]
		return ok
	})
	_ = v.validate.RegisterValidation("message_source", func(fl validator.FieldLevel) bool {
		_, ok := v.messageSources[normalizeSource(fl.Field().String())]
		return ok
	})

	return v
}

func sourceSet(builtin []Source, extra []string) map[Source]struct{} {
	set := make(map[Source]struct{}, len(builtin)+len(extra))
	for _, s := range builtin {
		set[s] = struct{}{}
	}
	for _, s := range extra {
		if n := normalizeSource(s); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// ValidateTask validates one task. index is the task's position in its feed.
func (v *Validator) ValidateTask(index int, t TaskSignal) error {
	if err := v.validate.Struct(t); err != nil {
		return toValidationError(RecordTask, index, t.TaskID, err)
	}
	return nil
}

// ValidateMessage validates one message.
func (v *Validator) ValidateMessage(index int, m MessageSignal) error {
	if err := v.validate.Struct(m); err != nil {
		return toValidationError(RecordMessage, index, m.MessageID, err)
	}
	return nil
}

// ValidateSignals validates both feeds, tasks first, and returns the first
// failure.
func (v *Validator) ValidateSignals(tasks []TaskSignal, messages []MessageSignal) error {
	for i, t := range tasks {
		if err := v.ValidateTask(i, t); err != nil {
			return err
		}
	}
	for i, m := range messages {
		if err := v.ValidateMessage(i, m); err != nil {
			return err
		}
	}
	return nil
}

// toValidationError converts the first validator failure into a
// *ValidationError with a readable reason.
func toValidationError(kind RecordKind, index int, id string, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Record: kind, Index: index, RecordID: id, Field: "", Reason: err.Error()}
	}

	fe := fieldErrs[0]
	return &ValidationError{
		Record:   kind,
		Index:    index,
		RecordID: id,
		Field:    fe.Field(),
		Reason:   describeFieldError(fe),
	}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "task_status":
		return fmt.Sprintf("unrecognized status %q", fe.Value())
	case "task_source", "message_source":
		return fmt.Sprintf("unrecognized source %q", fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
