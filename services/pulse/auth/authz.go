// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/AleutianAI/AleutianPulse/pkg/extensions"
	"github.com/AleutianAI/AleutianPulse/services/pulse/store"
)

// OwnerLookup returns the owner of a project.
type OwnerLookup interface {
	ProjectOwner(ctx context.Context, projectID string) (string, error)
}

// ProjectAuthz allows project access to the project's owner only.
// Missing projects and foreign projects are both denied with
// ErrUnauthorized so callers cannot probe for ids.
type ProjectAuthz struct {
	owners OwnerLookup
}

var _ extensions.AuthzProvider = (*ProjectAuthz)(nil)

func NewProjectAuthz(owners OwnerLookup) *ProjectAuthz {
	return &ProjectAuthz{owners: owners}
}

// Authorize implements extensions.AuthzProvider.
func (a *ProjectAuthz) Authorize(ctx context.Context, req extensions.AuthzRequest) error {
	if req.User == nil || req.User.UserID == "" {
		return fmt.Errorf("no authenticated user: %w", extensions.ErrUnauthorized)
	}
	if req.ResourceType != extensions.ResourceProject {
		return fmt.Errorf("unsupported resource type %q: %w", req.ResourceType, extensions.ErrUnauthorized)
	}

	owner, err := a.owners.ProjectOwner(ctx, req.ResourceID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("project %s: %w", req.ResourceID, extensions.ErrUnauthorized)
	}
	if err != nil {
		return err
	}
	if owner != req.User.UserID {
		return fmt.Errorf("user %s cannot %s project %s: %w",
			req.User.UserID, req.Action, req.ResourceID, extensions.ErrUnauthorized)
	}
	return nil
}
