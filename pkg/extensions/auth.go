// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extensions defines the identity and access-control contracts
// shared by the HTTP middleware, the MCP server and the auth service.
package extensions

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned when authentication or authorization fails.
// Implementations should wrap it with additional context.
//
// Example:
//
//	if !validToken {
//	    return nil, fmt.Errorf("invalid token format: %w", extensions.ErrUnauthorized)
//	}
var ErrUnauthorized = errors.New("unauthorized")

// Actions understood by AuthzProvider implementations.
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// ResourceProject is the resource type for project-scoped requests.
const ResourceProject = "project"

// AuthInfo contains identity information returned after successful authentication.
//
// Required fields (always populated):
//   - UserID: Unique identifier for the user
//
// Optional fields (may be empty):
//   - Name, Email: profile data from the user record
//   - Roles: List of roles the user belongs to
type AuthInfo struct {
	// UserID is the unique identifier for the authenticated user.
	// This is the only required field and must never be empty.
	UserID string

	Name  string
	Email string

	// Roles contains the user's role memberships for authorization decisions.
	Roles []string
}

// HasRole checks if the user has a specific role.
func (a *AuthInfo) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AuthProvider validates bearer tokens and returns user identity.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type AuthProvider interface {
	// Validate checks if the token is valid and returns the user's identity.
	//
	// Returns:
	//   - *AuthInfo: User identity information if valid
	//   - error: ErrUnauthorized (or wrapped) if invalid, other errors for failures
	Validate(ctx context.Context, token string) (*AuthInfo, error)
}

// AuthzRequest describes an authorization check request as a
// (subject, action, resource) triple.
//
// Example:
//
//	req := AuthzRequest{
//	    User:         authInfo,
//	    Action:       ActionRead,
//	    ResourceType: ResourceProject,
//	    ResourceID:   projectID,
//	}
//	err := authzProvider.Authorize(ctx, req)
type AuthzRequest struct {
	// User is the authenticated user making the request.
	// This comes from AuthProvider.Validate().
	User *AuthInfo

	// Action is the operation being attempted.
	Action string

	// ResourceType is the category of resource being accessed.
	ResourceType string

	// ResourceID is the specific resource instance (optional).
	// If empty, the check is for the resource type in general.
	ResourceID string
}

// AuthzProvider checks if a user is authorized to perform an action.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type AuthzProvider interface {
	// Authorize returns nil when the action is permitted and
	// ErrUnauthorized (or wrapped) when it is denied.
	Authorize(ctx context.Context, req AuthzRequest) error
}

// DenyAuthProvider rejects every token. It is the safe default when no
// auth service is wired.
type DenyAuthProvider struct{}

// Validate implements AuthProvider.
func (p *DenyAuthProvider) Validate(ctx context.Context, token string) (*AuthInfo, error) {
	return nil, ErrUnauthorized
}

// DenyAuthzProvider denies every request.
type DenyAuthzProvider struct{}

// Authorize implements AuthzProvider.
func (p *DenyAuthzProvider) Authorize(ctx context.Context, req AuthzRequest) error {
	return ErrUnauthorized
}

var (
	_ AuthProvider  = (*DenyAuthProvider)(nil)
	_ AuthzProvider = (*DenyAuthzProvider)(nil)
)
