// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

// ServiceOptions bundles the pluggable providers of the pulse service.
//
// Every field must be set; use DefaultOptions and the With helpers rather
// than building the struct by hand.
//
// Example:
//
//	opts := extensions.DefaultOptions().
//	    WithAuth(authService).
//	    WithAuthz(auth.NewProjectAuthz(st)).
//	    WithAudit(extensions.NewSlogAuditLogger(slog.Default()))
type ServiceOptions struct {
	// AuthProvider validates bearer tokens.
	AuthProvider AuthProvider

	// AuthzProvider decides project access.
	AuthzProvider AuthzProvider

	// AuditLogger records security-relevant events.
	AuditLogger AuditLogger
}

// DefaultOptions returns options that deny every token, deny every
// project access and discard audit events.
func DefaultOptions() ServiceOptions {
	return ServiceOptions{
		AuthProvider:  &DenyAuthProvider{},
		AuthzProvider: &DenyAuthzProvider{},
		AuditLogger:   &NopAuditLogger{},
	}
}

// WithAuth returns a copy with the given AuthProvider.
func (opts ServiceOptions) WithAuth(provider AuthProvider) ServiceOptions {
	opts.AuthProvider = provider
	return opts
}

// WithAuthz returns a copy with the given AuthzProvider.
func (opts ServiceOptions) WithAuthz(provider AuthzProvider) ServiceOptions {
	opts.AuthzProvider = provider
	return opts
}

// WithAudit returns a copy with the given AuditLogger.
func (opts ServiceOptions) WithAudit(logger AuditLogger) ServiceOptions {
	opts.AuditLogger = logger
	return opts
}
