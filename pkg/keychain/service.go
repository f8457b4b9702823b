// Copyright (c) 2026 Jeremy Hahn
// Copyright (c) 2026 Automate The Things, LLC
//
// This file is part of go-keychain-services.
//
// go-keychain-services is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package keychain is the public facade over a secure credential store.
//
// A Service wraps a provider and exposes keychain management, password item
// storage, key management and cryptographic operations. Provider failures
// are translated into the status error taxonomy at every call site; object
// handles are wrapped in owned references that the caller must release.
//
// All operations are synchronous. Operations on keys guarded by an access
// control policy may block until the platform authentication prompt
// resolves; cancellation and authentication failure surface as ordinary
// errors, and the service never retries or caches authentication state.
package keychain

import (
	"github.com/jeremyhahn/go-keychain-services/pkg/logging"
	"github.com/jeremyhahn/go-keychain-services/pkg/provider"
)

// Service provides access to a secure credential store through a provider.
//
// A Service is safe for concurrent use when its provider is; the Service
// itself holds no mutable state. Objects returned by a Service (Keychain,
// Item, Key) carry owned provider references and must be released by the
// caller.
type Service struct {
	p   provider.Provider
	log *logging.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger installs a logger for debug-level operation tracing. Failures
// are always reported through return values; logging is diagnostic only.
func WithLogger(log *logging.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// New creates a Service backed by the given provider.
func New(p provider.Provider, opts ...Option) *Service {
	s := &Service{
		p:   p,
		log: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
