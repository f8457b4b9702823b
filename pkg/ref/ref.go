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

// Package ref provides ownership-correct wrappers around the provider's
// reference-counted object handles.
//
// The provider's reference count is external state the Go runtime cannot
// track: a missing release leaks a credential handle for the process
// lifetime, and a double release corrupts the provider's count. A Ref owns
// exactly one claim on a handle and guarantees exactly one provider
// release per claim: Wrap adopts the reference returned by a create/copy
// primitive, Clone adds a claim through the provider's retain primitive,
// and Release surrenders the claim exactly once. After Release, the Ref is
// inert; further use returns ErrReleased and never reaches the provider.
//
// A Ref may be cloned and the clones used from different goroutines, but a
// single Ref instance must not be released concurrently with any other use
// of that same instance.
package ref

import (
	"errors"

	"github.com/jeremyhahn/go-keychain-services/pkg/provider"
)

// ErrReleased is returned when a reference is used after its release.
var ErrReleased = errors.New("ref: reference has been released")

// Marker kinds for the object a reference points at.
type (
	// Keychain marks references to keychain containers.
	Keychain struct{}

	// Key marks references to cryptographic keys.
	Key struct{}

	// Item marks references to keychain items.
	Item struct{}

	// Certificate marks references to certificates.
	Certificate struct{}
)

// Kind constrains a Ref to one of the provider object kinds.
type Kind interface {
	Keychain | Key | Item | Certificate
}

// Ref owns one claim on a provider object handle.
type Ref[K Kind] struct {
	rm       provider.ReferenceManager
	handle   provider.Handle
	released bool
}

// Wrap adopts ownership of a handle returned by a provider create or copy
// primitive. The handle already carries one reference; Wrap does not
// retain. Returns nil for the nil handle.
func Wrap[K Kind](rm provider.ReferenceManager, h provider.Handle) *Ref[K] {
	if h == provider.NilHandle {
		return nil
	}
	return &Ref[K]{rm: rm, handle: h}
}

// Handle borrows the underlying handle for the duration of a single
// provider call. The borrow confers no ownership; the caller must not
// retain, release or store it.
func (r *Ref[K]) Handle() (provider.Handle, error) {
	if r.released {
		return provider.NilHandle, ErrReleased
	}
	return r.handle, nil
}

// Clone adds a claim on the underlying object through the provider's
// retain primitive and returns a new independent reference to it.
func (r *Ref[K]) Clone() (*Ref[K], error) {
	if r.released {
		return nil, ErrReleased
	}
	r.rm.Retain(r.handle)
	return &Ref[K]{rm: r.rm, handle: r.handle}, nil
}

// Release surrenders this reference's claim, issuing exactly one provider
// release. A second Release returns ErrReleased without touching the
// provider.
func (r *Ref[K]) Release() error {
	if r.released {
		return ErrReleased
	}
	r.released = true
	r.rm.Release(r.handle)
	return nil
}

// Released reports whether Release has run.
func (r *Ref[K]) Released() bool {
	return r.released
}
