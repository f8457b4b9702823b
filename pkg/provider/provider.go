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

// Package provider defines the contract with the external secure-storage
// and cryptographic service.
//
// The provider is a black box reached through a fixed set of primitives.
// Every primitive returns a raw status.OSStatus; translation into the
// error taxonomy happens at the call site, never inside a provider.
//
// Ownership convention: any primitive that creates or copies an object
// (CreateObject, CopyMatching, GenerateKeyPair, ImportKey) returns handles
// carrying one reference owned by the caller, who must balance it with
// exactly one Release. Handles passed into other primitives are borrowed
// for the duration of the call only.
package provider

import (
	"github.com/jeremyhahn/go-keychain-services/pkg/attr"
	"github.com/jeremyhahn/go-keychain-services/pkg/status"
	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

// Handle is an opaque identity for a provider-managed object. It carries
// no inspectable structure and is never fabricated outside a provider.
type Handle uint64

// NilHandle is the absent handle.
const NilHandle Handle = 0

// ReferenceManager is the reference counting subset of the provider
// contract. Retain and Release must be safe for concurrent use; the
// count they maintain is provider state, external to the Go runtime.
type ReferenceManager interface {
	// Retain adds one reference to the object.
	Retain(h Handle)

	// Release removes one reference from the object. When the last
	// reference is released the provider may reclaim the object; the
	// handle must not be used afterward.
	Release(h Handle)
}

// Provider is the complete primitive operation set.
//
// All calls are synchronous and may block: operations on objects guarded
// by an access control policy can suspend the calling goroutine until the
// platform authentication prompt resolves.
type Provider interface {
	ReferenceManager

	// CreateObject creates a persistent object (keychain item or
	// keychain container, by class attribute) and returns an owned
	// handle. Fails with a duplicate status when an object with the
	// same primary key attributes already exists.
	CreateObject(attrs attr.Dictionary) (Handle, status.OSStatus)

	// CopyMatching returns owned handles for every stored object
	// matching the query, bounded by the query's match limit. A
	// one-bounded query with no match fails with a not-found status; an
	// unbounded query with no match succeeds with no handles.
	CopyMatching(query attr.Dictionary) ([]Handle, status.OSStatus)

	// DeleteMatching removes every stored object matching the query and
	// reports how many were removed. Zero is a successful outcome.
	DeleteMatching(query attr.Dictionary) (int, status.OSStatus)

	// GenerateKeyPair generates an asymmetric key pair described by the
	// attributes and returns owned handles for the public and private
	// halves.
	GenerateKeyPair(attrs attr.Dictionary) (pub, priv Handle, st status.OSStatus)

	// ImportKey constructs a key object from external key material.
	ImportKey(data []byte, attrs attr.Dictionary) (Handle, status.OSStatus)

	// ExportKey returns the external representation of a key, or a
	// missing-entitlement status when the key is not extractable.
	ExportKey(key Handle) ([]byte, status.OSStatus)

	// CreateSignature signs data with the private key, subject to the
	// key's access control policy.
	CreateSignature(key Handle, alg types.Algorithm, data []byte) ([]byte, status.OSStatus)

	// VerifySignature verifies a signature with the public key. An
	// invalid signature is reported as (false, Success), not an error.
	VerifySignature(key Handle, alg types.Algorithm, data, sig []byte) (bool, status.OSStatus)

	// Encrypt encrypts plaintext with the public key.
	Encrypt(key Handle, alg types.Algorithm, plaintext []byte) ([]byte, status.OSStatus)

	// Decrypt decrypts ciphertext with the private key, subject to the
	// key's access control policy.
	Decrypt(key Handle, alg types.Algorithm, ciphertext []byte) ([]byte, status.OSStatus)

	// CopyAttributes returns a point-in-time attribute snapshot of the
	// object.
	CopyAttributes(object Handle) (attr.Dictionary, status.OSStatus)

	// DestroyObject removes the object from persistent storage. The
	// caller still owns its handle reference and must Release it
	// separately.
	DestroyObject(object Handle) status.OSStatus
}
