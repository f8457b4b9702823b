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

package mocks

import (
	"sync"

	"github.com/jeremyhahn/go-keychain-services/pkg/attr"
	"github.com/jeremyhahn/go-keychain-services/pkg/provider"
	"github.com/jeremyhahn/go-keychain-services/pkg/status"
	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

// MockProvider is a mock implementation of provider.Provider for testing.
// Primitives without a configured Func fail with an unimplemented status.
type MockProvider struct {
	mu sync.Mutex

	// Configurable behavior
	CreateObjectFunc    func(attr.Dictionary) (provider.Handle, status.OSStatus)
	CopyMatchingFunc    func(attr.Dictionary) ([]provider.Handle, status.OSStatus)
	DeleteMatchingFunc  func(attr.Dictionary) (int, status.OSStatus)
	GenerateKeyPairFunc func(attr.Dictionary) (provider.Handle, provider.Handle, status.OSStatus)
	ImportKeyFunc       func([]byte, attr.Dictionary) (provider.Handle, status.OSStatus)
	ExportKeyFunc       func(provider.Handle) ([]byte, status.OSStatus)
	CreateSignatureFunc func(provider.Handle, types.Algorithm, []byte) ([]byte, status.OSStatus)
	VerifySignatureFunc func(provider.Handle, types.Algorithm, []byte, []byte) (bool, status.OSStatus)
	EncryptFunc         func(provider.Handle, types.Algorithm, []byte) ([]byte, status.OSStatus)
	DecryptFunc         func(provider.Handle, types.Algorithm, []byte) ([]byte, status.OSStatus)
	CopyAttributesFunc  func(provider.Handle) (attr.Dictionary, status.OSStatus)
	DestroyObjectFunc   func(provider.Handle) status.OSStatus

	// Call tracking
	CreateObjectCalls    []attr.Dictionary
	CopyMatchingCalls    []attr.Dictionary
	DeleteMatchingCalls  []attr.Dictionary
	GenerateKeyPairCalls []attr.Dictionary
	ImportKeyCalls       []attr.Dictionary
	ExportKeyCalls       []provider.Handle
	CreateSignatureCalls []provider.Handle
	VerifySignatureCalls []provider.Handle
	EncryptCalls         []provider.Handle
	DecryptCalls         []provider.Handle
	CopyAttributesCalls  []provider.Handle
	DestroyObjectCalls   []provider.Handle
	RetainCalls          []provider.Handle
	ReleaseCalls         []provider.Handle
}

// NewMockProvider creates a new MockProvider with default behavior.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Retain records the call.
func (m *MockProvider) Retain(h provider.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RetainCalls = append(m.RetainCalls, h)
}

// Release records the call.
func (m *MockProvider) Release(h provider.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReleaseCalls = append(m.ReleaseCalls, h)
}

// CreateObject creates a persistent object.
func (m *MockProvider) CreateObject(attrs attr.Dictionary) (provider.Handle, status.OSStatus) {
	m.mu.Lock()
	m.CreateObjectCalls = append(m.CreateObjectCalls, attrs)
	fn := m.CreateObjectFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(attrs)
	}
	return provider.NilHandle, status.ErrSecUnimplemented
}

// CopyMatching returns handles matching the query.
func (m *MockProvider) CopyMatching(query attr.Dictionary) ([]provider.Handle, status.OSStatus) {
	m.mu.Lock()
	m.CopyMatchingCalls = append(m.CopyMatchingCalls, query)
	fn := m.CopyMatchingFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(query)
	}
	return nil, status.ErrSecUnimplemented
}

// DeleteMatching removes objects matching the query.
func (m *MockProvider) DeleteMatching(query attr.Dictionary) (int, status.OSStatus) {
	m.mu.Lock()
	m.DeleteMatchingCalls = append(m.DeleteMatchingCalls, query)
	fn := m.DeleteMatchingFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(query)
	}
	return 0, status.ErrSecUnimplemented
}

// GenerateKeyPair generates an asymmetric key pair.
func (m *MockProvider) GenerateKeyPair(attrs attr.Dictionary) (provider.Handle, provider.Handle, status.OSStatus) {
	m.mu.Lock()
	m.GenerateKeyPairCalls = append(m.GenerateKeyPairCalls, attrs)
	fn := m.GenerateKeyPairFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(attrs)
	}
	return provider.NilHandle, provider.NilHandle, status.ErrSecUnimplemented
}

// ImportKey constructs a key object from external material.
func (m *MockProvider) ImportKey(data []byte, attrs attr.Dictionary) (provider.Handle, status.OSStatus) {
	m.mu.Lock()
	m.ImportKeyCalls = append(m.ImportKeyCalls, attrs)
	fn := m.ImportKeyFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(data, attrs)
	}
	return provider.NilHandle, status.ErrSecUnimplemented
}

// ExportKey returns a key's external representation.
func (m *MockProvider) ExportKey(key provider.Handle) ([]byte, status.OSStatus) {
	m.mu.Lock()
	m.ExportKeyCalls = append(m.ExportKeyCalls, key)
	fn := m.ExportKeyFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(key)
	}
	return nil, status.ErrSecUnimplemented
}

// CreateSignature signs data with a private key.
func (m *MockProvider) CreateSignature(key provider.Handle, alg types.Algorithm, data []byte) ([]byte, status.OSStatus) {
	m.mu.Lock()
	m.CreateSignatureCalls = append(m.CreateSignatureCalls, key)
	fn := m.CreateSignatureFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(key, alg, data)
	}
	return nil, status.ErrSecUnimplemented
}

// VerifySignature verifies a signature with a public key.
func (m *MockProvider) VerifySignature(key provider.Handle, alg types.Algorithm, data, sig []byte) (bool, status.OSStatus) {
	m.mu.Lock()
	m.VerifySignatureCalls = append(m.VerifySignatureCalls, key)
	fn := m.VerifySignatureFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(key, alg, data, sig)
	}
	return false, status.ErrSecUnimplemented
}

// Encrypt encrypts plaintext with a public key.
func (m *MockProvider) Encrypt(key provider.Handle, alg types.Algorithm, plaintext []byte) ([]byte, status.OSStatus) {
	m.mu.Lock()
	m.EncryptCalls = append(m.EncryptCalls, key)
	fn := m.EncryptFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(key, alg, plaintext)
	}
	return nil, status.ErrSecUnimplemented
}

// Decrypt decrypts ciphertext with a private key.
func (m *MockProvider) Decrypt(key provider.Handle, alg types.Algorithm, ciphertext []byte) ([]byte, status.OSStatus) {
	m.mu.Lock()
	m.DecryptCalls = append(m.DecryptCalls, key)
	fn := m.DecryptFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(key, alg, ciphertext)
	}
	return nil, status.ErrSecUnimplemented
}

// CopyAttributes returns an object's attribute snapshot.
func (m *MockProvider) CopyAttributes(object provider.Handle) (attr.Dictionary, status.OSStatus) {
	m.mu.Lock()
	m.CopyAttributesCalls = append(m.CopyAttributesCalls, object)
	fn := m.CopyAttributesFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(object)
	}
	return attr.Dictionary{}, status.ErrSecUnimplemented
}

// DestroyObject removes an object from persistent storage.
func (m *MockProvider) DestroyObject(object provider.Handle) status.OSStatus {
	m.mu.Lock()
	m.DestroyObjectCalls = append(m.DestroyObjectCalls, object)
	fn := m.DestroyObjectFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(object)
	}
	return status.ErrSecUnimplemented
}

// Reset clears all call tracking.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateObjectCalls = nil
	m.CopyMatchingCalls = nil
	m.DeleteMatchingCalls = nil
	m.GenerateKeyPairCalls = nil
	m.ImportKeyCalls = nil
	m.ExportKeyCalls = nil
	m.CreateSignatureCalls = nil
	m.VerifySignatureCalls = nil
	m.EncryptCalls = nil
	m.DecryptCalls = nil
	m.CopyAttributesCalls = nil
	m.DestroyObjectCalls = nil
	m.RetainCalls = nil
	m.ReleaseCalls = nil
}

// Verify interface compliance
var _ provider.Provider = (*MockProvider)(nil)
