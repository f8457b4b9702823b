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

// Package password provides secure in-memory password values.
//
// A ClearPassword holds cleartext in memory and supports zeroing once the
// value is no longer needed. Keychain and item passwords flow through this
// package so secret bytes have a single, clearable home.
package password

import (
	"crypto/subtle"
	"errors"

	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

var (
	// ErrEmptyPassword is returned when an empty password is provided.
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrPasswordCleared is returned when the password has been zeroed.
	ErrPasswordCleared = errors.New("password has been cleared")
)

// ClearPassword stores a password in memory as cleartext, zeroed on Clear.
type ClearPassword struct {
	password []byte
}

// NewClearPassword copies the given bytes into a new password value.
func NewClearPassword(password []byte) (types.Password, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	p := make([]byte, len(password))
	copy(p, password)
	return &ClearPassword{password: p}, nil
}

// NewClearPasswordFromString creates a password value from a string.
func NewClearPasswordFromString(password string) (types.Password, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	return &ClearPassword{password: []byte(password)}, nil
}

// String returns the password as a string. Prefer Bytes; a string copy
// cannot be zeroed.
func (p *ClearPassword) String() (string, error) {
	if p.password == nil {
		return "", ErrPasswordCleared
	}
	return string(p.password), nil
}

// Bytes returns a copy of the password bytes, or nil after Clear.
func (p *ClearPassword) Bytes() []byte {
	if p.password == nil {
		return nil
	}
	out := make([]byte, len(p.password))
	copy(out, p.password)
	return out
}

// Clear zeroes the password in memory. Irreversible.
func (p *ClearPassword) Clear() {
	if p.password == nil {
		return
	}
	for i := range p.password {
		p.password[i] = 0
	}
	// Keep the zeroing from being optimized away.
	subtle.ConstantTimeCopy(1, p.password, make([]byte, len(p.password)))
	p.password = nil
}

// Equal compares two passwords in constant time.
func Equal(a, b types.Password) (bool, error) {
	aBytes := a.Bytes()
	if aBytes == nil {
		return false, ErrPasswordCleared
	}
	defer zero(aBytes)

	bBytes := b.Bytes()
	if bBytes == nil {
		return false, ErrPasswordCleared
	}
	defer zero(bBytes)

	return subtle.ConstantTimeCompare(aBytes, bBytes) == 1, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Verify interface compliance at compile time
var _ types.Password = (*ClearPassword)(nil)
