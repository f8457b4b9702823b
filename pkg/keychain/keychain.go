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

package keychain

import (
	"github.com/jeremyhahn/go-keychain-services/pkg/attr"
	"github.com/jeremyhahn/go-keychain-services/pkg/ref"
	"github.com/jeremyhahn/go-keychain-services/pkg/status"
	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

// Keychain is an owned reference to a keychain container. A nil *Keychain
// passed to item and key operations means the default keychain.
type Keychain struct {
	ref  *ref.Ref[ref.Keychain]
	path string
}

// Path returns the keychain's location.
func (k *Keychain) Path() string {
	return k.path
}

// Release surrenders the reference. The keychain itself stays in the
// store; use DeleteKeychain to remove it.
func (k *Keychain) Release() error {
	return k.ref.Release()
}

// CreateKeychain creates a keychain at the given path, protected by the
// password. The password is consumed by the provider at creation and is
// not retrievable afterward. Fails with a DuplicateItem kind when a
// keychain already exists at the path.
func (s *Service) CreateKeychain(path string, password types.Password) (*Keychain, error) {
	s.log.Debug("creating keychain", "path", path)

	b := attr.NewBuilder().
		SetClass(types.ClassKeychain).
		SetPath(path)
	if password != nil {
		b.SetValueData(password.Bytes())
	}

	h, st := s.p.CreateObject(b.Build())
	if err := status.Translate(st, "create keychain"); err != nil {
		return nil, err
	}
	return &Keychain{ref: ref.Wrap[ref.Keychain](s.p, h), path: path}, nil
}

// DefaultKeychain returns a reference to the provider's default keychain.
func (s *Service) DefaultKeychain() (*Keychain, error) {
	query := attr.NewBuilder().
		SetClass(types.ClassKeychain).
		Build()

	handles, st := s.p.CopyMatching(query)
	if err := status.Translate(st, "find default keychain"); err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, status.Translate(status.ErrSecItemNotFound, "find default keychain")
	}

	attrs, st := s.p.CopyAttributes(handles[0])
	if err := status.Translate(st, "find default keychain"); err != nil {
		s.p.Release(handles[0])
		return nil, err
	}
	path, _ := attrs.GetString(attr.KeyPath)
	return &Keychain{ref: ref.Wrap[ref.Keychain](s.p, handles[0]), path: path}, nil
}

// OpenKeychain returns a reference to the keychain at the given path.
func (s *Service) OpenKeychain(path string) (*Keychain, error) {
	query := attr.NewBuilder().
		SetClass(types.ClassKeychain).
		SetPath(path).
		Build()

	handles, st := s.p.CopyMatching(query)
	if err := status.Translate(st, "open keychain"); err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, status.Translate(status.ErrSecItemNotFound, "open keychain")
	}
	return &Keychain{ref: ref.Wrap[ref.Keychain](s.p, handles[0]), path: path}, nil
}

// DeleteKeychain removes the keychain and everything stored in it, then
// consumes the reference. The reference is released even when the
// removal fails.
func (s *Service) DeleteKeychain(k *Keychain) error {
	s.log.Debug("deleting keychain", "path", k.path)

	h, err := k.ref.Handle()
	if err != nil {
		return err
	}
	st := s.p.DestroyObject(h)
	if relErr := k.ref.Release(); relErr != nil {
		return relErr
	}
	return status.Translate(st, "delete keychain")
}

// Scope returns a copy of the query bound to this keychain. Item and key
// queries without a keychain scope search the default keychain only.
func (k *Keychain) Scope(query attr.Dictionary) (attr.Dictionary, error) {
	b := query.Builder()
	if err := scope(b, k); err != nil {
		return attr.Dictionary{}, err
	}
	return b.Build(), nil
}

// scope adds the keychain scope to a builder. A nil keychain leaves the
// scope attribute unset, selecting the default keychain.
func scope(b *attr.Builder, k *Keychain) error {
	if k == nil {
		return nil
	}
	h, err := k.ref.Handle()
	if err != nil {
		return err
	}
	b.SetUseKeychain(uint64(h))
	return nil
}
