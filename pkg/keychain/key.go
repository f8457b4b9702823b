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
	"github.com/jeremyhahn/go-keychain-services/pkg/access"
	"github.com/jeremyhahn/go-keychain-services/pkg/attr"
	"github.com/jeremyhahn/go-keychain-services/pkg/provider"
	"github.com/jeremyhahn/go-keychain-services/pkg/ref"
	"github.com/jeremyhahn/go-keychain-services/pkg/status"
	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

// Key is an owned reference to a cryptographic key, together with the
// attribute snapshot taken when the reference was obtained. The snapshot
// is advisory; KeyAttributes refetches the current state.
type Key struct {
	ref   *ref.Ref[ref.Key]
	attrs attr.Dictionary
}

// Attributes returns the snapshot taken when the reference was obtained.
func (k *Key) Attributes() attr.Dictionary {
	return k.attrs
}

// KeyClass returns the key's class from the snapshot.
func (k *Key) KeyClass() types.KeyClass {
	kc, _ := k.attrs.KeyClassAttr()
	return kc
}

// ApplicationLabel returns the public key fingerprint both halves of a
// pair share.
func (k *Key) ApplicationLabel() []byte {
	label, _ := k.attrs.GetBytes(attr.KeyApplicationLabel)
	return label
}

// Release surrenders the reference. Permanent keys stay in the store;
// use DeleteKey to remove them.
func (k *Key) Release() error {
	return k.ref.Release()
}

// KeyPair holds the two halves of a generated key pair. Each half is an
// independent reference released separately.
type KeyPair struct {
	PublicKey  *Key
	PrivateKey *Key
}

// Release surrenders both references.
func (kp *KeyPair) Release() error {
	if err := kp.PublicKey.Release(); err != nil {
		return err
	}
	return kp.PrivateKey.Release()
}

// KeyPairParams describes a key pair to generate.
type KeyPairParams struct {
	// KeyType is the key algorithm family. Required.
	KeyType types.KeyType

	// SizeInBits is the key size. Required. The provider decides which
	// sizes it supports for each key type.
	SizeInBits int

	// Label is a human-readable name for the pair.
	Label string

	// Tag is an application-defined identifier used to find the keys
	// later.
	Tag []byte

	// Token designates an external cryptographic token (for example the
	// secure element) as the home of the private key.
	Token types.TokenID

	// Permanent stores the keys in the keychain. Transient keys vanish
	// when their references are released.
	Permanent bool

	// AccessControl guards private key operations. The policy is
	// evaluated by the provider each time the key is used, not at
	// generation time.
	AccessControl *access.Policy

	// Keychain selects where permanent keys are stored. Nil means the
	// default keychain.
	Keychain *Keychain
}

// dictionary validates the parameters and renders them as an attribute
// dictionary.
func (p KeyPairParams) dictionary() (attr.Dictionary, error) {
	if p.KeyType == "" || p.SizeInBits <= 0 {
		return attr.Dictionary{}, status.Translate(status.ErrSecParam, "key pair params")
	}

	b := attr.NewBuilder().
		SetClass(types.ClassKey).
		SetKeyType(p.KeyType).
		SetKeySizeInBits(p.SizeInBits)
	if p.Label != "" {
		b.SetLabel(p.Label)
	}
	if len(p.Tag) > 0 {
		b.SetApplicationTag(p.Tag)
	}
	if p.Token != "" {
		b.SetTokenID(p.Token)
	}
	if p.Permanent {
		b.SetPermanent(true)
	}
	if p.AccessControl != nil {
		b.SetAccessControl(*p.AccessControl)
	}
	if err := scope(b, p.Keychain); err != nil {
		return attr.Dictionary{}, err
	}
	return b.Build(), nil
}

// GenerateKeyPair generates an asymmetric key pair. Unsupported key types
// and sizes fail with an InvalidParameter kind.
func (s *Service) GenerateKeyPair(params KeyPairParams) (*KeyPair, error) {
	attrs, err := params.dictionary()
	if err != nil {
		return nil, err
	}
	s.log.Debug("generating key pair", "type", string(params.KeyType), "bits", params.SizeInBits)

	pubH, privH, st := s.p.GenerateKeyPair(attrs)
	if err := status.Translate(st, "generate key pair"); err != nil {
		return nil, err
	}

	pub, err := s.adoptKey(pubH)
	if err != nil {
		s.p.Release(privH)
		return nil, err
	}
	priv, err := s.adoptKey(privH)
	if err != nil {
		_ = pub.Release()
		return nil, err
	}
	return &KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// adoptKey takes ownership of a key handle returned by a provider create
// or copy primitive and attaches its attribute snapshot. The reference is
// released when the snapshot cannot be fetched.
func (s *Service) adoptKey(h provider.Handle) (*Key, error) {
	r := ref.Wrap[ref.Key](s.p, h)
	attrs, st := s.p.CopyAttributes(h)
	if err := status.Translate(st, "key attributes"); err != nil {
		_ = r.Release()
		return nil, err
	}
	return &Key{ref: r, attrs: attrs}, nil
}

// ImportKey constructs a key from its external representation: X9.63 for
// EC keys, PKCS#1 DER for RSA keys. The dictionary must carry the key
// type and key class; malformed material fails with an InvalidParameter
// kind.
func (s *Service) ImportKey(data []byte, attrs attr.Dictionary) (*Key, error) {
	h, st := s.p.ImportKey(data, attrs)
	if err := status.Translate(st, "import key"); err != nil {
		return nil, err
	}
	return s.adoptKey(h)
}

// ExportKey returns the key's external representation. Keys resident in a
// token, or guarded by a hardware-backed policy, fail with a
// MissingEntitlement kind and never yield partial material.
func (s *Service) ExportKey(k *Key) ([]byte, error) {
	h, err := k.ref.Handle()
	if err != nil {
		return nil, err
	}
	data, st := s.p.ExportKey(h)
	if err := status.Translate(st, "export key"); err != nil {
		return nil, err
	}
	return data, nil
}

// FindKey returns the single stored key matching the query, overriding
// any match limit in it. No match fails with an ItemNotFound kind.
func (s *Service) FindKey(query attr.Dictionary) (*Key, error) {
	one := query.Builder().
		SetClass(types.ClassKey).
		SetMatchLimit(types.MatchLimitOne).
		Build()

	handles, st := s.p.CopyMatching(one)
	if err := status.Translate(st, "find key"); err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, status.Translate(status.ErrSecItemNotFound, "find key")
	}
	return s.adoptKey(handles[0])
}

// FindKeys returns every stored key matching the query. No match is an
// empty slice, not an error.
func (s *Service) FindKeys(query attr.Dictionary) ([]*Key, error) {
	all := query.Builder().
		SetClass(types.ClassKey).
		SetMatchLimit(types.MatchLimitAll).
		Build()

	handles, st := s.p.CopyMatching(all)
	if err := status.Translate(st, "find keys"); err != nil {
		return nil, err
	}

	keys := make([]*Key, 0, len(handles))
	for _, h := range handles {
		k, err := s.adoptKey(h)
		if err != nil {
			for _, adopted := range keys {
				_ = adopted.Release()
			}
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// KeyAttributes refetches the key's current attribute snapshot from the
// provider.
func (s *Service) KeyAttributes(k *Key) (attr.Dictionary, error) {
	h, err := k.ref.Handle()
	if err != nil {
		return attr.Dictionary{}, err
	}
	attrs, st := s.p.CopyAttributes(h)
	if err := status.Translate(st, "key attributes"); err != nil {
		return attr.Dictionary{}, err
	}
	return attrs, nil
}

// DeleteKey removes the key from persistent storage and consumes the
// reference. The reference is released even when the removal fails.
func (s *Service) DeleteKey(k *Key) error {
	h, err := k.ref.Handle()
	if err != nil {
		return err
	}
	st := s.p.DestroyObject(h)
	if relErr := k.ref.Release(); relErr != nil {
		return relErr
	}
	return status.Translate(st, "delete key")
}
