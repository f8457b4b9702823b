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
	"github.com/jeremyhahn/go-keychain-services/pkg/status"
	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

// Signature is a signature tagged with the algorithm that produced it.
type Signature struct {
	alg   types.Algorithm
	bytes []byte
}

// NewSignature constructs a signature value, for verifying signatures
// produced elsewhere.
func NewSignature(alg types.Algorithm, sig []byte) *Signature {
	return &Signature{alg: alg, bytes: append([]byte(nil), sig...)}
}

// Algorithm returns the signature algorithm.
func (s *Signature) Algorithm() types.Algorithm {
	return s.alg
}

// Bytes returns a copy of the signature bytes.
func (s *Signature) Bytes() []byte {
	return append([]byte(nil), s.bytes...)
}

// Ciphertext is encrypted data tagged with the algorithm that produced
// it.
type Ciphertext struct {
	alg   types.Algorithm
	bytes []byte
}

// NewCiphertext constructs a ciphertext value, for decrypting data
// encrypted elsewhere.
func NewCiphertext(alg types.Algorithm, data []byte) *Ciphertext {
	return &Ciphertext{alg: alg, bytes: append([]byte(nil), data...)}
}

// Algorithm returns the encryption algorithm.
func (c *Ciphertext) Algorithm() types.Algorithm {
	return c.alg
}

// Bytes returns a copy of the ciphertext bytes.
func (c *Ciphertext) Bytes() []byte {
	return append([]byte(nil), c.bytes...)
}

// Sign signs data with a private key. For message algorithms the
// provider hashes the data internally; the digest algorithm expects a
// precomputed digest. A key guarded by an access control policy may
// block on the authentication prompt; denial fails with an
// AuthenticationFailed kind and cancellation with UserCanceled.
func (s *Service) Sign(k *Key, alg types.Algorithm, data []byte) (*Signature, error) {
	if !alg.Signing() {
		return nil, status.Translate(status.ErrSecParam, "sign")
	}
	h, err := k.ref.Handle()
	if err != nil {
		return nil, err
	}

	sig, st := s.p.CreateSignature(h, alg, data)
	if err := status.Translate(st, "sign"); err != nil {
		return nil, err
	}
	return &Signature{alg: alg, bytes: sig}, nil
}

// Verify verifies a signature with a public key. An invalid signature is
// reported as (false, nil); errors are reserved for failures of the
// operation itself.
func (s *Service) Verify(k *Key, data []byte, sig *Signature) (bool, error) {
	h, err := k.ref.Handle()
	if err != nil {
		return false, err
	}

	ok, st := s.p.VerifySignature(h, sig.alg, data, sig.bytes)
	if err := status.Translate(st, "verify"); err != nil {
		return false, err
	}
	return ok, nil
}

// Encrypt encrypts plaintext with a public key.
func (s *Service) Encrypt(k *Key, alg types.Algorithm, plaintext []byte) (*Ciphertext, error) {
	if !alg.Encryption() {
		return nil, status.Translate(status.ErrSecParam, "encrypt")
	}
	h, err := k.ref.Handle()
	if err != nil {
		return nil, err
	}

	data, st := s.p.Encrypt(h, alg, plaintext)
	if err := status.Translate(st, "encrypt"); err != nil {
		return nil, err
	}
	return &Ciphertext{alg: alg, bytes: data}, nil
}

// Decrypt decrypts a ciphertext with a private key, using the algorithm
// the ciphertext is tagged with. A key guarded by an access control
// policy may block on the authentication prompt, as with Sign.
func (s *Service) Decrypt(k *Key, ct *Ciphertext) ([]byte, error) {
	h, err := k.ref.Handle()
	if err != nil {
		return nil, err
	}

	data, st := s.p.Decrypt(h, ct.alg, ct.bytes)
	if err := status.Translate(st, "decrypt"); err != nil {
		return nil, err
	}
	return data, nil
}
