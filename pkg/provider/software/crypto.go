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

package software

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"

	"github.com/jeremyhahn/go-keychain-services/pkg/provider"
	"github.com/jeremyhahn/go-keychain-services/pkg/status"
	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

// keyForOperation looks up a key object, checks it against the algorithm
// and the wanted key class, and runs the access control gate for private
// key operations. Caller holds the lock.
func (p *SoftwareProvider) keyForOperation(h provider.Handle, alg types.Algorithm, class types.KeyClass, operation string) (*object, status.OSStatus) {
	o, ok := p.objects[h]
	if !ok {
		return nil, status.ErrSecInvalidItemRef
	}
	if o.class != types.ClassKey {
		return nil, status.ErrSecParam
	}
	keyType, _ := o.attrs.KeyType()
	if keyType != alg.KeyType() {
		return nil, status.ErrSecParam
	}
	if class == types.KeyClassPrivate && o.priv == nil {
		return nil, status.ErrSecParam
	}

	if class == types.KeyClassPrivate {
		if policy, ok := o.attrs.AccessControl(); ok && policy.RequiresAuthentication() {
			switch p.authenticate(policy, operation) {
			case Allow:
			case Cancel:
				return nil, status.ErrSecUserCanceled
			default:
				return nil, status.ErrSecAuthFailed
			}
		}
	}
	return o, status.Success
}

// CreateSignature signs data with a private key. Message algorithms hash
// the input internally; the digest algorithm requires a 32-byte SHA-256
// digest as input.
func (p *SoftwareProvider) CreateSignature(key provider.Handle, alg types.Algorithm, data []byte) ([]byte, status.OSStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !alg.Signing() {
		return nil, status.ErrSecParam
	}
	o, st := p.keyForOperation(key, alg, types.KeyClassPrivate, "sign")
	if st != status.Success {
		return nil, st
	}

	digest, st := signingDigest(alg, data)
	if st != status.Success {
		return nil, st
	}

	switch k := o.priv.(type) {
	case *ecdsa.PrivateKey:
		sig, err := ecdsa.SignASN1(rand.Reader, k, digest)
		if err != nil {
			return nil, status.ErrSecParam
		}
		return sig, status.Success
	case *rsa.PrivateKey:
		sig, err := rsa.SignPKCS1v15(rand.Reader, k, crypto.SHA256, digest)
		if err != nil {
			return nil, status.ErrSecParam
		}
		return sig, status.Success
	}
	return nil, status.ErrSecParam
}

// VerifySignature verifies a signature with a public key. A well-formed
// call with an invalid signature reports false without error.
func (p *SoftwareProvider) VerifySignature(key provider.Handle, alg types.Algorithm, data, sig []byte) (bool, status.OSStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !alg.Signing() {
		return false, status.ErrSecParam
	}
	o, st := p.keyForOperation(key, alg, types.KeyClassPublic, "verify")
	if st != status.Success {
		return false, st
	}

	digest, st := signingDigest(alg, data)
	if st != status.Success {
		return false, st
	}

	switch k := o.pub.(type) {
	case *ecdsa.PublicKey:
		return ecdsa.VerifyASN1(k, digest, sig), status.Success
	case *rsa.PublicKey:
		return rsa.VerifyPKCS1v15(k, crypto.SHA256, digest, sig) == nil, status.Success
	}
	return false, status.ErrSecParam
}

func signingDigest(alg types.Algorithm, data []byte) ([]byte, status.OSStatus) {
	if alg.DigestInput() {
		if len(data) != sha256.Size {
			return nil, status.ErrSecParam
		}
		return data, status.Success
	}
	sum := sha256.Sum256(data)
	return sum[:], status.Success
}

// Encrypt encrypts plaintext with a public key. ECIES is not implemented
// by the software provider.
func (p *SoftwareProvider) Encrypt(key provider.Handle, alg types.Algorithm, plaintext []byte) ([]byte, status.OSStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !alg.Encryption() {
		return nil, status.ErrSecParam
	}
	if alg == types.AlgorithmECIESEncryptionStandardX963SHA256AESGCM {
		return nil, status.ErrSecUnimplemented
	}
	o, st := p.keyForOperation(key, alg, types.KeyClassPublic, "encrypt")
	if st != status.Success {
		return nil, st
	}

	pub, ok := o.pub.(*rsa.PublicKey)
	if !ok {
		return nil, status.ErrSecParam
	}
	out, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
	if err != nil {
		return nil, status.ErrSecParam
	}
	return out, status.Success
}

// Decrypt decrypts ciphertext with a private key. A ciphertext that does
// not decrypt under the key fails with a decode status.
func (p *SoftwareProvider) Decrypt(key provider.Handle, alg types.Algorithm, ciphertext []byte) ([]byte, status.OSStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !alg.Encryption() {
		return nil, status.ErrSecParam
	}
	if alg == types.AlgorithmECIESEncryptionStandardX963SHA256AESGCM {
		return nil, status.ErrSecUnimplemented
	}
	o, st := p.keyForOperation(key, alg, types.KeyClassPrivate, "decrypt")
	if st != status.Success {
		return nil, st
	}

	priv, ok := o.priv.(*rsa.PrivateKey)
	if !ok {
		return nil, status.ErrSecParam
	}
	out, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ciphertext, nil)
	if err != nil {
		return nil, status.ErrSecDecode
	}
	return out, status.Success
}
