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
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"math/big"

	"github.com/jeremyhahn/go-keychain-services/pkg/attr"
	"github.com/jeremyhahn/go-keychain-services/pkg/provider"
	"github.com/jeremyhahn/go-keychain-services/pkg/status"
	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

// curveForSize maps an EC key size in bits to its NIST prime curve.
func curveForSize(bits int) (elliptic.Curve, bool) {
	switch bits {
	case 256:
		return elliptic.P256(), true
	case 384:
		return elliptic.P384(), true
	case 521:
		return elliptic.P521(), true
	}
	return nil, false
}

// scalarBytes is the byte width of coordinates and scalars on the curve.
func scalarBytes(curve elliptic.Curve) int {
	return (curve.Params().BitSize + 7) / 8
}

// GenerateKeyPair generates an asymmetric key pair. Secure-element keys
// (token designation) are restricted to 256-bit EC, matching the hardware.
func (p *SoftwareProvider) GenerateKeyPair(attrs attr.Dictionary) (provider.Handle, provider.Handle, status.OSStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	keyType, ok := attrs.KeyType()
	if !ok {
		return provider.NilHandle, provider.NilHandle, status.ErrSecParam
	}
	bits, ok := attrs.KeySizeInBits()
	if !ok || bits <= 0 {
		return provider.NilHandle, provider.NilHandle, status.ErrSecParam
	}
	if _, inToken := attrs.TokenID(); inToken {
		if keyType != types.KeyTypeECSECPrimeRandom || bits != 256 {
			return provider.NilHandle, provider.NilHandle, status.ErrSecParam
		}
	}

	chain, st := p.resolveKeychain(attrs)
	if st != status.Success {
		return provider.NilHandle, provider.NilHandle, st
	}

	var priv *keyMaterial
	switch keyType {
	case types.KeyTypeECSECPrimeRandom:
		curve, ok := curveForSize(bits)
		if !ok {
			return provider.NilHandle, provider.NilHandle, status.ErrSecKeySizeNotAllowed
		}
		key, err := ecdsa.GenerateKey(curve, rand.Reader)
		if err != nil {
			return provider.NilHandle, provider.NilHandle, status.ErrSecParam
		}
		priv = &keyMaterial{keyType: keyType, bits: bits, ecdsa: key}
	case types.KeyTypeRSA:
		switch bits {
		case 2048, 3072, 4096:
		default:
			return provider.NilHandle, provider.NilHandle, status.ErrSecKeySizeNotAllowed
		}
		key, err := rsa.GenerateKey(rand.Reader, bits)
		if err != nil {
			return provider.NilHandle, provider.NilHandle, status.ErrSecParam
		}
		priv = &keyMaterial{keyType: keyType, bits: bits, rsa: key}
	default:
		return provider.NilHandle, provider.NilHandle, status.ErrSecParam
	}

	return p.storeKeyPair(priv, attrs, chain)
}

// storeKeyPair inserts the two halves of a key pair into the object
// table. Caller holds the lock.
func (p *SoftwareProvider) storeKeyPair(km *keyMaterial, attrs attr.Dictionary, chain provider.Handle) (provider.Handle, provider.Handle, status.OSStatus) {
	fingerprint := km.fingerprint()
	permanent, _ := attrs.GetBool(attr.KeyIsPermanent)

	pubHandle := p.insert(&object{
		class:    types.ClassKey,
		attrs:    keySnapshot(attrs, km, types.KeyClassPublic, fingerprint),
		keychain: chain,
		stored:   permanent,
		refs:     1,
		pub:      km.public(),
	})
	privHandle := p.insert(&object{
		class:    types.ClassKey,
		attrs:    keySnapshot(attrs, km, types.KeyClassPrivate, fingerprint),
		keychain: chain,
		stored:   permanent,
		refs:     1,
		priv:     km.private(),
		pub:      km.public(),
	})
	return pubHandle, privHandle, status.Success
}

// keySnapshot derives the attribute snapshot of one key pair half. The
// access control policy guards private key operations, so only the
// private half carries it.
func keySnapshot(attrs attr.Dictionary, km *keyMaterial, class types.KeyClass, fingerprint []byte) attr.Dictionary {
	b := attrs.Without(attr.KeyUseKeychain, attr.KeyMatchLimit, attr.KeyValueData).Builder().
		SetClass(types.ClassKey).
		SetKeyClass(class).
		SetKeyType(km.keyType).
		SetKeySizeInBits(km.bits).
		SetApplicationLabel(fingerprint)
	if class == types.KeyClassPublic {
		d := b.Build()
		return d.Without(attr.KeyAccessControl, attr.KeyTokenID)
	}
	return b.Build()
}

// ImportKey constructs a key object from its external representation:
// X9.63 for EC keys (04 || X || Y for public, 04 || X || Y || K for
// private) and PKCS#1 DER for RSA keys.
func (p *SoftwareProvider) ImportKey(data []byte, attrs attr.Dictionary) (provider.Handle, status.OSStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	keyType, ok := attrs.KeyType()
	if !ok {
		return provider.NilHandle, status.ErrSecParam
	}
	keyClass, ok := attrs.KeyClassAttr()
	if !ok {
		return provider.NilHandle, status.ErrSecParam
	}
	if _, inToken := attrs.TokenID(); inToken {
		// External key material cannot be placed in the secure element.
		return provider.NilHandle, status.ErrSecParam
	}

	chain, st := p.resolveKeychain(attrs)
	if st != status.Success {
		return provider.NilHandle, st
	}

	km, st := parseKeyMaterial(data, keyType, keyClass)
	if st != status.Success {
		return provider.NilHandle, st
	}

	permanent, _ := attrs.GetBool(attr.KeyIsPermanent)
	o := &object{
		class:    types.ClassKey,
		attrs:    keySnapshot(attrs, km, keyClass, km.fingerprint()),
		keychain: chain,
		stored:   permanent,
		refs:     1,
		pub:      km.public(),
	}
	if keyClass == types.KeyClassPrivate {
		o.priv = km.private()
	}
	return p.insert(o), status.Success
}

func parseKeyMaterial(data []byte, keyType types.KeyType, keyClass types.KeyClass) (*keyMaterial, status.OSStatus) {
	switch keyType {
	case types.KeyTypeECSECPrimeRandom:
		return parseECMaterial(data, keyClass)
	case types.KeyTypeRSA:
		return parseRSAMaterial(data, keyClass)
	default:
		return nil, status.ErrSecParam
	}
}

func parseECMaterial(data []byte, keyClass types.KeyClass) (*keyMaterial, status.OSStatus) {
	for _, bits := range []int{256, 384, 521} {
		curve, _ := curveForSize(bits)
		n := scalarBytes(curve)

		var want int
		switch keyClass {
		case types.KeyClassPublic:
			want = 1 + 2*n
		case types.KeyClassPrivate:
			want = 1 + 3*n
		default:
			return nil, status.ErrSecParam
		}
		if len(data) != want || data[0] != 0x04 {
			continue
		}

		x := new(big.Int).SetBytes(data[1 : 1+n])
		y := new(big.Int).SetBytes(data[1+n : 1+2*n])
		if !curve.IsOnCurve(x, y) {
			return nil, status.ErrSecParam
		}
		pub := ecdsa.PublicKey{Curve: curve, X: x, Y: y}
		km := &keyMaterial{keyType: types.KeyTypeECSECPrimeRandom, bits: bits}
		if keyClass == types.KeyClassPublic {
			km.ecdsaPub = &pub
			return km, status.Success
		}

		d := new(big.Int).SetBytes(data[1+2*n:])
		if d.Sign() == 0 || d.Cmp(curve.Params().N) >= 0 {
			return nil, status.ErrSecParam
		}
		km.ecdsa = &ecdsa.PrivateKey{PublicKey: pub, D: d}
		return km, status.Success
	}
	return nil, status.ErrSecParam
}

func parseRSAMaterial(data []byte, keyClass types.KeyClass) (*keyMaterial, status.OSStatus) {
	switch keyClass {
	case types.KeyClassPrivate:
		key, err := x509.ParsePKCS1PrivateKey(data)
		if err != nil {
			return nil, status.ErrSecParam
		}
		return &keyMaterial{keyType: types.KeyTypeRSA, bits: key.N.BitLen(), rsa: key}, status.Success
	case types.KeyClassPublic:
		key, err := x509.ParsePKCS1PublicKey(data)
		if err != nil {
			return nil, status.ErrSecParam
		}
		return &keyMaterial{keyType: types.KeyTypeRSA, bits: key.N.BitLen(), rsaPub: key}, status.Success
	default:
		return nil, status.ErrSecParam
	}
}

// ExportKey returns the external representation of a key. Keys resident
// in the secure element, or guarded by a hardware-backed access control
// policy, are never exported.
func (p *SoftwareProvider) ExportKey(h provider.Handle) ([]byte, status.OSStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.objects[h]
	if !ok {
		return nil, status.ErrSecInvalidItemRef
	}
	if o.class != types.ClassKey {
		return nil, status.ErrSecParam
	}
	if _, inToken := o.attrs.TokenID(); inToken {
		return nil, status.ErrSecMissingEntitlement
	}
	if policy, ok := o.attrs.AccessControl(); ok && policy.HardwareBacked() {
		return nil, status.ErrSecMissingEntitlement
	}

	switch key := o.priv.(type) {
	case *ecdsa.PrivateKey:
		n := scalarBytes(key.Curve)
		out := marshalPoint(key.Curve, key.X, key.Y)
		k := make([]byte, n)
		key.D.FillBytes(k)
		return append(out, k...), status.Success
	case *rsa.PrivateKey:
		return x509.MarshalPKCS1PrivateKey(key), status.Success
	}

	switch key := o.pub.(type) {
	case *ecdsa.PublicKey:
		return marshalPoint(key.Curve, key.X, key.Y), status.Success
	case *rsa.PublicKey:
		return x509.MarshalPKCS1PublicKey(key), status.Success
	}
	return nil, status.ErrSecParam
}

// marshalPoint encodes an uncompressed curve point with fixed-width
// coordinates: 04 || X || Y.
func marshalPoint(curve elliptic.Curve, x, y *big.Int) []byte {
	n := scalarBytes(curve)
	out := make([]byte, 1+2*n)
	out[0] = 0x04
	x.FillBytes(out[1 : 1+n])
	y.FillBytes(out[1+n:])
	return out
}

// keyMaterial bundles one key pair half with its declared type and size.
type keyMaterial struct {
	keyType  types.KeyType
	bits     int
	ecdsa    *ecdsa.PrivateKey
	ecdsaPub *ecdsa.PublicKey
	rsa      *rsa.PrivateKey
	rsaPub   *rsa.PublicKey
}

func (km *keyMaterial) public() crypto.PublicKey {
	switch {
	case km.ecdsa != nil:
		return &km.ecdsa.PublicKey
	case km.ecdsaPub != nil:
		return km.ecdsaPub
	case km.rsa != nil:
		return &km.rsa.PublicKey
	default:
		return km.rsaPub
	}
}

func (km *keyMaterial) private() crypto.PrivateKey {
	switch {
	case km.ecdsa != nil:
		return km.ecdsa
	case km.rsa != nil:
		return km.rsa
	default:
		return nil
	}
}

// fingerprint is the hash of the public key's external representation,
// shared by both halves of a pair as their application label.
func (km *keyMaterial) fingerprint() []byte {
	var encoded []byte
	switch pub := km.public().(type) {
	case *ecdsa.PublicKey:
		encoded = marshalPoint(pub.Curve, pub.X, pub.Y)
	case *rsa.PublicKey:
		encoded = x509.MarshalPKCS1PublicKey(pub)
	}
	sum := sha256.Sum256(encoded)
	return sum[:]
}
