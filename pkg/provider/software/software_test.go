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
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-keychain-services/pkg/access"
	"github.com/jeremyhahn/go-keychain-services/pkg/attr"
	"github.com/jeremyhahn/go-keychain-services/pkg/provider"
	"github.com/jeremyhahn/go-keychain-services/pkg/status"
	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

func genericPassword(service, account string, data []byte) attr.Dictionary {
	return attr.NewBuilder().
		SetClass(types.ClassGenericPassword).
		SetService(service).
		SetAccount(account).
		SetValueData(data).
		Build()
}

func keyPairAttrs(keyType types.KeyType, bits int) *attr.Builder {
	return attr.NewBuilder().
		SetClass(types.ClassKey).
		SetKeyType(keyType).
		SetKeySizeInBits(bits)
}

func TestNewCreatesDefaultKeychain(t *testing.T) {
	p := New()

	query := attr.NewBuilder().SetClass(types.ClassKeychain).Build()
	handles, st := p.CopyMatching(query)
	require.Equal(t, status.Success, st)
	require.Len(t, handles, 1)

	attrs, st := p.CopyAttributes(handles[0])
	require.Equal(t, status.Success, st)
	path, ok := attrs.GetString(attr.KeyPath)
	require.True(t, ok)
	assert.Equal(t, DefaultKeychainPath, path)

	p.Release(handles[0])
}

func TestCreateKeychainDuplicatePath(t *testing.T) {
	p := New()

	attrs := attr.NewBuilder().
		SetClass(types.ClassKeychain).
		SetPath("test.keychain").
		SetValueData([]byte("secret")).
		Build()

	h, st := p.CreateObject(attrs)
	require.Equal(t, status.Success, st)
	require.NotEqual(t, provider.NilHandle, h)

	// The password never appears in the stored attributes.
	stored, st := p.CopyAttributes(h)
	require.Equal(t, status.Success, st)
	assert.False(t, stored.Has(attr.KeyValueData))

	_, st = p.CreateObject(attrs)
	assert.Equal(t, status.ErrSecDuplicateKeychain, st)
}

func TestCreateItemDuplicatePrimaryKey(t *testing.T) {
	p := New()

	h, st := p.CreateObject(genericPassword("svc", "alice", []byte("pw")))
	require.Equal(t, status.Success, st)
	require.NotEqual(t, provider.NilHandle, h)

	_, st = p.CreateObject(genericPassword("svc", "alice", []byte("other")))
	assert.Equal(t, status.ErrSecDuplicateItem, st)

	// Different account, no conflict.
	_, st = p.CreateObject(genericPassword("svc", "bob", []byte("pw")))
	assert.Equal(t, status.Success, st)
}

func TestCreateItemSeparateKeychains(t *testing.T) {
	p := New()

	kc, st := p.CreateObject(attr.NewBuilder().
		SetClass(types.ClassKeychain).
		SetPath("other.keychain").
		Build())
	require.Equal(t, status.Success, st)

	_, st = p.CreateObject(genericPassword("svc", "alice", []byte("pw")))
	require.Equal(t, status.Success, st)

	// Same primary key in a different keychain is not a duplicate.
	scoped := genericPassword("svc", "alice", []byte("pw")).Builder().
		SetUseKeychain(uint64(kc)).
		Build()
	_, st = p.CreateObject(scoped)
	assert.Equal(t, status.Success, st)
}

func TestCreateItemMissingPrimaryAttributes(t *testing.T) {
	p := New()

	_, st := p.CreateObject(attr.NewBuilder().
		SetClass(types.ClassGenericPassword).
		SetAccount("alice").
		Build())
	assert.Equal(t, status.ErrSecParam, st)

	_, st = p.CreateObject(attr.NewBuilder().
		SetClass(types.ClassInternetPassword).
		SetServer("example.com").
		Build())
	assert.Equal(t, status.ErrSecParam, st)
}

func TestCopyMatchingLimits(t *testing.T) {
	p := New()

	for _, account := range []string{"alice", "bob", "carol"} {
		_, st := p.CreateObject(genericPassword("svc", account, []byte("pw")))
		require.Equal(t, status.Success, st)
	}

	one := attr.NewBuilder().
		SetClass(types.ClassGenericPassword).
		SetService("svc").
		SetMatchLimit(types.MatchLimitOne).
		Build()
	handles, st := p.CopyMatching(one)
	require.Equal(t, status.Success, st)
	assert.Len(t, handles, 1)

	all := one.Builder().SetMatchLimit(types.MatchLimitAll).Build()
	handles, st = p.CopyMatching(all)
	require.Equal(t, status.Success, st)
	assert.Len(t, handles, 3)

	missingOne := attr.NewBuilder().
		SetClass(types.ClassGenericPassword).
		SetService("absent").
		Build()
	_, st = p.CopyMatching(missingOne)
	assert.Equal(t, status.ErrSecItemNotFound, st)

	missingAll := missingOne.Builder().SetMatchLimit(types.MatchLimitAll).Build()
	handles, st = p.CopyMatching(missingAll)
	assert.Equal(t, status.Success, st)
	assert.Empty(t, handles)
}

func TestCopyMatchingScopedToDefaultKeychain(t *testing.T) {
	p := New()

	kc, st := p.CreateObject(attr.NewBuilder().
		SetClass(types.ClassKeychain).
		SetPath("other.keychain").
		Build())
	require.Equal(t, status.Success, st)

	_, st = p.CreateObject(genericPassword("svc", "alice", []byte("pw")).Builder().
		SetUseKeychain(uint64(kc)).
		Build())
	require.Equal(t, status.Success, st)

	// Without an explicit keychain the query searches the default
	// keychain only; the item above is invisible to it.
	query := attr.NewBuilder().
		SetClass(types.ClassGenericPassword).
		SetService("svc").
		SetAccount("alice").
		Build()
	_, st = p.CopyMatching(query)
	assert.Equal(t, status.ErrSecItemNotFound, st)

	all := query.Builder().SetMatchLimit(types.MatchLimitAll).Build()
	handles, st := p.CopyMatching(all)
	require.Equal(t, status.Success, st)
	assert.Empty(t, handles)

	scoped := query.Builder().SetUseKeychain(uint64(kc)).Build()
	handles, st = p.CopyMatching(scoped)
	require.Equal(t, status.Success, st)
	require.Len(t, handles, 1)
	p.Release(handles[0])
}

func TestDeleteMatchingKeepsLiveReferences(t *testing.T) {
	p := New()

	created, st := p.CreateObject(genericPassword("svc", "alice", []byte("pw")))
	require.Equal(t, status.Success, st)
	// The creation reference is not needed; the item stays stored.
	p.Release(created)

	query := attr.NewBuilder().
		SetClass(types.ClassGenericPassword).
		SetService("svc").
		SetAccount("alice").
		Build()
	handles, st := p.CopyMatching(query)
	require.Equal(t, status.Success, st)
	require.Len(t, handles, 1)

	n, st := p.DeleteMatching(query)
	require.Equal(t, status.Success, st)
	assert.Equal(t, 1, n)

	// The live reference still resolves after deletion.
	_, st = p.CopyAttributes(handles[0])
	assert.Equal(t, status.Success, st)

	// But the item is gone from storage.
	n, st = p.DeleteMatching(query)
	require.Equal(t, status.Success, st)
	assert.Equal(t, 0, n)

	p.Release(handles[0])
	_, st = p.CopyAttributes(handles[0])
	assert.Equal(t, status.ErrSecInvalidItemRef, st)
}

func TestDestroyKeychainCascades(t *testing.T) {
	p := New()

	kc, st := p.CreateObject(attr.NewBuilder().
		SetClass(types.ClassKeychain).
		SetPath("scratch.keychain").
		Build())
	require.Equal(t, status.Success, st)

	item := genericPassword("svc", "alice", []byte("pw")).Builder().
		SetUseKeychain(uint64(kc)).
		Build()
	_, st = p.CreateObject(item)
	require.Equal(t, status.Success, st)

	require.Equal(t, status.Success, p.DestroyObject(kc))

	query := attr.NewBuilder().
		SetClass(types.ClassGenericPassword).
		SetService("svc").
		SetMatchLimit(types.MatchLimitAll).
		Build()
	handles, st := p.CopyMatching(query)
	require.Equal(t, status.Success, st)
	assert.Empty(t, handles)
}

func TestDestroyDefaultKeychainRefused(t *testing.T) {
	p := New()

	query := attr.NewBuilder().SetClass(types.ClassKeychain).Build()
	handles, st := p.CopyMatching(query)
	require.Equal(t, status.Success, st)
	require.Len(t, handles, 1)

	assert.Equal(t, status.ErrSecParam, p.DestroyObject(handles[0]))
	p.Release(handles[0])
}

func TestGenerateKeyPairSizes(t *testing.T) {
	tests := []struct {
		name    string
		keyType types.KeyType
		bits    int
		want    status.OSStatus
	}{
		{"ec-256", types.KeyTypeECSECPrimeRandom, 256, status.Success},
		{"ec-384", types.KeyTypeECSECPrimeRandom, 384, status.Success},
		{"ec-521", types.KeyTypeECSECPrimeRandom, 521, status.Success},
		{"ec-192", types.KeyTypeECSECPrimeRandom, 192, status.ErrSecKeySizeNotAllowed},
		{"rsa-2048", types.KeyTypeRSA, 2048, status.Success},
		{"rsa-1024", types.KeyTypeRSA, 1024, status.ErrSecKeySizeNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			pub, priv, st := p.GenerateKeyPair(keyPairAttrs(tt.keyType, tt.bits).Build())
			require.Equal(t, tt.want, st)
			if tt.want != status.Success {
				return
			}
			require.NotEqual(t, provider.NilHandle, pub)
			require.NotEqual(t, provider.NilHandle, priv)

			pubAttrs, st := p.CopyAttributes(pub)
			require.Equal(t, status.Success, st)
			privAttrs, st := p.CopyAttributes(priv)
			require.Equal(t, status.Success, st)

			kc, _ := pubAttrs.KeyClassAttr()
			assert.Equal(t, types.KeyClassPublic, kc)
			kc, _ = privAttrs.KeyClassAttr()
			assert.Equal(t, types.KeyClassPrivate, kc)

			// Both halves share the public key fingerprint.
			pubLabel, ok := pubAttrs.GetBytes(attr.KeyApplicationLabel)
			require.True(t, ok)
			privLabel, ok := privAttrs.GetBytes(attr.KeyApplicationLabel)
			require.True(t, ok)
			assert.Equal(t, pubLabel, privLabel)
			assert.Len(t, pubLabel, sha256.Size)
		})
	}
}

func TestGenerateKeyPairSecureEnclave(t *testing.T) {
	p := New()

	_, _, st := p.GenerateKeyPair(keyPairAttrs(types.KeyTypeRSA, 2048).
		SetTokenID(types.TokenSecureEnclave).
		Build())
	assert.Equal(t, status.ErrSecParam, st)

	_, _, st = p.GenerateKeyPair(keyPairAttrs(types.KeyTypeECSECPrimeRandom, 384).
		SetTokenID(types.TokenSecureEnclave).
		Build())
	assert.Equal(t, status.ErrSecParam, st)

	pub, priv, st := p.GenerateKeyPair(keyPairAttrs(types.KeyTypeECSECPrimeRandom, 256).
		SetTokenID(types.TokenSecureEnclave).
		Build())
	require.Equal(t, status.Success, st)

	// Token-resident keys are never exportable.
	_, st = p.ExportKey(priv)
	assert.Equal(t, status.ErrSecMissingEntitlement, st)

	// The public half leaves the token designation behind and exports.
	_, st = p.ExportKey(pub)
	assert.Equal(t, status.Success, st)
}

func TestSignVerify(t *testing.T) {
	tests := []struct {
		name    string
		keyType types.KeyType
		bits    int
		alg     types.Algorithm
	}{
		{"ecdsa-message", types.KeyTypeECSECPrimeRandom, 256, types.AlgorithmECDSASignatureMessageX962SHA256},
		{"ecdsa-digest", types.KeyTypeECSECPrimeRandom, 256, types.AlgorithmECDSASignatureDigestX962SHA256},
		{"rsa-pkcs1v15", types.KeyTypeRSA, 2048, types.AlgorithmRSASignatureMessagePKCS1v15SHA256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			pub, priv, st := p.GenerateKeyPair(keyPairAttrs(tt.keyType, tt.bits).Build())
			require.Equal(t, status.Success, st)

			data := []byte("attack at dawn")
			if tt.alg.DigestInput() {
				sum := sha256.Sum256(data)
				data = sum[:]
			}

			sig, st := p.CreateSignature(priv, tt.alg, data)
			require.Equal(t, status.Success, st)
			require.NotEmpty(t, sig)

			ok, st := p.VerifySignature(pub, tt.alg, data, sig)
			require.Equal(t, status.Success, st)
			assert.True(t, ok)

			// A corrupted signature verifies false without error.
			sig[len(sig)/2] ^= 0xff
			ok, st = p.VerifySignature(pub, tt.alg, data, sig)
			require.Equal(t, status.Success, st)
			assert.False(t, ok)
		})
	}
}

func TestSignDigestLengthEnforced(t *testing.T) {
	p := New()
	_, priv, st := p.GenerateKeyPair(keyPairAttrs(types.KeyTypeECSECPrimeRandom, 256).Build())
	require.Equal(t, status.Success, st)

	_, st = p.CreateSignature(priv, types.AlgorithmECDSASignatureDigestX962SHA256, []byte("short"))
	assert.Equal(t, status.ErrSecParam, st)
}

func TestSignKeyTypeMismatch(t *testing.T) {
	p := New()
	_, priv, st := p.GenerateKeyPair(keyPairAttrs(types.KeyTypeECSECPrimeRandom, 256).Build())
	require.Equal(t, status.Success, st)

	_, st = p.CreateSignature(priv, types.AlgorithmRSASignatureMessagePKCS1v15SHA256, []byte("msg"))
	assert.Equal(t, status.ErrSecParam, st)
}

func TestSignWithPublicKeyRefused(t *testing.T) {
	p := New()
	pub, _, st := p.GenerateKeyPair(keyPairAttrs(types.KeyTypeECSECPrimeRandom, 256).Build())
	require.Equal(t, status.Success, st)

	_, st = p.CreateSignature(pub, types.AlgorithmECDSASignatureMessageX962SHA256, []byte("msg"))
	assert.Equal(t, status.ErrSecParam, st)
}

func TestEncryptDecryptRSA(t *testing.T) {
	p := New()
	pub, priv, st := p.GenerateKeyPair(keyPairAttrs(types.KeyTypeRSA, 2048).Build())
	require.Equal(t, status.Success, st)

	plaintext := []byte("sealed")
	ciphertext, st := p.Encrypt(pub, types.AlgorithmRSAEncryptionOAEPSHA256, plaintext)
	require.Equal(t, status.Success, st)
	require.NotEqual(t, plaintext, ciphertext)

	out, st := p.Decrypt(priv, types.AlgorithmRSAEncryptionOAEPSHA256, ciphertext)
	require.Equal(t, status.Success, st)
	assert.Equal(t, plaintext, out)

	// Corrupted ciphertext fails as a decode error.
	ciphertext[0] ^= 0xff
	_, st = p.Decrypt(priv, types.AlgorithmRSAEncryptionOAEPSHA256, ciphertext)
	assert.Equal(t, status.ErrSecDecode, st)
}

func TestECIESUnimplemented(t *testing.T) {
	p := New()
	pub, priv, st := p.GenerateKeyPair(keyPairAttrs(types.KeyTypeECSECPrimeRandom, 256).Build())
	require.Equal(t, status.Success, st)

	_, st = p.Encrypt(pub, types.AlgorithmECIESEncryptionStandardX963SHA256AESGCM, []byte("x"))
	assert.Equal(t, status.ErrSecUnimplemented, st)

	_, st = p.Decrypt(priv, types.AlgorithmECIESEncryptionStandardX963SHA256AESGCM, []byte("x"))
	assert.Equal(t, status.ErrSecUnimplemented, st)
}

func TestExportImportRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		keyType types.KeyType
		bits    int
		alg     types.Algorithm
	}{
		{"ec-256", types.KeyTypeECSECPrimeRandom, 256, types.AlgorithmECDSASignatureMessageX962SHA256},
		{"ec-521", types.KeyTypeECSECPrimeRandom, 521, types.AlgorithmECDSASignatureMessageX962SHA256},
		{"rsa-2048", types.KeyTypeRSA, 2048, types.AlgorithmRSASignatureMessagePKCS1v15SHA256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			pub, priv, st := p.GenerateKeyPair(keyPairAttrs(tt.keyType, tt.bits).Build())
			require.Equal(t, status.Success, st)

			exported, st := p.ExportKey(priv)
			require.Equal(t, status.Success, st)
			require.NotEmpty(t, exported)

			imported, st := p.ImportKey(exported, keyPairAttrs(tt.keyType, tt.bits).
				SetKeyClass(types.KeyClassPrivate).
				Build())
			require.Equal(t, status.Success, st)

			// The imported key signs, and the original public half verifies.
			data := []byte("round trip")
			sig, st := p.CreateSignature(imported, tt.alg, data)
			require.Equal(t, status.Success, st)
			ok, st := p.VerifySignature(pub, tt.alg, data, sig)
			require.Equal(t, status.Success, st)
			assert.True(t, ok)

			// Re-export reproduces the external representation.
			again, st := p.ExportKey(imported)
			require.Equal(t, status.Success, st)
			assert.Equal(t, exported, again)
		})
	}
}

func TestImportPublicKey(t *testing.T) {
	p := New()
	pub, _, st := p.GenerateKeyPair(keyPairAttrs(types.KeyTypeECSECPrimeRandom, 384).Build())
	require.Equal(t, status.Success, st)

	exported, st := p.ExportKey(pub)
	require.Equal(t, status.Success, st)
	assert.Equal(t, byte(0x04), exported[0])

	imported, st := p.ImportKey(exported, keyPairAttrs(types.KeyTypeECSECPrimeRandom, 384).
		SetKeyClass(types.KeyClassPublic).
		Build())
	require.Equal(t, status.Success, st)

	// A public key cannot sign.
	_, st = p.CreateSignature(imported, types.AlgorithmECDSASignatureMessageX962SHA256, []byte("x"))
	assert.Equal(t, status.ErrSecParam, st)
}

func TestImportMalformedKey(t *testing.T) {
	p := New()

	_, st := p.ImportKey([]byte{0x05, 0x01, 0x02}, keyPairAttrs(types.KeyTypeECSECPrimeRandom, 256).
		SetKeyClass(types.KeyClassPublic).
		Build())
	assert.Equal(t, status.ErrSecParam, st)

	_, st = p.ImportKey([]byte("not der"), keyPairAttrs(types.KeyTypeRSA, 2048).
		SetKeyClass(types.KeyClassPrivate).
		Build())
	assert.Equal(t, status.ErrSecParam, st)

	// External material never enters the secure element.
	p2 := New()
	pub, _, st := p2.GenerateKeyPair(keyPairAttrs(types.KeyTypeECSECPrimeRandom, 256).Build())
	require.Equal(t, status.Success, st)
	exported, st := p2.ExportKey(pub)
	require.Equal(t, status.Success, st)

	_, st = p.ImportKey(exported, keyPairAttrs(types.KeyTypeECSECPrimeRandom, 256).
		SetKeyClass(types.KeyClassPublic).
		SetTokenID(types.TokenSecureEnclave).
		Build())
	assert.Equal(t, status.ErrSecParam, st)
}

func TestExportHardwarePolicyRefused(t *testing.T) {
	p := New()
	policy := access.NewPolicy(types.AccessibleWhenUnlockedThisDeviceOnly, access.PrivateKeyUsage)

	_, priv, st := p.GenerateKeyPair(keyPairAttrs(types.KeyTypeECSECPrimeRandom, 256).
		SetAccessControl(policy).
		Build())
	require.Equal(t, status.Success, st)

	_, st = p.ExportKey(priv)
	assert.Equal(t, status.ErrSecMissingEntitlement, st)
}

func TestAccessControlGate(t *testing.T) {
	var prompts []string
	decision := Allow
	auth := func(policy access.Policy, operation string) Decision {
		prompts = append(prompts, operation)
		return decision
	}

	p := New(WithAuthenticator(auth))
	policy := access.NewPolicy(types.AccessibleWhenUnlockedThisDeviceOnly, access.BiometryAny)

	pub, priv, st := p.GenerateKeyPair(keyPairAttrs(types.KeyTypeECSECPrimeRandom, 256).
		SetAccessControl(policy).
		Build())
	require.Equal(t, status.Success, st)

	data := []byte("guarded")
	sig, st := p.CreateSignature(priv, types.AlgorithmECDSASignatureMessageX962SHA256, data)
	require.Equal(t, status.Success, st)
	assert.Equal(t, []string{"sign"}, prompts)

	// Public key operations are never gated.
	ok, st := p.VerifySignature(pub, types.AlgorithmECDSASignatureMessageX962SHA256, data, sig)
	require.Equal(t, status.Success, st)
	assert.True(t, ok)
	assert.Len(t, prompts, 1)

	decision = Deny
	_, st = p.CreateSignature(priv, types.AlgorithmECDSASignatureMessageX962SHA256, data)
	assert.Equal(t, status.ErrSecAuthFailed, st)

	decision = Cancel
	_, st = p.CreateSignature(priv, types.AlgorithmECDSASignatureMessageX962SHA256, data)
	assert.Equal(t, status.ErrSecUserCanceled, st)

	// Each gated call prompts again; the denial was not cached.
	decision = Allow
	_, st = p.CreateSignature(priv, types.AlgorithmECDSASignatureMessageX962SHA256, data)
	assert.Equal(t, status.Success, st)
	assert.Len(t, prompts, 4)
}

func TestUngatedKeyNeverPrompts(t *testing.T) {
	prompted := false
	p := New(WithAuthenticator(func(access.Policy, string) Decision {
		prompted = true
		return Deny
	}))

	_, priv, st := p.GenerateKeyPair(keyPairAttrs(types.KeyTypeECSECPrimeRandom, 256).Build())
	require.Equal(t, status.Success, st)

	_, st = p.CreateSignature(priv, types.AlgorithmECDSASignatureMessageX962SHA256, []byte("x"))
	require.Equal(t, status.Success, st)
	assert.False(t, prompted)
}

func TestPermanentKeysFindable(t *testing.T) {
	p := New()

	tag := []byte("com.example.signing")
	_, priv, st := p.GenerateKeyPair(keyPairAttrs(types.KeyTypeECSECPrimeRandom, 256).
		SetApplicationTag(tag).
		SetPermanent(true).
		Build())
	require.Equal(t, status.Success, st)

	query := attr.NewBuilder().
		SetClass(types.ClassKey).
		SetApplicationTag(tag).
		SetKeyClass(types.KeyClassPrivate).
		Build()
	handles, st := p.CopyMatching(query)
	require.Equal(t, status.Success, st)
	require.Len(t, handles, 1)
	p.Release(handles[0])

	// A transient key releases down to nothing.
	p.Release(priv)
	_, st = p.CopyAttributes(priv)
	assert.Equal(t, status.Success, st) // still stored

	p2 := New()
	_, transient, st := p2.GenerateKeyPair(keyPairAttrs(types.KeyTypeECSECPrimeRandom, 256).Build())
	require.Equal(t, status.Success, st)
	p2.Release(transient)
	_, st = p2.CopyAttributes(transient)
	assert.Equal(t, status.ErrSecInvalidItemRef, st)
}
