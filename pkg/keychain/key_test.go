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

package keychain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-keychain-services/pkg/access"
	"github.com/jeremyhahn/go-keychain-services/pkg/attr"
	"github.com/jeremyhahn/go-keychain-services/pkg/keychain"
	"github.com/jeremyhahn/go-keychain-services/pkg/ref"
	"github.com/jeremyhahn/go-keychain-services/pkg/provider/software"
	"github.com/jeremyhahn/go-keychain-services/pkg/status"
	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

// uniqueTag returns an application tag no other test fixture shares.
func uniqueTag() []byte {
	return []byte("com.example.test." + uuid.NewString())
}

func ecParams(tag []byte) keychain.KeyPairParams {
	return keychain.KeyPairParams{
		KeyType:    types.KeyTypeECSECPrimeRandom,
		SizeInBits: 256,
		Tag:        tag,
	}
}

func TestKeyPairParamsValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GenerateKeyPair(keychain.KeyPairParams{SizeInBits: 256})
	assert.ErrorIs(t, err, status.ErrInvalidParameter)

	_, err = svc.GenerateKeyPair(keychain.KeyPairParams{KeyType: types.KeyTypeRSA})
	assert.ErrorIs(t, err, status.ErrInvalidParameter)

	// Sizes the provider does not support are invalid parameters too.
	_, err = svc.GenerateKeyPair(keychain.KeyPairParams{
		KeyType:    types.KeyTypeRSA,
		SizeInBits: 1024,
	})
	assert.ErrorIs(t, err, status.ErrInvalidParameter)
}

func TestGenerateSignVerifyDelete(t *testing.T) {
	svc := newTestService(t)

	tag := uniqueTag()
	params := ecParams(tag)
	params.Permanent = true
	params.Label = "signing key"

	pair, err := svc.GenerateKeyPair(params)
	require.NoError(t, err)
	assert.Equal(t, types.KeyClassPublic, pair.PublicKey.KeyClass())
	assert.Equal(t, types.KeyClassPrivate, pair.PrivateKey.KeyClass())
	assert.Equal(t, pair.PublicKey.ApplicationLabel(), pair.PrivateKey.ApplicationLabel())

	data := []byte("signed payload")
	sig, err := svc.Sign(pair.PrivateKey, types.AlgorithmECDSASignatureMessageX962SHA256, data)
	require.NoError(t, err)

	ok, err := svc.Verify(pair.PublicKey, data, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	// A different message does not verify, and that is not an error.
	ok, err = svc.Verify(pair.PublicKey, []byte("tampered payload"), sig)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting both halves consumes the references; the keys are gone.
	require.NoError(t, svc.DeleteKey(pair.PrivateKey))
	require.NoError(t, svc.DeleteKey(pair.PublicKey))

	_, err = svc.FindKey(attr.NewBuilder().SetApplicationTag(tag).Build())
	assert.ErrorIs(t, err, status.ErrItemNotFound)
}

func TestFindKeysByTag(t *testing.T) {
	svc := newTestService(t)

	tag := uniqueTag()
	params := ecParams(tag)
	params.Permanent = true

	pair, err := svc.GenerateKeyPair(params)
	require.NoError(t, err)

	keys, err := svc.FindKeys(attr.NewBuilder().SetApplicationTag(tag).Build())
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	for _, k := range keys {
		require.NoError(t, k.Release())
	}

	private, err := svc.FindKey(attr.NewBuilder().
		SetApplicationTag(tag).
		SetKeyClass(types.KeyClassPrivate).
		Build())
	require.NoError(t, err)
	assert.Equal(t, types.KeyClassPrivate, private.KeyClass())
	require.NoError(t, private.Release())

	require.NoError(t, svc.DeleteKey(pair.PrivateKey))
	require.NoError(t, svc.DeleteKey(pair.PublicKey))
}

func TestExportImportRoundTrip(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.GenerateKeyPair(ecParams(uniqueTag()))
	require.NoError(t, err)

	exported, err := svc.ExportKey(pair.PrivateKey)
	require.NoError(t, err)
	require.NotEmpty(t, exported)

	imported, err := svc.ImportKey(exported, attr.NewBuilder().
		SetClass(types.ClassKey).
		SetKeyType(types.KeyTypeECSECPrimeRandom).
		SetKeyClass(types.KeyClassPrivate).
		Build())
	require.NoError(t, err)

	// The imported key is the same key: its signatures verify against
	// the original public half.
	data := []byte("round trip")
	sig, err := svc.Sign(imported, types.AlgorithmECDSASignatureMessageX962SHA256, data)
	require.NoError(t, err)
	ok, err := svc.Verify(pair.PublicKey, data, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, pair.PrivateKey.ApplicationLabel(), imported.ApplicationLabel())

	require.NoError(t, imported.Release())
	require.NoError(t, pair.Release())
}

func TestImportMalformedKey(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ImportKey([]byte("garbage"), attr.NewBuilder().
		SetClass(types.ClassKey).
		SetKeyType(types.KeyTypeECSECPrimeRandom).
		SetKeyClass(types.KeyClassPrivate).
		Build())
	assert.ErrorIs(t, err, status.ErrInvalidParameter)
}

func TestExportSecureEnclaveKeyRefused(t *testing.T) {
	svc := newTestService(t)

	policy := access.NewPolicy(types.AccessibleWhenUnlockedThisDeviceOnly,
		access.PrivateKeyUsage|access.BiometryAny)
	pair, err := svc.GenerateKeyPair(keychain.KeyPairParams{
		KeyType:       types.KeyTypeECSECPrimeRandom,
		SizeInBits:    256,
		Token:         types.TokenSecureEnclave,
		AccessControl: &policy,
	})
	require.NoError(t, err)

	_, err = svc.ExportKey(pair.PrivateKey)
	assert.ErrorIs(t, err, status.ErrMissingEntitlement)

	// The public half is not hardware-bound and exports normally.
	exported, err := svc.ExportKey(pair.PublicKey)
	require.NoError(t, err)
	assert.NotEmpty(t, exported)

	require.NoError(t, pair.Release())
}

func TestKeyAttributesSnapshot(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.GenerateKeyPair(ecParams(uniqueTag()))
	require.NoError(t, err)

	attrs, err := svc.KeyAttributes(pair.PrivateKey)
	require.NoError(t, err)
	bits, _ := attrs.KeySizeInBits()
	assert.Equal(t, 256, bits)
	keyType, _ := attrs.KeyType()
	assert.Equal(t, types.KeyTypeECSECPrimeRandom, keyType)

	require.NoError(t, pair.Release())
}

func TestKeyUseAfterRelease(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.GenerateKeyPair(ecParams(uniqueTag()))
	require.NoError(t, err)
	require.NoError(t, pair.Release())

	_, err = svc.Sign(pair.PrivateKey, types.AlgorithmECDSASignatureMessageX962SHA256, []byte("x"))
	assert.ErrorIs(t, err, ref.ErrReleased)
	assert.ErrorIs(t, pair.PrivateKey.Release(), ref.ErrReleased)
}

func TestSignRejectsNonSigningAlgorithm(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.GenerateKeyPair(ecParams(uniqueTag()))
	require.NoError(t, err)

	_, err = svc.Sign(pair.PrivateKey, types.AlgorithmRSAEncryptionOAEPSHA256, []byte("x"))
	assert.ErrorIs(t, err, status.ErrInvalidParameter)

	require.NoError(t, pair.Release())
}

func TestEncryptDecrypt(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.GenerateKeyPair(keychain.KeyPairParams{
		KeyType:    types.KeyTypeRSA,
		SizeInBits: 2048,
	})
	require.NoError(t, err)

	plaintext := []byte("sealed payload")
	ct, err := svc.Encrypt(pair.PublicKey, types.AlgorithmRSAEncryptionOAEPSHA256, plaintext)
	require.NoError(t, err)
	assert.Equal(t, types.AlgorithmRSAEncryptionOAEPSHA256, ct.Algorithm())

	out, err := svc.Decrypt(pair.PrivateKey, ct)
	require.NoError(t, err)
	assert.Equal(t, plaintext, out)

	require.NoError(t, pair.Release())
}

func TestECIESReportsUnimplemented(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.GenerateKeyPair(ecParams(uniqueTag()))
	require.NoError(t, err)

	_, err = svc.Encrypt(pair.PublicKey, types.AlgorithmECIESEncryptionStandardX963SHA256AESGCM, []byte("x"))
	assert.ErrorIs(t, err, status.ErrUnimplemented)

	require.NoError(t, pair.Release())
}

func TestAccessControlGatedSigning(t *testing.T) {
	decision := software.Allow
	svc := newTestService(t, software.WithAuthenticator(
		func(access.Policy, string) software.Decision { return decision },
	))

	policy := access.NewPolicy(types.AccessibleWhenUnlockedThisDeviceOnly, access.BiometryAny)
	pair, err := svc.GenerateKeyPair(keychain.KeyPairParams{
		KeyType:       types.KeyTypeECSECPrimeRandom,
		SizeInBits:    256,
		AccessControl: &policy,
	})
	require.NoError(t, err)

	data := []byte("guarded")
	_, err = svc.Sign(pair.PrivateKey, types.AlgorithmECDSASignatureMessageX962SHA256, data)
	require.NoError(t, err)

	decision = software.Deny
	_, err = svc.Sign(pair.PrivateKey, types.AlgorithmECDSASignatureMessageX962SHA256, data)
	assert.ErrorIs(t, err, status.ErrAuthenticationFailed)

	decision = software.Cancel
	_, err = svc.Sign(pair.PrivateKey, types.AlgorithmECDSASignatureMessageX962SHA256, data)
	assert.ErrorIs(t, err, status.ErrUserCanceled)

	// The denial was not cached; allowing again succeeds.
	decision = software.Allow
	sig, err := svc.Sign(pair.PrivateKey, types.AlgorithmECDSASignatureMessageX962SHA256, data)
	require.NoError(t, err)
	ok, err := svc.Verify(pair.PublicKey, data, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, pair.Release())
}
