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

package types

// Algorithm selects the cryptographic algorithm for a key operation.
// Values mirror the provider's algorithm identifier strings.
type Algorithm string

const (
	// AlgorithmECDSASignatureMessageX962SHA256 signs a raw message:
	// the provider computes the SHA-256 digest internally and produces
	// an X9.62 DER-encoded ECDSA signature.
	AlgorithmECDSASignatureMessageX962SHA256 Algorithm = "algid:sign:ECDSA:message-X962:SHA256"

	// AlgorithmECDSASignatureDigestX962SHA256 signs a caller-supplied
	// 32-byte SHA-256 digest, producing an X9.62 DER-encoded signature.
	AlgorithmECDSASignatureDigestX962SHA256 Algorithm = "algid:sign:ECDSA:digest-X962:SHA256"

	// AlgorithmRSASignatureMessagePKCS1v15SHA256 signs a raw message
	// with RSASSA-PKCS1-v1_5 over SHA-256.
	AlgorithmRSASignatureMessagePKCS1v15SHA256 Algorithm = "algid:sign:RSA:message-PKCS1v15:SHA256"

	// AlgorithmRSAEncryptionOAEPSHA256 encrypts with RSAES-OAEP using
	// SHA-256 for both the hash and the mask generation function.
	AlgorithmRSAEncryptionOAEPSHA256 Algorithm = "algid:encrypt:RSA:OAEP:SHA256"

	// AlgorithmECIESEncryptionStandardX963SHA256AESGCM encrypts with
	// ECIES using the X9.63 SHA-256 KDF and AES-GCM.
	AlgorithmECIESEncryptionStandardX963SHA256AESGCM Algorithm = "algid:encrypt:ECIES:standard-X963:SHA256:AESGCM"
)

// Signing reports whether the algorithm is a signature algorithm.
func (a Algorithm) Signing() bool {
	switch a {
	case AlgorithmECDSASignatureMessageX962SHA256,
		AlgorithmECDSASignatureDigestX962SHA256,
		AlgorithmRSASignatureMessagePKCS1v15SHA256:
		return true
	}
	return false
}

// Encryption reports whether the algorithm is an encryption algorithm.
func (a Algorithm) Encryption() bool {
	switch a {
	case AlgorithmRSAEncryptionOAEPSHA256,
		AlgorithmECIESEncryptionStandardX963SHA256AESGCM:
		return true
	}
	return false
}

// DigestInput reports whether the algorithm expects a precomputed digest
// rather than the raw message.
func (a Algorithm) DigestInput() bool {
	return a == AlgorithmECDSASignatureDigestX962SHA256
}

// KeyType returns the key algorithm family this algorithm operates on.
func (a Algorithm) KeyType() KeyType {
	switch a {
	case AlgorithmECDSASignatureMessageX962SHA256,
		AlgorithmECDSASignatureDigestX962SHA256,
		AlgorithmECIESEncryptionStandardX963SHA256AESGCM:
		return KeyTypeECSECPrimeRandom
	default:
		return KeyTypeRSA
	}
}
