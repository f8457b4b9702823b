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

// Package types defines the shared value types and enumerations used across
// the keychain services API: object classes, key classes and types, token
// identifiers, protection classes and match limits.
//
// The string values mirror the constants used by the native security
// provider so that attribute dictionaries round-trip without translation.
package types

// Class identifies the kind of object stored in a keychain.
type Class string

const (
	// ClassGenericPassword identifies generic password items.
	ClassGenericPassword Class = "genp"

	// ClassInternetPassword identifies internet password items.
	ClassInternetPassword Class = "inet"

	// ClassCertificate identifies certificate items.
	ClassCertificate Class = "cert"

	// ClassKey identifies cryptographic key items.
	ClassKey Class = "keys"

	// ClassIdentity identifies identity items (a certificate paired with
	// its private key).
	ClassIdentity Class = "idnt"

	// ClassKeychain identifies keychain containers themselves. The native
	// API manages keychains through dedicated calls rather than the item
	// protocol; the provider abstraction folds both into one object model.
	ClassKeychain Class = "kych"
)

// Valid reports whether the class is one of the defined object classes.
func (c Class) Valid() bool {
	switch c {
	case ClassGenericPassword, ClassInternetPassword, ClassCertificate,
		ClassKey, ClassIdentity, ClassKeychain:
		return true
	}
	return false
}

// KeyClass distinguishes public, private and symmetric keys.
type KeyClass string

const (
	// KeyClassPublic identifies the public half of an asymmetric key pair.
	KeyClassPublic KeyClass = "0"

	// KeyClassPrivate identifies the private half of an asymmetric key pair.
	KeyClassPrivate KeyClass = "1"

	// KeyClassSymmetric identifies symmetric keys.
	KeyClassSymmetric KeyClass = "2"
)

// KeyType identifies the algorithm family of a cryptographic key.
type KeyType string

const (
	// KeyTypeRSA identifies RSA keys.
	KeyTypeRSA KeyType = "42"

	// KeyTypeECSECPrimeRandom identifies elliptic curve keys over the
	// NIST prime curves (P-256, P-384, P-521, selected by key size).
	KeyTypeECSECPrimeRandom KeyType = "73"
)

// TokenID designates an external cryptographic token as the home of a key.
type TokenID string

// TokenSecureEnclave stores the private key inside the device's secure
// element. Keys resident in the secure element never leave the hardware and
// are not exportable.
const TokenSecureEnclave TokenID = "com.apple.setoken"

// Accessible is the protection class of a keychain item: when, relative to
// device lock state, the provider will allow the item to be read.
type Accessible string

const (
	// AccessibleWhenUnlocked allows access only while the device is unlocked.
	AccessibleWhenUnlocked Accessible = "ak"

	// AccessibleAfterFirstUnlock allows access from the first unlock after
	// boot until the next reboot.
	AccessibleAfterFirstUnlock Accessible = "ck"

	// AccessibleAlways allows access regardless of lock state.
	AccessibleAlways Accessible = "dk"

	// AccessibleWhenPasscodeSetThisDeviceOnly allows access only while
	// unlocked, only on devices with a passcode, and never syncs.
	AccessibleWhenPasscodeSetThisDeviceOnly Accessible = "akpu"

	// AccessibleWhenUnlockedThisDeviceOnly is AccessibleWhenUnlocked
	// without device-to-device migration.
	AccessibleWhenUnlockedThisDeviceOnly Accessible = "aku"

	// AccessibleAfterFirstUnlockThisDeviceOnly is
	// AccessibleAfterFirstUnlock without device-to-device migration.
	AccessibleAfterFirstUnlockThisDeviceOnly Accessible = "cku"
)

// MatchLimit bounds the number of results a matching query may return.
type MatchLimit int

const (
	// MatchLimitAll places no bound on the number of matches.
	MatchLimitAll MatchLimit = 0

	// MatchLimitOne returns at most a single match.
	MatchLimitOne MatchLimit = 1
)

// Password holds sensitive password material in memory.
//
// Implementations must support explicit zeroing so callers can bound the
// lifetime of secrets independent of garbage collection.
type Password interface {
	// String returns the password as a string, or an error if the
	// password has been cleared.
	String() (string, error)

	// Bytes returns a copy of the password bytes, or nil if cleared.
	Bytes() []byte

	// Clear zeroes the password material. Irreversible.
	Clear()
}
