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

// Package access describes authentication requirements attached to keychain
// items and keys at creation time.
//
// A Policy is a declarative value: it is built once, attached to the
// attribute dictionary that creates the owning object, and never mutated
// afterward. The provider evaluates it lazily, the first time a protected
// operation (signing or decrypting with the guarded key) is attempted. This
// package neither evaluates policies nor caches authentication state.
package access

import "github.com/jeremyhahn/go-keychain-services/pkg/types"

// Flags restrict access to a keychain item. Constraint bits demand a form
// of user authentication, conjunction bits combine constraints, and option
// bits select additional behavior. Bit positions mirror the provider's
// access control flag values.
type Flags uint64

const (
	// UserPresence requires either biometric authentication or the
	// device passcode.
	UserPresence Flags = 1 << 0

	// BiometryAny requires biometric authentication from any enrolled
	// identity on the device.
	BiometryAny Flags = 1 << 1

	// BiometryCurrentSet requires biometric authentication from the
	// currently enrolled identity set; re-enrollment invalidates access.
	BiometryCurrentSet Flags = 1 << 3

	// DevicePasscode requires the device passcode.
	DevicePasscode Flags = 1 << 4

	// Or satisfies the policy when at least one constraint holds.
	Or Flags = 1 << 14

	// And satisfies the policy only when all constraints hold.
	And Flags = 1 << 15

	// PrivateKeyUsage stores the private key in the device's secure
	// element. Keys created with this option are never exportable.
	PrivateKeyUsage Flags = 1 << 30

	// ApplicationPassword derives the encryption key from an
	// application-supplied password.
	ApplicationPassword Flags = 1 << 31
)

// constraintMask covers the flag bits that demand user authentication.
const constraintMask = UserPresence | BiometryAny | BiometryCurrentSet | DevicePasscode

// Has reports whether all bits in f2 are set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// AuthenticationType names the kind of user authentication a policy demands.
type AuthenticationType uint8

const (
	// AuthenticationNone means no user authentication is required.
	AuthenticationNone AuthenticationType = iota

	// AuthenticationBiometryAny requires any enrolled biometric identity.
	AuthenticationBiometryAny

	// AuthenticationBiometryCurrentSet requires the current biometric
	// enrollment.
	AuthenticationBiometryCurrentSet

	// AuthenticationDevicePasscode requires the device passcode.
	AuthenticationDevicePasscode

	// AuthenticationBiometryOrPasscode accepts either biometric
	// authentication or the device passcode.
	AuthenticationBiometryOrPasscode
)

// String returns the authentication type name.
func (a AuthenticationType) String() string {
	switch a {
	case AuthenticationBiometryAny:
		return "BiometryAny"
	case AuthenticationBiometryCurrentSet:
		return "BiometryCurrentSet"
	case AuthenticationDevicePasscode:
		return "DevicePasscode"
	case AuthenticationBiometryOrPasscode:
		return "BiometryOrPasscode"
	default:
		return "None"
	}
}

// Policy is an immutable access control policy: a protection class plus a
// set of access control flags.
type Policy struct {
	protection types.Accessible
	flags      Flags
}

// NewPolicy creates a policy combining a protection class with access
// control flags.
func NewPolicy(protection types.Accessible, flags Flags) Policy {
	return Policy{protection: protection, flags: flags}
}

// Protection returns the protection class.
func (p Policy) Protection() types.Accessible {
	return p.protection
}

// Flags returns the access control flags.
func (p Policy) Flags() Flags {
	return p.flags
}

// RequiresAuthentication reports whether any operation guarded by this
// policy will trigger a user authentication prompt.
func (p Policy) RequiresAuthentication() bool {
	return p.flags&constraintMask != 0
}

// HardwareBacked reports whether the guarded key is resident in the
// device's secure element.
func (p Policy) HardwareBacked() bool {
	return p.flags.Has(PrivateKeyUsage)
}

// AuthenticationType classifies the user authentication this policy
// demands. Combined constraints report the broadest requirement.
func (p Policy) AuthenticationType() AuthenticationType {
	switch {
	case p.flags.Has(UserPresence):
		return AuthenticationBiometryOrPasscode
	case p.flags.Has(BiometryAny) && p.flags.Has(DevicePasscode) && p.flags.Has(Or):
		return AuthenticationBiometryOrPasscode
	case p.flags.Has(BiometryCurrentSet):
		return AuthenticationBiometryCurrentSet
	case p.flags.Has(BiometryAny):
		return AuthenticationBiometryAny
	case p.flags.Has(DevicePasscode):
		return AuthenticationDevicePasscode
	default:
		return AuthenticationNone
	}
}
