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

// Package status translates the provider's native status codes into a
// closed error taxonomy.
//
// The provider signals failures through an integer status domain. Rather
// than forcing callers to branch on raw integers, every status is mapped to
// one of a small set of error kinds. Codes without a mapping produce
// KindUnknown and always retain the original status for diagnosis; no code
// is ever dropped and translation never panics.
package status

import "fmt"

// OSStatus is a native provider status code. Zero means success; the
// remaining values are defined entirely by the provider.
type OSStatus int32

// Status codes recognized by the translator. The mapping table is fixed;
// every other code translates to KindUnknown with the raw value preserved.
const (
	// Success indicates the operation completed without error.
	Success OSStatus = 0

	// ErrSecUnimplemented indicates the function is not implemented.
	ErrSecUnimplemented OSStatus = -4

	// ErrSecParam indicates one or more parameters were invalid.
	ErrSecParam OSStatus = -50

	// ErrSecUserCanceled indicates the user canceled an authentication
	// prompt.
	ErrSecUserCanceled OSStatus = -128

	// ErrSecAuthFailed indicates authentication or authorization failed.
	ErrSecAuthFailed OSStatus = -25293

	// ErrSecNoSuchKeychain indicates the specified keychain could not
	// be found.
	ErrSecNoSuchKeychain OSStatus = -25294

	// ErrSecInvalidKeychain indicates the keychain reference is invalid.
	ErrSecInvalidKeychain OSStatus = -25295

	// ErrSecDuplicateKeychain indicates a keychain already exists at the
	// target location.
	ErrSecDuplicateKeychain OSStatus = -25296

	// ErrSecDuplicateItem indicates an item with the same primary key
	// attributes already exists.
	ErrSecDuplicateItem OSStatus = -25299

	// ErrSecItemNotFound indicates no item matched the query.
	ErrSecItemNotFound OSStatus = -25300

	// ErrSecInvalidItemRef indicates the item reference is invalid.
	ErrSecInvalidItemRef OSStatus = -25304

	// ErrSecInteractionNotAllowed indicates user interaction was required
	// but is not permitted in this context.
	ErrSecInteractionNotAllowed OSStatus = -25308

	// ErrSecKeySizeNotAllowed indicates the key size is not supported.
	ErrSecKeySizeNotAllowed OSStatus = -25311

	// ErrSecDecode indicates the data could not be decoded.
	ErrSecDecode OSStatus = -26275

	// ErrSecMissingEntitlement indicates the calling process lacks the
	// entitlement required for the operation (e.g. the process is
	// unsigned, or the key is hardware-resident and not extractable).
	ErrSecMissingEntitlement OSStatus = -34018
)

// Kind classifies an error within the closed taxonomy.
type Kind uint8

const (
	// KindUnknown covers status codes without a fixed mapping.
	KindUnknown Kind = iota

	// KindItemNotFound indicates no object matched the query.
	KindItemNotFound

	// KindDuplicateItem indicates an object with the same primary key
	// attributes already exists.
	KindDuplicateItem

	// KindMissingEntitlement indicates the process is not entitled to
	// perform the operation.
	KindMissingEntitlement

	// KindAuthenticationFailed indicates an access control policy
	// evaluation failed.
	KindAuthenticationFailed

	// KindUserCanceled indicates the user dismissed an authentication
	// prompt.
	KindUserCanceled

	// KindInvalidParameter indicates a malformed request: bad attribute
	// values, unsupported key type/size, incompatible algorithm or an
	// invalid object reference.
	KindInvalidParameter

	// KindUnimplemented indicates the provider does not implement the
	// requested operation.
	KindUnimplemented
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindItemNotFound:
		return "ItemNotFound"
	case KindDuplicateItem:
		return "DuplicateItem"
	case KindMissingEntitlement:
		return "MissingEntitlement"
	case KindAuthenticationFailed:
		return "AuthenticationFailed"
	case KindUserCanceled:
		return "UserCanceled"
	case KindInvalidParameter:
		return "InvalidParameter"
	case KindUnimplemented:
		return "Unimplemented"
	default:
		return "Unknown"
	}
}

// Sentinel errors for use with errors.Is. Matching is by Kind only, so a
// translated error with any status code of a given kind matches its
// sentinel.
var (
	ErrItemNotFound         = &Error{Kind: KindItemNotFound, Status: ErrSecItemNotFound}
	ErrDuplicateItem        = &Error{Kind: KindDuplicateItem, Status: ErrSecDuplicateItem}
	ErrMissingEntitlement   = &Error{Kind: KindMissingEntitlement, Status: ErrSecMissingEntitlement}
	ErrAuthenticationFailed = &Error{Kind: KindAuthenticationFailed, Status: ErrSecAuthFailed}
	ErrUserCanceled         = &Error{Kind: KindUserCanceled, Status: ErrSecUserCanceled}
	ErrInvalidParameter     = &Error{Kind: KindInvalidParameter, Status: ErrSecParam}
	ErrUnimplemented        = &Error{Kind: KindUnimplemented, Status: ErrSecUnimplemented}
)

// Error is a translated provider failure. Immutable once produced.
type Error struct {
	// Kind is the taxonomy classification.
	Kind Kind

	// Status is the raw native status code that produced this error.
	Status OSStatus

	// Context describes the operation that failed.
	Context string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("%s (status %d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Context, e.Kind, e.Status)
}

// Is reports whether target is a status error of the same kind, making
// errors.Is(err, status.ErrItemNotFound) work regardless of the raw code
// or context carried by err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the taxonomy kind for a native status code.
func KindOf(st OSStatus) Kind {
	switch st {
	case ErrSecItemNotFound, ErrSecNoSuchKeychain:
		return KindItemNotFound
	case ErrSecDuplicateItem, ErrSecDuplicateKeychain:
		return KindDuplicateItem
	case ErrSecMissingEntitlement:
		return KindMissingEntitlement
	case ErrSecAuthFailed, ErrSecInteractionNotAllowed:
		return KindAuthenticationFailed
	case ErrSecUserCanceled:
		return KindUserCanceled
	case ErrSecParam, ErrSecKeySizeNotAllowed, ErrSecInvalidItemRef,
		ErrSecInvalidKeychain, ErrSecDecode:
		return KindInvalidParameter
	case ErrSecUnimplemented:
		return KindUnimplemented
	default:
		return KindUnknown
	}
}

// Translate converts a native status code into an error, or nil for
// Success. The context string describes the failed operation and is
// carried verbatim on the resulting error.
func Translate(st OSStatus, context string) error {
	if st == Success {
		return nil
	}
	return &Error{Kind: KindOf(st), Status: st, Context: context}
}
