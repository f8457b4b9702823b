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

// Package attr builds the typed attribute dictionaries the provider
// consumes for object creation and matching queries.
//
// Attribute keys are drawn from a fixed enumerated domain and each key
// accepts exactly one value type, enforced by the Builder's typed setter
// methods. Setting the same key twice replaces the earlier value, matching
// how the provider interprets duplicate dictionary entries. A Builder
// produces an immutable Dictionary; which attributes are required is
// decided by the operation consuming the dictionary, not here, since the
// required sets differ per operation.
package attr

import "github.com/jeremyhahn/go-keychain-services/pkg/types"

// Key is an attribute dictionary key.
type Key uint8

const (
	// KeyClass is the object class (types.Class).
	KeyClass Key = iota + 1

	// KeyService is the service name of a generic password item (string).
	KeyService

	// KeyAccount is the account name of a password item (string).
	KeyAccount

	// KeyServer is the server name of an internet password item (string).
	KeyServer

	// KeyLabel is a human-meaningful label (string).
	KeyLabel

	// KeyApplicationLabel identifies a key pair, typically the hash of
	// the public key ([]byte). Both halves of a pair share it.
	KeyApplicationLabel

	// KeyApplicationTag is private application-specific data used as the
	// primary lookup key for keys ([]byte).
	KeyApplicationTag

	// KeyKeyClass distinguishes public/private/symmetric (types.KeyClass).
	KeyKeyClass

	// KeyKeyType is the key algorithm family (types.KeyType).
	KeyKeyType

	// KeyKeySizeInBits is the key size in bits (int).
	KeyKeySizeInBits

	// KeyTokenID designates an external token (types.TokenID).
	KeyTokenID

	// KeyIsPermanent marks an object as stored persistently (bool).
	KeyIsPermanent

	// KeySynchronizable marks an object as device-synchronizable (bool).
	KeySynchronizable

	// KeyAccessControl is the access control policy (access.Policy,
	// carried opaquely; see Builder.SetAccessControl).
	KeyAccessControl

	// KeyAccessible is the protection class (types.Accessible).
	KeyAccessible

	// KeyValueData is the secret payload of an item ([]byte).
	KeyValueData

	// KeyMatchLimit bounds query results (types.MatchLimit).
	KeyMatchLimit

	// KeyPath locates a keychain container on disk (string).
	KeyPath

	// KeyUseKeychain scopes an operation to a keychain, by provider
	// object identifier (uint64).
	KeyUseKeychain

	// KeyUseOperationPrompt customizes the authentication prompt shown
	// when a guarded object is used (string).
	KeyUseOperationPrompt
)

// String returns the attribute key name for diagnostics.
func (k Key) String() string {
	switch k {
	case KeyClass:
		return "class"
	case KeyService:
		return "service"
	case KeyAccount:
		return "account"
	case KeyServer:
		return "server"
	case KeyLabel:
		return "label"
	case KeyApplicationLabel:
		return "application-label"
	case KeyApplicationTag:
		return "application-tag"
	case KeyKeyClass:
		return "key-class"
	case KeyKeyType:
		return "key-type"
	case KeyKeySizeInBits:
		return "key-size-in-bits"
	case KeyTokenID:
		return "token-id"
	case KeyIsPermanent:
		return "is-permanent"
	case KeySynchronizable:
		return "synchronizable"
	case KeyAccessControl:
		return "access-control"
	case KeyAccessible:
		return "accessible"
	case KeyValueData:
		return "value-data"
	case KeyMatchLimit:
		return "match-limit"
	case KeyPath:
		return "path"
	case KeyUseKeychain:
		return "use-keychain"
	case KeyUseOperationPrompt:
		return "use-operation-prompt"
	default:
		return "invalid"
	}
}

// Builder accumulates typed attribute values. The zero value is ready to
// use. Builders are not safe for concurrent use.
type Builder struct {
	m map[Key]any
}

// NewBuilder returns an empty attribute dictionary builder.
func NewBuilder() *Builder {
	return &Builder{m: make(map[Key]any)}
}

func (b *Builder) set(k Key, v any) *Builder {
	if b.m == nil {
		b.m = make(map[Key]any)
	}
	b.m[k] = v
	return b
}

// SetClass sets the object class.
func (b *Builder) SetClass(c types.Class) *Builder {
	return b.set(KeyClass, c)
}

// SetService sets the service name of a generic password item.
func (b *Builder) SetService(s string) *Builder {
	return b.set(KeyService, s)
}

// SetAccount sets the account name of a password item.
func (b *Builder) SetAccount(s string) *Builder {
	return b.set(KeyAccount, s)
}

// SetServer sets the server name of an internet password item.
func (b *Builder) SetServer(s string) *Builder {
	return b.set(KeyServer, s)
}

// SetLabel sets the human-meaningful label.
func (b *Builder) SetLabel(s string) *Builder {
	return b.set(KeyLabel, s)
}

// SetApplicationLabel sets the key pair identifier.
func (b *Builder) SetApplicationLabel(v []byte) *Builder {
	return b.set(KeyApplicationLabel, cloneBytes(v))
}

// SetApplicationTag sets the application-specific tag.
func (b *Builder) SetApplicationTag(v []byte) *Builder {
	return b.set(KeyApplicationTag, cloneBytes(v))
}

// SetKeyClass sets the key class.
func (b *Builder) SetKeyClass(kc types.KeyClass) *Builder {
	return b.set(KeyKeyClass, kc)
}

// SetKeyType sets the key algorithm family.
func (b *Builder) SetKeyType(kt types.KeyType) *Builder {
	return b.set(KeyKeyType, kt)
}

// SetKeySizeInBits sets the key size.
func (b *Builder) SetKeySizeInBits(bits int) *Builder {
	return b.set(KeyKeySizeInBits, bits)
}

// SetTokenID designates an external token as the key's home.
func (b *Builder) SetTokenID(id types.TokenID) *Builder {
	return b.set(KeyTokenID, id)
}

// SetPermanent marks the object as stored persistently.
func (b *Builder) SetPermanent(v bool) *Builder {
	return b.set(KeyIsPermanent, v)
}

// SetSynchronizable marks the object as device-synchronizable.
func (b *Builder) SetSynchronizable(v bool) *Builder {
	return b.set(KeySynchronizable, v)
}

// SetAccessControl attaches an access control policy. The policy value is
// stored as supplied; policies are immutable so no copy is needed.
func (b *Builder) SetAccessControl(p Policy) *Builder {
	return b.set(KeyAccessControl, p)
}

// SetAccessible sets the protection class.
func (b *Builder) SetAccessible(a types.Accessible) *Builder {
	return b.set(KeyAccessible, a)
}

// SetValueData sets the secret payload of an item.
func (b *Builder) SetValueData(v []byte) *Builder {
	return b.set(KeyValueData, cloneBytes(v))
}

// SetMatchLimit bounds the number of query results.
func (b *Builder) SetMatchLimit(l types.MatchLimit) *Builder {
	return b.set(KeyMatchLimit, l)
}

// SetPath sets the on-disk location of a keychain container.
func (b *Builder) SetPath(p string) *Builder {
	return b.set(KeyPath, p)
}

// SetUseKeychain scopes the operation to the keychain with the given
// provider object identifier.
func (b *Builder) SetUseKeychain(id uint64) *Builder {
	return b.set(KeyUseKeychain, id)
}

// SetUseOperationPrompt customizes the authentication prompt message.
func (b *Builder) SetUseOperationPrompt(msg string) *Builder {
	return b.set(KeyUseOperationPrompt, msg)
}

// Build produces an immutable Dictionary snapshot of the accumulated
// attributes. The builder remains usable; later mutations do not affect
// dictionaries already built.
func (b *Builder) Build() Dictionary {
	m := make(map[Key]any, len(b.m))
	for k, v := range b.m {
		m[k] = v
	}
	return Dictionary{m: m}
}

func cloneBytes(v []byte) []byte {
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
