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

package attr

import (
	"bytes"
	"sort"

	"github.com/jeremyhahn/go-keychain-services/pkg/access"
	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

// Policy is re-exported so builders and dictionaries can carry access
// control policies without callers importing pkg/access separately.
type Policy = access.Policy

// Dictionary is an immutable set of typed attributes. Insertion order is
// irrelevant. The zero value is an empty dictionary.
type Dictionary struct {
	m map[Key]any
}

// Len returns the number of attributes.
func (d Dictionary) Len() int {
	return len(d.m)
}

// Has reports whether the key is present.
func (d Dictionary) Has(k Key) bool {
	_, ok := d.m[k]
	return ok
}

// Keys returns the present attribute keys in ascending order.
func (d Dictionary) Keys() []Key {
	keys := make([]Key, 0, len(d.m))
	for k := range d.m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// GetString returns the string value for k.
func (d Dictionary) GetString(k Key) (string, bool) {
	v, ok := d.m[k].(string)
	return v, ok
}

// GetBytes returns a copy of the byte value for k.
func (d Dictionary) GetBytes(k Key) ([]byte, bool) {
	v, ok := d.m[k].([]byte)
	if !ok {
		return nil, false
	}
	return cloneBytes(v), true
}

// GetInt returns the integer value for k.
func (d Dictionary) GetInt(k Key) (int, bool) {
	v, ok := d.m[k].(int)
	return v, ok
}

// GetUint64 returns the uint64 value for k.
func (d Dictionary) GetUint64(k Key) (uint64, bool) {
	v, ok := d.m[k].(uint64)
	return v, ok
}

// GetBool returns the boolean value for k.
func (d Dictionary) GetBool(k Key) (bool, bool) {
	v, ok := d.m[k].(bool)
	return v, ok
}

// GetPolicy returns the access control policy for k.
func (d Dictionary) GetPolicy(k Key) (Policy, bool) {
	v, ok := d.m[k].(Policy)
	return v, ok
}

// Class returns the object class attribute.
func (d Dictionary) Class() (types.Class, bool) {
	v, ok := d.m[KeyClass].(types.Class)
	return v, ok
}

// KeyClassAttr returns the key class attribute.
func (d Dictionary) KeyClassAttr() (types.KeyClass, bool) {
	v, ok := d.m[KeyKeyClass].(types.KeyClass)
	return v, ok
}

// KeyType returns the key type attribute.
func (d Dictionary) KeyType() (types.KeyType, bool) {
	v, ok := d.m[KeyKeyType].(types.KeyType)
	return v, ok
}

// KeySizeInBits returns the key size attribute.
func (d Dictionary) KeySizeInBits() (int, bool) {
	return d.GetInt(KeyKeySizeInBits)
}

// TokenID returns the token designation attribute.
func (d Dictionary) TokenID() (types.TokenID, bool) {
	v, ok := d.m[KeyTokenID].(types.TokenID)
	return v, ok
}

// Accessible returns the protection class attribute.
func (d Dictionary) Accessible() (types.Accessible, bool) {
	v, ok := d.m[KeyAccessible].(types.Accessible)
	return v, ok
}

// AccessControl returns the attached access control policy.
func (d Dictionary) AccessControl() (Policy, bool) {
	return d.GetPolicy(KeyAccessControl)
}

// MatchLimit returns the query result bound, defaulting to MatchLimitOne
// when absent, matching the provider's query default.
func (d Dictionary) MatchLimit() types.MatchLimit {
	if v, ok := d.m[KeyMatchLimit].(types.MatchLimit); ok {
		return v
	}
	return types.MatchLimitOne
}

// Value returns the raw value for k. Intended for providers that inspect
// dictionaries generically; the typed getters are preferred everywhere
// else. Byte values are returned without copying and must not be mutated.
func (d Dictionary) Value(k Key) (any, bool) {
	v, ok := d.m[k]
	return v, ok
}

// Without returns a dictionary with the given keys removed.
func (d Dictionary) Without(keys ...Key) Dictionary {
	m := make(map[Key]any, len(d.m))
	for k, v := range d.m {
		drop := false
		for _, skip := range keys {
			if k == skip {
				drop = true
				break
			}
		}
		if !drop {
			m[k] = v
		}
	}
	return Dictionary{m: m}
}

// Builder returns a new Builder seeded with this dictionary's attributes,
// for deriving a modified copy.
func (d Dictionary) Builder() *Builder {
	b := NewBuilder()
	for k, v := range d.m {
		b.m[k] = v
	}
	return b
}

// Equal reports whether two dictionaries hold the same attributes.
func (d Dictionary) Equal(other Dictionary) bool {
	if len(d.m) != len(other.m) {
		return false
	}
	for k, v := range d.m {
		ov, ok := other.m[k]
		if !ok {
			return false
		}
		if vb, isBytes := v.([]byte); isBytes {
			ob, okBytes := ov.([]byte)
			if !okBytes || !bytes.Equal(vb, ob) {
				return false
			}
			continue
		}
		if v != ov {
			return false
		}
	}
	return true
}
