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

// Package software implements the provider contract entirely in process.
//
// It keeps keychains, items and keys in an in-memory object table and
// performs real cryptography with the Go standard library, making the rest
// of the module usable and testable on platforms without a native secure
// store. Reference counting, duplicate detection, match limits, key export
// restrictions and access-control-gated operations behave like the native
// provider they stand in for; authentication prompts are simulated through
// a pluggable Authenticator hook.
//
// Thread-safe: all state is guarded by a single mutex.
package software

import (
	"bytes"
	"crypto"
	"sync"

	"github.com/jeremyhahn/go-keychain-services/pkg/access"
	"github.com/jeremyhahn/go-keychain-services/pkg/attr"
	"github.com/jeremyhahn/go-keychain-services/pkg/provider"
	"github.com/jeremyhahn/go-keychain-services/pkg/status"
	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

// DefaultKeychainPath is the location of the implicit default keychain
// created when the provider starts.
const DefaultKeychainPath = "login.keychain"

// Decision is the outcome of a simulated authentication prompt.
type Decision int

const (
	// Allow resumes the gated operation.
	Allow Decision = iota

	// Deny fails the gated operation with an authentication failure.
	Deny

	// Cancel fails the gated operation as canceled by the user.
	Cancel
)

// Authenticator resolves a simulated authentication prompt for an
// operation gated by an access control policy. It is invoked once per
// gated operation; authentication state is never cached.
type Authenticator func(policy access.Policy, operation string) Decision

// object is one entry in the provider's object table. An object stays in
// the table while it has live references or remains in persistent storage
// (stored). Destroying or deleting an object unstores it; the table entry
// lingers until the last reference is released.
type object struct {
	class    types.Class
	attrs    attr.Dictionary
	refs     int
	stored   bool
	keychain provider.Handle // owning keychain for items and keys
	path     string          // keychains only
	priv     crypto.PrivateKey
	pub      crypto.PublicKey
}

// SoftwareProvider is an in-process provider implementation.
type SoftwareProvider struct {
	mu           sync.Mutex
	next         provider.Handle
	objects      map[provider.Handle]*object
	defaultChain provider.Handle
	authenticate Authenticator
}

var _ provider.Provider = (*SoftwareProvider)(nil)

// Option configures a SoftwareProvider.
type Option func(*SoftwareProvider)

// WithAuthenticator installs the hook that resolves simulated
// authentication prompts. The default allows every prompt.
func WithAuthenticator(a Authenticator) Option {
	return func(p *SoftwareProvider) {
		p.authenticate = a
	}
}

// New creates a software provider with an implicit default keychain.
func New(opts ...Option) *SoftwareProvider {
	p := &SoftwareProvider{
		objects:      make(map[provider.Handle]*object),
		authenticate: func(access.Policy, string) Decision { return Allow },
	}
	for _, opt := range opts {
		opt(p)
	}

	attrs := attr.NewBuilder().
		SetClass(types.ClassKeychain).
		SetPath(DefaultKeychainPath).
		Build()
	// The provider itself holds the default keychain open.
	p.defaultChain = p.insert(&object{
		class:  types.ClassKeychain,
		attrs:  attrs,
		path:   DefaultKeychainPath,
		stored: true,
		refs:   1,
	})
	return p
}

// insert allocates a handle for the object. Caller holds the lock (or,
// during New, exclusive access).
func (p *SoftwareProvider) insert(o *object) provider.Handle {
	p.next++
	p.objects[p.next] = o
	return p.next
}

// Retain adds one reference to the object. Unknown handles are ignored,
// matching the native provider's tolerance for stale references.
func (p *SoftwareProvider) Retain(h provider.Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if o, ok := p.objects[h]; ok {
		o.refs++
	}
}

// Release removes one reference. The table entry is reclaimed once the
// object has no references and is no longer stored.
func (p *SoftwareProvider) Release(h provider.Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.objects[h]
	if !ok {
		return
	}
	if o.refs > 0 {
		o.refs--
	}
	if o.refs == 0 && !o.stored {
		delete(p.objects, h)
	}
}

// CreateObject creates a keychain container or password item.
func (p *SoftwareProvider) CreateObject(attrs attr.Dictionary) (provider.Handle, status.OSStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	class, ok := attrs.Class()
	if !ok {
		return provider.NilHandle, status.ErrSecParam
	}

	switch class {
	case types.ClassKeychain:
		return p.createKeychain(attrs)
	case types.ClassGenericPassword, types.ClassInternetPassword:
		return p.createItem(class, attrs)
	case types.ClassKey:
		// Keys enter through GenerateKeyPair and ImportKey.
		return provider.NilHandle, status.ErrSecParam
	default:
		return provider.NilHandle, status.ErrSecUnimplemented
	}
}

func (p *SoftwareProvider) createKeychain(attrs attr.Dictionary) (provider.Handle, status.OSStatus) {
	path, ok := attrs.GetString(attr.KeyPath)
	if !ok || path == "" {
		return provider.NilHandle, status.ErrSecParam
	}
	for _, o := range p.objects {
		if o.class == types.ClassKeychain && o.stored && o.path == path {
			return provider.NilHandle, status.ErrSecDuplicateKeychain
		}
	}

	// The keychain password is consumed at creation and is not part of
	// the object's visible attributes.
	snapshot := attrs.Without(attr.KeyValueData, attr.KeyMatchLimit)

	h := p.insert(&object{
		class:  types.ClassKeychain,
		attrs:  snapshot,
		path:   path,
		stored: true,
		refs:   1,
	})
	return h, status.Success
}

func (p *SoftwareProvider) createItem(class types.Class, attrs attr.Dictionary) (provider.Handle, status.OSStatus) {
	if account, ok := attrs.GetString(attr.KeyAccount); !ok || account == "" {
		return provider.NilHandle, status.ErrSecParam
	}
	primary := attr.KeyService
	if class == types.ClassInternetPassword {
		primary = attr.KeyServer
	}
	if v, ok := attrs.GetString(primary); !ok || v == "" {
		return provider.NilHandle, status.ErrSecParam
	}

	chain, st := p.resolveKeychain(attrs)
	if st != status.Success {
		return provider.NilHandle, st
	}

	// Primary key: class + service/server + account, within one keychain.
	for _, o := range p.objects {
		if o.class == class && o.stored && o.keychain == chain &&
			sameString(o.attrs, attrs, primary) && sameString(o.attrs, attrs, attr.KeyAccount) {
			return provider.NilHandle, status.ErrSecDuplicateItem
		}
	}

	snapshot := attrs.Without(attr.KeyUseKeychain, attr.KeyMatchLimit)
	h := p.insert(&object{
		class:    class,
		attrs:    snapshot,
		keychain: chain,
		stored:   true,
		refs:     1,
	})
	return h, status.Success
}

// resolveKeychain maps the optional use-keychain attribute to a keychain
// handle, defaulting to the implicit default keychain. Caller holds the
// lock.
func (p *SoftwareProvider) resolveKeychain(attrs attr.Dictionary) (provider.Handle, status.OSStatus) {
	id, ok := attrs.GetUint64(attr.KeyUseKeychain)
	if !ok {
		return p.defaultChain, status.Success
	}
	h := provider.Handle(id)
	o, found := p.objects[h]
	if !found || o.class != types.ClassKeychain || !o.stored {
		return provider.NilHandle, status.ErrSecInvalidKeychain
	}
	return h, status.Success
}

func sameString(a, b attr.Dictionary, k attr.Key) bool {
	av, _ := a.GetString(k)
	bv, _ := b.GetString(k)
	return av == bv
}

// CopyMatching returns owned handles for stored objects matching the
// query. Keychain queries without a path match the default keychain.
func (p *SoftwareProvider) CopyMatching(query attr.Dictionary) ([]provider.Handle, status.OSStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	matches, st := p.match(query)
	if st != status.Success {
		return nil, st
	}

	limit := query.MatchLimit()
	if len(matches) == 0 {
		if limit == types.MatchLimitOne {
			return nil, status.ErrSecItemNotFound
		}
		return nil, status.Success
	}
	if limit != types.MatchLimitAll && len(matches) > int(limit) {
		matches = matches[:limit]
	}

	for _, h := range matches {
		p.objects[h].refs++
	}
	return matches, status.Success
}

// DeleteMatching removes every stored object matching the query. Live
// references to removed objects stay valid until released; the objects
// are simply no longer stored.
func (p *SoftwareProvider) DeleteMatching(query attr.Dictionary) (int, status.OSStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	matches, st := p.match(query)
	if st != status.Success {
		return 0, st
	}
	for _, h := range matches {
		p.unstore(h)
	}
	return len(matches), status.Success
}

// DestroyObject removes one object from persistent storage. Destroying a
// keychain also removes everything stored in it. The default keychain
// cannot be destroyed.
func (p *SoftwareProvider) DestroyObject(h provider.Handle) status.OSStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.objects[h]
	if !ok {
		return status.ErrSecInvalidItemRef
	}
	if o.class == types.ClassKeychain && h == p.defaultChain {
		return status.ErrSecParam
	}
	p.unstore(h)
	return status.Success
}

// unstore removes the object (and, for keychains, its contents) from
// persistent storage. Caller holds the lock.
func (p *SoftwareProvider) unstore(h provider.Handle) {
	o, ok := p.objects[h]
	if !ok {
		return
	}
	if o.class == types.ClassKeychain {
		for ch, co := range p.objects {
			if co.keychain == h && co.stored {
				co.stored = false
				if co.refs == 0 {
					delete(p.objects, ch)
				}
			}
		}
	}
	o.stored = false
	if o.refs == 0 {
		delete(p.objects, h)
	}
}

// CopyAttributes returns the object's attribute snapshot.
func (p *SoftwareProvider) CopyAttributes(h provider.Handle) (attr.Dictionary, status.OSStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, ok := p.objects[h]
	if !ok {
		return attr.Dictionary{}, status.ErrSecInvalidItemRef
	}
	return o.attrs, status.Success
}

// match collects stored objects matching the query in handle order.
// Caller holds the lock.
func (p *SoftwareProvider) match(query attr.Dictionary) ([]provider.Handle, status.OSStatus) {
	class, ok := query.Class()
	if !ok {
		return nil, status.ErrSecParam
	}

	var scope provider.Handle
	if class != types.ClassKeychain {
		var st status.OSStatus
		scope, st = p.resolveKeychain(query)
		if st != status.Success {
			return nil, st
		}
	}

	var matches []provider.Handle
	for h := provider.Handle(1); h <= p.next; h++ {
		o, ok := p.objects[h]
		if !ok || !o.stored || o.class != class {
			continue
		}
		if class == types.ClassKeychain {
			if path, ok := query.GetString(attr.KeyPath); ok {
				if o.path != path {
					continue
				}
			} else if h != p.defaultChain {
				continue
			}
		} else if o.keychain != scope {
			continue
		}
		if !attributesMatch(o.attrs, query) {
			continue
		}
		matches = append(matches, h)
	}
	return matches, status.Success
}

// matchKeys are the attributes compared between a query and stored
// objects. Control attributes (match limit, prompts, keychain scope) and
// the class/path handling above are excluded.
var matchKeys = []attr.Key{
	attr.KeyService,
	attr.KeyAccount,
	attr.KeyServer,
	attr.KeyLabel,
	attr.KeyApplicationLabel,
	attr.KeyApplicationTag,
	attr.KeyKeyClass,
	attr.KeyKeyType,
	attr.KeyKeySizeInBits,
	attr.KeyTokenID,
	attr.KeySynchronizable,
}

func attributesMatch(stored, query attr.Dictionary) bool {
	for _, k := range matchKeys {
		want, ok := query.Value(k)
		if !ok {
			continue
		}
		have, ok := stored.Value(k)
		if !ok || !valuesEqual(have, want) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if ab, ok := a.([]byte); ok {
		bb, ok := b.([]byte)
		return ok && bytes.Equal(ab, bb)
	}
	return a == b
}
