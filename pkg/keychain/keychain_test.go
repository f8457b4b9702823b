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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-keychain-services/internal/password"
	"github.com/jeremyhahn/go-keychain-services/pkg/attr"
	"github.com/jeremyhahn/go-keychain-services/pkg/keychain"
	"github.com/jeremyhahn/go-keychain-services/pkg/provider/mocks"
	"github.com/jeremyhahn/go-keychain-services/pkg/provider/software"
	"github.com/jeremyhahn/go-keychain-services/pkg/ref"
	"github.com/jeremyhahn/go-keychain-services/pkg/status"
	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

// newTestService builds a service over the software provider, wrapped in
// a counting provider that fails the test on leaked or over-released
// references at cleanup.
func newTestService(t *testing.T, opts ...software.Option) *keychain.Service {
	t.Helper()
	cp := mocks.NewCountingProvider(software.New(opts...))
	t.Cleanup(func() { cp.AssertBalanced(t) })
	return keychain.New(cp)
}

func testPassword(t *testing.T, s string) types.Password {
	t.Helper()
	p, err := password.NewClearPasswordFromString(s)
	require.NoError(t, err)
	return p
}

func TestCreateKeychain(t *testing.T) {
	svc := newTestService(t)

	kc, err := svc.CreateKeychain("work.keychain", testPassword(t, "hunter2"))
	require.NoError(t, err)
	assert.Equal(t, "work.keychain", kc.Path())

	_, err = svc.CreateKeychain("work.keychain", testPassword(t, "other"))
	assert.ErrorIs(t, err, status.ErrDuplicateItem)

	require.NoError(t, kc.Release())
}

func TestDefaultKeychain(t *testing.T) {
	svc := newTestService(t)

	kc, err := svc.DefaultKeychain()
	require.NoError(t, err)
	assert.Equal(t, software.DefaultKeychainPath, kc.Path())
	require.NoError(t, kc.Release())
}

func TestDeleteKeychainConsumesReference(t *testing.T) {
	svc := newTestService(t)

	kc, err := svc.CreateKeychain("scratch.keychain", testPassword(t, "pw"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteKeychain(kc))

	// The reference was consumed; further use is a local error.
	assert.ErrorIs(t, kc.Release(), ref.ErrReleased)

	_, err = svc.OpenKeychain("scratch.keychain")
	assert.ErrorIs(t, err, status.ErrItemNotFound)
}

func TestGenericPasswordRoundTrip(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.CreateGenericPassword(nil, "example.com", "alice", testPassword(t, "s3cret"))
	require.NoError(t, err)

	found, err := svc.FindGenericPassword(nil, "example.com", "alice")
	require.NoError(t, err)

	data, err := svc.ItemData(found)
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), data)

	attrs, err := svc.ItemAttributes(found)
	require.NoError(t, err)
	service, _ := attrs.GetString(attr.KeyService)
	assert.Equal(t, "example.com", service)
	account, _ := attrs.GetString(attr.KeyAccount)
	assert.Equal(t, "alice", account)

	require.NoError(t, created.Release())
	require.NoError(t, found.Release())
}

func TestDuplicateItemRejected(t *testing.T) {
	svc := newTestService(t)

	item, err := svc.CreateGenericPassword(nil, "svc", "alice", testPassword(t, "pw"))
	require.NoError(t, err)
	defer func() { require.NoError(t, item.Release()) }()

	_, err = svc.CreateGenericPassword(nil, "svc", "alice", testPassword(t, "other"))
	assert.ErrorIs(t, err, status.ErrDuplicateItem)
}

func TestInternetPasswordRoundTrip(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.CreateInternetPassword(nil, "mail.example.com", "bob", testPassword(t, "imap-pass"))
	require.NoError(t, err)

	found, err := svc.FindInternetPassword(nil, "mail.example.com", "bob")
	require.NoError(t, err)

	data, err := svc.ItemData(found)
	require.NoError(t, err)
	assert.Equal(t, []byte("imap-pass"), data)

	require.NoError(t, created.Release())
	require.NoError(t, found.Release())
}

func TestFindItemNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.FindGenericPassword(nil, "absent", "nobody")
	assert.ErrorIs(t, err, status.ErrItemNotFound)

	// An unbounded query with no match is empty, not an error.
	items, err := svc.FindItems(attr.NewBuilder().
		SetClass(types.ClassGenericPassword).
		SetService("absent").
		Build())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestItemsScopedToKeychain(t *testing.T) {
	svc := newTestService(t)

	kc, err := svc.CreateKeychain("scoped.keychain", testPassword(t, "pw"))
	require.NoError(t, err)

	item, err := svc.CreateGenericPassword(kc, "svc", "alice", testPassword(t, "pw"))
	require.NoError(t, err)
	require.NoError(t, item.Release())

	// Present in the scoped keychain, absent in the default.
	found, err := svc.FindGenericPassword(kc, "svc", "alice")
	require.NoError(t, err)
	require.NoError(t, found.Release())

	_, err = svc.FindGenericPassword(nil, "svc", "alice")
	assert.ErrorIs(t, err, status.ErrItemNotFound)

	// Deleting the keychain removes its contents.
	require.NoError(t, svc.DeleteKeychain(kc))
	_, err = svc.FindItem(attr.NewBuilder().
		SetClass(types.ClassGenericPassword).
		SetService("svc").
		SetAccount("alice").
		Build())
	assert.ErrorIs(t, err, status.ErrItemNotFound)
}

func TestScopedQuery(t *testing.T) {
	svc := newTestService(t)

	kc, err := svc.CreateKeychain("scope-query.keychain", testPassword(t, "pw"))
	require.NoError(t, err)

	item, err := svc.CreateGenericPassword(kc, "svc", "alice", testPassword(t, "pw"))
	require.NoError(t, err)
	require.NoError(t, item.Release())

	query := attr.NewBuilder().
		SetClass(types.ClassGenericPassword).
		SetService("svc").
		Build()

	// The raw query searches the default keychain and finds nothing.
	items, err := svc.FindItems(query)
	require.NoError(t, err)
	assert.Empty(t, items)

	// Bound to the keychain it finds the item.
	scoped, err := kc.Scope(query)
	require.NoError(t, err)
	items, err = svc.FindItems(scoped)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NoError(t, items[0].Release())

	n, err := svc.DeleteItems(scoped)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, svc.DeleteKeychain(kc))

	// A scope built from a released keychain is rejected.
	_, err = kc.Scope(query)
	assert.ErrorIs(t, err, ref.ErrReleased)
}

func TestDeleteItems(t *testing.T) {
	svc := newTestService(t)

	for _, account := range []string{"alice", "bob"} {
		item, err := svc.CreateGenericPassword(nil, "shared", account, testPassword(t, "pw"))
		require.NoError(t, err)
		require.NoError(t, item.Release())
	}

	query := attr.NewBuilder().
		SetClass(types.ClassGenericPassword).
		SetService("shared").
		Build()

	n, err := svc.DeleteItems(query)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Deleting nothing is a successful zero.
	n, err = svc.DeleteItems(query)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestItemUseAfterRelease(t *testing.T) {
	svc := newTestService(t)

	item, err := svc.CreateGenericPassword(nil, "svc", "alice", testPassword(t, "pw"))
	require.NoError(t, err)
	require.NoError(t, item.Release())

	_, err = svc.ItemData(item)
	assert.ErrorIs(t, err, ref.ErrReleased)
	assert.ErrorIs(t, item.Release(), ref.ErrReleased)
}
