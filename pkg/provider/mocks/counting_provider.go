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

package mocks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jeremyhahn/go-keychain-services/pkg/attr"
	"github.com/jeremyhahn/go-keychain-services/pkg/provider"
	"github.com/jeremyhahn/go-keychain-services/pkg/status"
)

// testingT is the subset of *testing.T used by AssertBalanced.
type testingT interface {
	Helper()
	Errorf(format string, args ...any)
}

// CountingProvider wraps a real provider and audits reference ownership:
// every handle handed out by a creating primitive must be balanced by
// exactly one Release, and no handle may be released below zero.
type CountingProvider struct {
	provider.Provider

	mu         sync.Mutex
	live       map[provider.Handle]int
	violations []string
}

// NewCountingProvider wraps the given provider.
func NewCountingProvider(p provider.Provider) *CountingProvider {
	return &CountingProvider{
		Provider: p,
		live:     make(map[provider.Handle]int),
	}
}

// credit records one caller-owned reference for the handle.
func (c *CountingProvider) credit(h provider.Handle) {
	if h == provider.NilHandle {
		return
	}
	c.mu.Lock()
	c.live[h]++
	c.mu.Unlock()
}

// Retain counts the extra reference and forwards to the wrapped provider.
func (c *CountingProvider) Retain(h provider.Handle) {
	c.credit(h)
	c.Provider.Retain(h)
}

// Release debits one reference and forwards to the wrapped provider.
// Releasing a handle with no outstanding references is a violation.
func (c *CountingProvider) Release(h provider.Handle) {
	c.mu.Lock()
	if c.live[h] <= 0 {
		c.violations = append(c.violations, fmt.Sprintf("over-release of handle %d", h))
	} else {
		c.live[h]--
	}
	c.mu.Unlock()
	c.Provider.Release(h)
}

// CreateObject forwards and credits the returned handle.
func (c *CountingProvider) CreateObject(attrs attr.Dictionary) (provider.Handle, status.OSStatus) {
	h, st := c.Provider.CreateObject(attrs)
	if st == status.Success {
		c.credit(h)
	}
	return h, st
}

// CopyMatching forwards and credits every returned handle.
func (c *CountingProvider) CopyMatching(query attr.Dictionary) ([]provider.Handle, status.OSStatus) {
	handles, st := c.Provider.CopyMatching(query)
	if st == status.Success {
		for _, h := range handles {
			c.credit(h)
		}
	}
	return handles, st
}

// GenerateKeyPair forwards and credits both returned handles.
func (c *CountingProvider) GenerateKeyPair(attrs attr.Dictionary) (provider.Handle, provider.Handle, status.OSStatus) {
	pub, priv, st := c.Provider.GenerateKeyPair(attrs)
	if st == status.Success {
		c.credit(pub)
		c.credit(priv)
	}
	return pub, priv, st
}

// ImportKey forwards and credits the returned handle.
func (c *CountingProvider) ImportKey(data []byte, attrs attr.Dictionary) (provider.Handle, status.OSStatus) {
	h, st := c.Provider.ImportKey(data, attrs)
	if st == status.Success {
		c.credit(h)
	}
	return h, st
}

// Leaked returns the handles that still carry unreleased references.
func (c *CountingProvider) Leaked() []provider.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	var leaked []provider.Handle
	for h, n := range c.live {
		if n > 0 {
			leaked = append(leaked, h)
		}
	}
	sort.Slice(leaked, func(i, j int) bool { return leaked[i] < leaked[j] })
	return leaked
}

// Violations returns the over-release reports collected so far.
func (c *CountingProvider) Violations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.violations...)
}

// AssertBalanced fails the test when any owned reference was leaked or
// over-released. Intended for use in a test cleanup function.
func (c *CountingProvider) AssertBalanced(t testingT) {
	t.Helper()

	for _, v := range c.Violations() {
		t.Errorf("reference violation: %s", v)
	}
	for _, h := range c.Leaked() {
		t.Errorf("leaked reference to handle %d", h)
	}
}

// Verify interface compliance
var _ provider.Provider = (*CountingProvider)(nil)
