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

package keychain

import (
	"github.com/jeremyhahn/go-keychain-services/pkg/attr"
	"github.com/jeremyhahn/go-keychain-services/pkg/ref"
	"github.com/jeremyhahn/go-keychain-services/pkg/status"
	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

// Item is an owned reference to a stored keychain item.
type Item struct {
	ref *ref.Ref[ref.Item]
}

// Release surrenders the reference. The item itself stays in the store;
// use DeleteItems to remove it.
func (i *Item) Release() error {
	return i.ref.Release()
}

// CreateItem stores a new item described by the attribute dictionary.
// The dictionary must carry an item class and that class's primary key
// attributes; storing an item whose primary key already exists in the
// target keychain fails with a DuplicateItem kind.
func (s *Service) CreateItem(attrs attr.Dictionary) (*Item, error) {
	h, st := s.p.CreateObject(attrs)
	if err := status.Translate(st, "create item"); err != nil {
		return nil, err
	}
	return &Item{ref: ref.Wrap[ref.Item](s.p, h)}, nil
}

// CreateGenericPassword stores a generic password for a service and
// account in the given keychain (nil for the default).
func (s *Service) CreateGenericPassword(k *Keychain, service, account string, password types.Password) (*Item, error) {
	s.log.Debug("creating generic password", "service", service, "account", account)

	b := attr.NewBuilder().
		SetClass(types.ClassGenericPassword).
		SetService(service).
		SetAccount(account)
	if password != nil {
		b.SetValueData(password.Bytes())
	}
	if err := scope(b, k); err != nil {
		return nil, err
	}
	return s.CreateItem(b.Build())
}

// CreateInternetPassword stores an internet password for a server and
// account in the given keychain (nil for the default).
func (s *Service) CreateInternetPassword(k *Keychain, server, account string, password types.Password) (*Item, error) {
	s.log.Debug("creating internet password", "server", server, "account", account)

	b := attr.NewBuilder().
		SetClass(types.ClassInternetPassword).
		SetServer(server).
		SetAccount(account)
	if password != nil {
		b.SetValueData(password.Bytes())
	}
	if err := scope(b, k); err != nil {
		return nil, err
	}
	return s.CreateItem(b.Build())
}

// FindGenericPassword finds the generic password stored for a service and
// account. Fails with an ItemNotFound kind when absent.
func (s *Service) FindGenericPassword(k *Keychain, service, account string) (*Item, error) {
	b := attr.NewBuilder().
		SetClass(types.ClassGenericPassword).
		SetService(service).
		SetAccount(account)
	if err := scope(b, k); err != nil {
		return nil, err
	}
	return s.FindItem(b.Build())
}

// FindInternetPassword finds the internet password stored for a server
// and account. Fails with an ItemNotFound kind when absent.
func (s *Service) FindInternetPassword(k *Keychain, server, account string) (*Item, error) {
	b := attr.NewBuilder().
		SetClass(types.ClassInternetPassword).
		SetServer(server).
		SetAccount(account)
	if err := scope(b, k); err != nil {
		return nil, err
	}
	return s.FindItem(b.Build())
}

// FindItem returns the single item matching the query, overriding any
// match limit in it. No match fails with an ItemNotFound kind.
func (s *Service) FindItem(query attr.Dictionary) (*Item, error) {
	one := query.Builder().SetMatchLimit(types.MatchLimitOne).Build()

	handles, st := s.p.CopyMatching(one)
	if err := status.Translate(st, "find item"); err != nil {
		return nil, err
	}
	if len(handles) == 0 {
		return nil, status.Translate(status.ErrSecItemNotFound, "find item")
	}
	return &Item{ref: ref.Wrap[ref.Item](s.p, handles[0])}, nil
}

// FindItems returns every item matching the query. No match is an empty
// slice, not an error.
func (s *Service) FindItems(query attr.Dictionary) ([]*Item, error) {
	all := query.Builder().SetMatchLimit(types.MatchLimitAll).Build()

	handles, st := s.p.CopyMatching(all)
	if err := status.Translate(st, "find items"); err != nil {
		return nil, err
	}

	items := make([]*Item, 0, len(handles))
	for _, h := range handles {
		items = append(items, &Item{ref: ref.Wrap[ref.Item](s.p, h)})
	}
	return items, nil
}

// ItemAttributes returns a point-in-time attribute snapshot of the item.
// The snapshot is advisory: the store may change after it is taken.
func (s *Service) ItemAttributes(i *Item) (attr.Dictionary, error) {
	h, err := i.ref.Handle()
	if err != nil {
		return attr.Dictionary{}, err
	}
	attrs, st := s.p.CopyAttributes(h)
	if err := status.Translate(st, "item attributes"); err != nil {
		return attr.Dictionary{}, err
	}
	return attrs, nil
}

// ItemData returns the item's secret payload.
func (s *Service) ItemData(i *Item) ([]byte, error) {
	attrs, err := s.ItemAttributes(i)
	if err != nil {
		return nil, err
	}
	data, ok := attrs.GetBytes(attr.KeyValueData)
	if !ok {
		return nil, status.Translate(status.ErrSecItemNotFound, "item data")
	}
	return data, nil
}

// DeleteItems removes every stored item matching the query and reports
// how many were removed. Zero is a successful outcome. Live references to
// removed items stay usable until released.
func (s *Service) DeleteItems(query attr.Dictionary) (int, error) {
	n, st := s.p.DeleteMatching(query)
	if err := status.Translate(st, "delete items"); err != nil {
		return 0, err
	}
	s.log.Debug("deleted items", "count", n)
	return n, nil
}
