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

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keychain-services/internal/password"
	"github.com/jeremyhahn/go-keychain-services/pkg/attr"
	"github.com/jeremyhahn/go-keychain-services/pkg/keychain"
	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

// itemCmd represents the item command
var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage password items",
	Long:  `Add, retrieve and delete generic and internet password items`,
}

// itemAddCmd stores a password item
var itemAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a password item",
	Long:  `Store a generic password (--service) or internet password (--server)`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(outputFormat, os.Stdout)

		service, _ := cmd.Flags().GetString("service")
		server, _ := cmd.Flags().GetString("server")
		account, _ := cmd.Flags().GetString("account")

		if (service == "") == (server == "") {
			handleError(fmt.Errorf("exactly one of --service or --server is required"))
			return
		}

		s, err := newSession()
		if err != nil {
			handleError(err)
			return
		}

		pw, err := password.Prompt("Item password: ")
		if err != nil {
			handleError(fmt.Errorf("failed to read password: %w", err))
			return
		}
		defer pw.Clear()

		var item *keychain.Item
		if service != "" {
			item, err = s.svc.CreateGenericPassword(s.keychain, service, account, pw)
		} else {
			item, err = s.svc.CreateInternetPassword(s.keychain, server, account, pw)
		}
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = item.Release() }()

		_ = printer.PrintMessage(fmt.Sprintf("Stored password for %s", account))
	},
}

// itemGetCmd retrieves a password item
var itemGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Retrieve a password item",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(outputFormat, os.Stdout)

		service, _ := cmd.Flags().GetString("service")
		server, _ := cmd.Flags().GetString("server")
		account, _ := cmd.Flags().GetString("account")
		showData, _ := cmd.Flags().GetBool("show-data")

		if (service == "") == (server == "") {
			handleError(fmt.Errorf("exactly one of --service or --server is required"))
			return
		}

		s, err := newSession()
		if err != nil {
			handleError(err)
			return
		}

		var item *keychain.Item
		if service != "" {
			item, err = s.svc.FindGenericPassword(s.keychain, service, account)
		} else {
			item, err = s.svc.FindInternetPassword(s.keychain, server, account)
		}
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = item.Release() }()

		attrs, err := s.svc.ItemAttributes(item)
		if err != nil {
			handleError(err)
			return
		}

		var data []byte
		if showData {
			data, err = s.svc.ItemData(item)
			if err != nil {
				handleError(err)
				return
			}
		}
		_ = printer.PrintItem(attrs, data)
	},
}

// itemDeleteCmd deletes password items
var itemDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete password items matching the given attributes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(outputFormat, os.Stdout)

		service, _ := cmd.Flags().GetString("service")
		server, _ := cmd.Flags().GetString("server")
		account, _ := cmd.Flags().GetString("account")

		if (service == "") == (server == "") {
			handleError(fmt.Errorf("exactly one of --service or --server is required"))
			return
		}

		s, err := newSession()
		if err != nil {
			handleError(err)
			return
		}

		b := attr.NewBuilder()
		if service != "" {
			b.SetClass(types.ClassGenericPassword).SetService(service)
		} else {
			b.SetClass(types.ClassInternetPassword).SetServer(server)
		}
		if account != "" {
			b.SetAccount(account)
		}

		query, err := s.scoped(b.Build())
		if err != nil {
			handleError(err)
			return
		}
		n, err := s.svc.DeleteItems(query)
		if err != nil {
			handleError(err)
			return
		}
		_ = printer.PrintMessage(fmt.Sprintf("Deleted %d item(s)", n))
	},
}

func init() {
	for _, cmd := range []*cobra.Command{itemAddCmd, itemGetCmd, itemDeleteCmd} {
		cmd.Flags().String("service", "", "service name (generic password)")
		cmd.Flags().String("server", "", "server name (internet password)")
		cmd.Flags().String("account", "", "account name")
	}
	itemGetCmd.Flags().Bool("show-data", false, "print the secret payload")

	itemCmd.AddCommand(itemAddCmd)
	itemCmd.AddCommand(itemGetCmd)
	itemCmd.AddCommand(itemDeleteCmd)
}
