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
)

// keychainCmd represents the keychain command
var keychainCmd = &cobra.Command{
	Use:   "keychain",
	Short: "Manage keychains",
	Long:  `Create, inspect and delete keychain containers`,
}

// keychainCreateCmd creates a new keychain
var keychainCreateCmd = &cobra.Command{
	Use:   "create <path>",
	Short: "Create a new keychain",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		printer := NewPrinter(outputFormat, os.Stdout)

		s, err := newSession()
		if err != nil {
			handleError(err)
			return
		}

		pw, err := password.Prompt("Keychain password: ")
		if err != nil {
			handleError(fmt.Errorf("failed to read password: %w", err))
			return
		}
		defer pw.Clear()

		kc, err := s.svc.CreateKeychain(path, pw)
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = kc.Release() }()

		printVerbose("created keychain at %s", path)
		_ = printer.PrintMessage(fmt.Sprintf("Created keychain %s", path))
	},
}

// keychainShowCmd prints the default keychain
var keychainShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the default keychain",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(outputFormat, os.Stdout)

		s, err := newSession()
		if err != nil {
			handleError(err)
			return
		}

		kc, err := s.svc.DefaultKeychain()
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = kc.Release() }()

		_ = printer.PrintMessage(fmt.Sprintf("Default keychain: %s", kc.Path()))
	},
}

// keychainDeleteCmd deletes a keychain
var keychainDeleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Delete a keychain and everything stored in it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		printer := NewPrinter(outputFormat, os.Stdout)

		s, err := newSession()
		if err != nil {
			handleError(err)
			return
		}

		kc, err := s.svc.OpenKeychain(path)
		if err != nil {
			handleError(err)
			return
		}
		if err := s.svc.DeleteKeychain(kc); err != nil {
			handleError(err)
			return
		}

		_ = printer.PrintMessage(fmt.Sprintf("Deleted keychain %s", path))
	},
}

func init() {
	keychainCmd.AddCommand(keychainCreateCmd)
	keychainCmd.AddCommand(keychainShowCmd)
	keychainCmd.AddCommand(keychainDeleteCmd)
}
