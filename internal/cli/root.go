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

// Package cli implements the keychain-services command line interface.
//
// The CLI runs against the in-process software provider: state lives for
// the life of the process, with key material moved in and out through
// export files. It serves as a demonstration and testing surface for the
// library.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keychain-services/internal/config"
	"github.com/jeremyhahn/go-keychain-services/pkg/access"
	"github.com/jeremyhahn/go-keychain-services/pkg/attr"
	"github.com/jeremyhahn/go-keychain-services/pkg/keychain"
	"github.com/jeremyhahn/go-keychain-services/pkg/logging"
	"github.com/jeremyhahn/go-keychain-services/pkg/provider/software"
)

var (
	configFile   string
	keychainPath string
	outputFormat string
	verbose      bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "keychain-services",
	Short: "keychain-services CLI - secure credential and key store",
	Long: `keychain-services CLI provides a command-line interface for the
keychain access layer: keychains, password items, and asymmetric keys
with access control policies.

Commands run against the in-process software provider. Stored state is
per-process; use the key export/import files to carry key material
between invocations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&keychainPath, "keychain", "",
		"keychain to operate on (default keychain if empty)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text",
		"output format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(keychainCmd)
	rootCmd.AddCommand(itemCmd)
	rootCmd.AddCommand(keyCmd)
}

// session bundles the service and resolved configuration for one command.
type session struct {
	svc *keychain.Service
	cfg *config.Config

	// keychain is the scope selected by --keychain or config; nil means
	// the default keychain.
	keychain *keychain.Keychain
}

// newSession builds the service from configuration and opens the
// selected keychain scope.
func newSession() (*session, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if keychainPath != "" {
		cfg.Keychain.Path = keychainPath
	}

	provider := software.New(software.WithAuthenticator(authenticator(cfg)))
	log := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if verbose {
		log = logging.New(logging.Options{Level: "debug", Format: cfg.Logging.Format})
	}
	svc := keychain.New(provider, keychain.WithLogger(log))

	s := &session{svc: svc, cfg: cfg}
	if cfg.Keychain.Path != "" && cfg.Keychain.Path != software.DefaultKeychainPath {
		// Session-local keychain; created on first use.
		kc, err := svc.CreateKeychain(cfg.Keychain.Path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open keychain %s: %w", cfg.Keychain.Path, err)
		}
		s.keychain = kc
	}
	return s, nil
}

// scoped binds a raw item or key query to the session keychain. With no
// session keychain the query searches the default keychain.
func (s *session) scoped(query attr.Dictionary) (attr.Dictionary, error) {
	if s.keychain == nil {
		return query, nil
	}
	return s.keychain.Scope(query)
}

// authenticator maps the configured decision onto the software provider's
// prompt hook.
func authenticator(cfg *config.Config) software.Authenticator {
	decision := software.Allow
	switch cfg.Authenticator.Decision {
	case "deny":
		decision = software.Deny
	case "cancel":
		decision = software.Cancel
	}
	return func(policy access.Policy, operation string) software.Decision {
		if verbose {
			fmt.Fprintf(os.Stderr, "[VERBOSE] authentication prompt for %s (%s)\n",
				operation, policy.AuthenticationType())
		}
		return decision
	}
}

// handleError prints an error and exits with code 1
func handleError(err error) {
	printer := NewPrinter(outputFormat, os.Stderr)
	_ = printer.PrintError(err)
	os.Exit(1)
}

// printVerbose prints a message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] "+format+"\n", args...)
	}
}
