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
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keychain-services/pkg/access"
	"github.com/jeremyhahn/go-keychain-services/pkg/attr"
	"github.com/jeremyhahn/go-keychain-services/pkg/keychain"
	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

// keyCmd represents the key command
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage cryptographic keys",
	Long:  `Generate, list, sign with, export, and delete asymmetric keys`,
}

// keyAlgorithm maps the --algorithm flag to a key type.
func keyAlgorithm(name string) (types.KeyType, error) {
	switch strings.ToLower(name) {
	case "ec", "ecdsa":
		return types.KeyTypeECSECPrimeRandom, nil
	case "rsa":
		return types.KeyTypeRSA, nil
	default:
		return "", fmt.Errorf("unknown algorithm %q (want ec or rsa)", name)
	}
}

// signingAlgorithm picks the signature algorithm for a key type.
func signingAlgorithm(keyType types.KeyType) types.Algorithm {
	if keyType == types.KeyTypeRSA {
		return types.AlgorithmRSASignatureMessagePKCS1v15SHA256
	}
	return types.AlgorithmECDSASignatureMessageX962SHA256
}

// keyClassName renders a key class for display.
func keyClassName(kc types.KeyClass) string {
	switch kc {
	case types.KeyClassPublic:
		return "public"
	case types.KeyClassPrivate:
		return "private"
	case types.KeyClassSymmetric:
		return "symmetric"
	default:
		return "unknown"
	}
}

// defaultBits picks the default key size for a key type.
func defaultBits(keyType types.KeyType) int {
	if keyType == types.KeyTypeRSA {
		return 2048
	}
	return 256
}

// readKeyFile reads a base64 key export written by "key generate --out".
func readKeyFile(path string) ([]byte, error) {
	encoded, err := os.ReadFile(path) // #nosec G304 - key file path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(encoded)))
	if err != nil {
		return nil, fmt.Errorf("malformed key file %s: %w", path, err)
	}
	return data, nil
}

// importPrivateKey imports a key file as a private key of the given type.
func importPrivateKey(s *session, path string, keyType types.KeyType) (*keychain.Key, error) {
	data, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}
	return s.svc.ImportKey(data, attr.NewBuilder().
		SetClass(types.ClassKey).
		SetKeyType(keyType).
		SetKeyClass(types.KeyClassPrivate).
		Build())
}

// keyGenerateCmd generates a new key pair
var keyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key pair",
	Long: `Generate an asymmetric key pair. Without --out the key lives only
for this process; with --out the private key is exported to a base64
file usable with the sign and verify commands.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(outputFormat, os.Stdout)

		algorithm, _ := cmd.Flags().GetString("algorithm")
		bits, _ := cmd.Flags().GetInt("bits")
		tag, _ := cmd.Flags().GetString("tag")
		out, _ := cmd.Flags().GetString("out")
		secureEnclave, _ := cmd.Flags().GetBool("secure-enclave")
		biometry, _ := cmd.Flags().GetBool("biometry")

		keyType, err := keyAlgorithm(algorithm)
		if err != nil {
			handleError(err)
			return
		}
		if bits == 0 {
			bits = defaultBits(keyType)
		}
		if tag == "" {
			tag = "cli." + uuid.NewString()
		}

		s, err := newSession()
		if err != nil {
			handleError(err)
			return
		}

		params := keychain.KeyPairParams{
			KeyType:    keyType,
			SizeInBits: bits,
			Tag:        []byte(tag),
			Permanent:  true,
			Keychain:   s.keychain,
		}
		if secureEnclave {
			params.Token = types.TokenSecureEnclave
		}
		if biometry || secureEnclave {
			flags := access.Flags(0)
			if biometry {
				flags |= access.BiometryAny
			}
			if secureEnclave {
				flags |= access.PrivateKeyUsage
			}
			policy := access.NewPolicy(types.AccessibleWhenUnlockedThisDeviceOnly, flags)
			params.AccessControl = &policy
		}

		printVerbose("generating %s-%d key pair, tag %s", algorithm, bits, tag)
		pair, err := s.svc.GenerateKeyPair(params)
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = pair.Release() }()

		var exported string
		if out != "" {
			data, err := s.svc.ExportKey(pair.PrivateKey)
			if err != nil {
				handleError(fmt.Errorf("key is not exportable: %w", err))
				return
			}
			encoded := base64.StdEncoding.EncodeToString(data)
			if err := os.WriteFile(out, []byte(encoded+"\n"), 0600); err != nil {
				handleError(fmt.Errorf("failed to write key file: %w", err))
				return
			}
			exported = out
		}

		_ = printer.PrintKeyPair(pair, []byte(tag), exported)
	},
}

// keyListCmd lists keys stored in the selected keychain
var keyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(outputFormat, os.Stdout)

		tag, _ := cmd.Flags().GetString("tag")

		s, err := newSession()
		if err != nil {
			handleError(err)
			return
		}

		b := attr.NewBuilder().SetClass(types.ClassKey)
		if tag != "" {
			b.SetApplicationTag([]byte(tag))
		}
		query, err := s.scoped(b.Build())
		if err != nil {
			handleError(err)
			return
		}
		keys, err := s.svc.FindKeys(query)
		if err != nil {
			handleError(err)
			return
		}
		defer func() {
			for _, k := range keys {
				_ = k.Release()
			}
		}()

		if len(keys) == 0 {
			_ = printer.PrintMessage("No keys found")
			return
		}
		for _, k := range keys {
			fingerprint := hex.EncodeToString(k.ApplicationLabel())
			_ = printer.PrintMessage(fmt.Sprintf("%s (%s)", fingerprint, keyClassName(k.KeyClass())))
		}
	},
}

// keySignCmd signs a message with a private key file
var keySignCmd = &cobra.Command{
	Use:   "sign <message>",
	Short: "Sign a message with an exported private key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(outputFormat, os.Stdout)

		keyFile, _ := cmd.Flags().GetString("key")
		algorithm, _ := cmd.Flags().GetString("algorithm")

		keyType, err := keyAlgorithm(algorithm)
		if err != nil {
			handleError(err)
			return
		}

		s, err := newSession()
		if err != nil {
			handleError(err)
			return
		}

		key, err := importPrivateKey(s, keyFile, keyType)
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = key.Release() }()

		sig, err := s.svc.Sign(key, signingAlgorithm(keyType), []byte(args[0]))
		if err != nil {
			handleError(err)
			return
		}
		_ = printer.PrintSignature(sig)
	},
}

// keyVerifyCmd verifies a signature with a key file
var keyVerifyCmd = &cobra.Command{
	Use:   "verify <message>",
	Short: "Verify a signature with an exported key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(outputFormat, os.Stdout)

		keyFile, _ := cmd.Flags().GetString("key")
		algorithm, _ := cmd.Flags().GetString("algorithm")
		signature, _ := cmd.Flags().GetString("signature")

		keyType, err := keyAlgorithm(algorithm)
		if err != nil {
			handleError(err)
			return
		}
		sigBytes, err := base64.StdEncoding.DecodeString(signature)
		if err != nil {
			handleError(fmt.Errorf("malformed signature: %w", err))
			return
		}

		s, err := newSession()
		if err != nil {
			handleError(err)
			return
		}

		key, err := importPrivateKey(s, keyFile, keyType)
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = key.Release() }()

		alg := signingAlgorithm(keyType)
		ok, err := s.svc.Verify(key, []byte(args[0]), keychain.NewSignature(alg, sigBytes))
		if err != nil {
			handleError(err)
			return
		}
		_ = printer.PrintVerification(ok)
	},
}

// keyExportCmd exports a stored private key by tag
var keyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored private key",
	Long: `Export the external representation of a stored private key as
base64. Secure element keys and keys generated under a hardware-backed
access policy refuse export.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(outputFormat, os.Stdout)

		tag, _ := cmd.Flags().GetString("tag")
		out, _ := cmd.Flags().GetString("out")

		s, err := newSession()
		if err != nil {
			handleError(err)
			return
		}

		query, err := s.scoped(attr.NewBuilder().
			SetClass(types.ClassKey).
			SetKeyClass(types.KeyClassPrivate).
			SetApplicationTag([]byte(tag)).
			Build())
		if err != nil {
			handleError(err)
			return
		}
		key, err := s.svc.FindKey(query)
		if err != nil {
			handleError(err)
			return
		}
		defer func() { _ = key.Release() }()

		data, err := s.svc.ExportKey(key)
		if err != nil {
			handleError(err)
			return
		}
		encoded := base64.StdEncoding.EncodeToString(data)

		if out != "" {
			if err := os.WriteFile(out, []byte(encoded+"\n"), 0600); err != nil {
				handleError(fmt.Errorf("failed to write key file: %w", err))
				return
			}
			_ = printer.PrintMessage(fmt.Sprintf("Exported key to %s", out))
			return
		}
		_ = printer.PrintMessage(encoded)
	},
}

// keyDeleteCmd deletes stored keys by tag
var keyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete stored keys matching a tag",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printer := NewPrinter(outputFormat, os.Stdout)

		tag, _ := cmd.Flags().GetString("tag")
		if tag == "" {
			handleError(fmt.Errorf("--tag is required"))
			return
		}

		s, err := newSession()
		if err != nil {
			handleError(err)
			return
		}

		query, err := s.scoped(attr.NewBuilder().
			SetClass(types.ClassKey).
			SetApplicationTag([]byte(tag)).
			Build())
		if err != nil {
			handleError(err)
			return
		}
		keys, err := s.svc.FindKeys(query)
		if err != nil {
			handleError(err)
			return
		}
		for _, k := range keys {
			if err := s.svc.DeleteKey(k); err != nil {
				handleError(err)
				return
			}
		}
		_ = printer.PrintMessage(fmt.Sprintf("Deleted %d key(s)", len(keys)))
	},
}

func init() {
	keyGenerateCmd.Flags().String("algorithm", "ec", "key algorithm (ec, rsa)")
	keyGenerateCmd.Flags().Int("bits", 0, "key size in bits (default 256 for ec, 2048 for rsa)")
	keyGenerateCmd.Flags().String("tag", "", "application tag (random if empty)")
	keyGenerateCmd.Flags().String("out", "", "write the exported private key to this file")
	keyGenerateCmd.Flags().Bool("secure-enclave", false, "generate in the secure element (non-exportable)")
	keyGenerateCmd.Flags().Bool("biometry", false, "require biometric authentication for use")

	keyListCmd.Flags().String("tag", "", "filter by application tag")
	keyDeleteCmd.Flags().String("tag", "", "application tag of keys to delete")

	keyExportCmd.Flags().String("tag", "", "application tag of the key to export")
	keyExportCmd.Flags().String("out", "", "write the export to this file instead of stdout")
	_ = keyExportCmd.MarkFlagRequired("tag")

	for _, cmd := range []*cobra.Command{keySignCmd, keyVerifyCmd} {
		cmd.Flags().String("key", "", "key file written by generate --out")
		cmd.Flags().String("algorithm", "ec", "key algorithm (ec, rsa)")
		_ = cmd.MarkFlagRequired("key")
	}
	keyVerifyCmd.Flags().String("signature", "", "base64 signature to verify")
	_ = keyVerifyCmd.MarkFlagRequired("signature")

	keyCmd.AddCommand(keyGenerateCmd)
	keyCmd.AddCommand(keyListCmd)
	keyCmd.AddCommand(keySignCmd)
	keyCmd.AddCommand(keyVerifyCmd)
	keyCmd.AddCommand(keyExportCmd)
	keyCmd.AddCommand(keyDeleteCmd)
}
