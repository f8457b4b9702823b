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
	"encoding/json"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-keychain-services/pkg/attr"
	"github.com/jeremyhahn/go-keychain-services/pkg/keychain"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintMessage prints a simple result message
func (p *Printer) PrintMessage(msg string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{"message": msg})
	case OutputFormatText:
		fmt.Fprintln(p.writer, msg)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{"error": err.Error()})
	default:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	}
}

// PrintItem prints a password item's attributes and, when present, its
// secret payload.
func (p *Printer) PrintItem(attrs attr.Dictionary, data []byte) error {
	fields := map[string]interface{}{}
	for _, k := range []struct {
		key   attr.Key
		label string
	}{
		{attr.KeyService, "service"},
		{attr.KeyServer, "server"},
		{attr.KeyAccount, "account"},
		{attr.KeyLabel, "label"},
	} {
		if v, ok := attrs.GetString(k.key); ok {
			fields[k.label] = v
		}
	}

	switch p.format {
	case OutputFormatJSON:
		if data != nil {
			fields["data"] = string(data)
		}
		return p.printJSON(fields)
	case OutputFormatText:
		for label, v := range fields {
			fmt.Fprintf(p.writer, "%-10s %s\n", label+":", v)
		}
		if data != nil {
			fmt.Fprintf(p.writer, "%-10s %s\n", "data:", string(data))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintKeyPair prints a generated key pair's identifying attributes.
func (p *Printer) PrintKeyPair(pair *keychain.KeyPair, tag []byte, exported string) error {
	fingerprint := hex.EncodeToString(pair.PublicKey.ApplicationLabel())

	switch p.format {
	case OutputFormatJSON:
		out := map[string]interface{}{
			"fingerprint": fingerprint,
			"tag":         string(tag),
		}
		if exported != "" {
			out["private_key_file"] = exported
		}
		return p.printJSON(out)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Fingerprint: %s\n", fingerprint)
		fmt.Fprintf(p.writer, "Tag:         %s\n", string(tag))
		if exported != "" {
			fmt.Fprintf(p.writer, "Private key: %s\n", exported)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSignature prints a signature as base64.
func (p *Printer) PrintSignature(sig *keychain.Signature) error {
	encoded := base64.StdEncoding.EncodeToString(sig.Bytes())

	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"algorithm": string(sig.Algorithm()),
			"signature": encoded,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, encoded)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintVerification prints a signature verification outcome.
func (p *Printer) PrintVerification(ok bool) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{"verified": ok})
	case OutputFormatText:
		if ok {
			fmt.Fprintln(p.writer, "Signature verified")
		} else {
			fmt.Fprintln(p.writer, "Signature INVALID")
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// printJSON marshals and prints indented JSON
func (p *Printer) printJSON(v interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
