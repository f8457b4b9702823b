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

package password

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/jeremyhahn/go-keychain-services/pkg/types"
)

// Prompt reads a password from the terminal with echo disabled. When
// stdin is not a terminal (piped input, tests) it falls back to reading
// one line.
func Prompt(message string) (types.Password, error) {
	fmt.Fprint(os.Stderr, message)
	defer fmt.Fprintln(os.Stderr)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		if err != nil {
			return nil, err
		}
		defer zero(raw)
		return NewClearPassword(raw)
	}
	return readLine(os.Stdin)
}

func readLine(r io.Reader) (types.Password, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return nil, err
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return NewClearPasswordFromString(line)
}
