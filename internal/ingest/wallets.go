package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// LoadWalletList reads one wallet address per line.
func LoadWalletList(path string) ([]string, error) {
	return loadFile(path, DecodeWalletList)
}

// DecodeWalletList returns trimmed non-empty lines. Lines starting with # are
// comments. Duplicates are kept in first-seen order only once.
func DecodeWalletList(r io.Reader) ([]string, error) {
	var (
		wallets []string
		seen    = make(map[string]struct{})
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		wallets = append(wallets, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return wallets, nil
}
