// Package address canonicalises wallet addresses before they reach the fetcher or stores.
package address

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// ErrInvalidAddress is returned for strings that are neither EVM nor Solana addresses.
var ErrInvalidAddress = errors.New("invalid wallet address")

// Kind identifies an address family.
type Kind string

const (
	KindEVM    Kind = "evm"
	KindSolana Kind = "solana"
)

const (
	evmAddressBytes    = 20
	solanaPubkeyBytes  = 32
	solanaMinBase58Len = 32
	solanaMaxBase58Len = 44
)

// Canonicalize returns the canonical form of addr and its kind.
// EVM addresses are 0x-prefixed 20-byte hex and are lower-cased.
// Solana addresses are base58 and must decode to a 32-byte public key; they
// are case-sensitive and returned unchanged.
func Canonicalize(addr string) (string, Kind, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", "", fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	if strings.HasPrefix(addr, "0x") || strings.HasPrefix(addr, "0X") {
		body := addr[2:]
		raw, err := hex.DecodeString(body)
		if err != nil || len(raw) != evmAddressBytes {
			return "", "", fmt.Errorf("%w: %q is not a 20-byte hex address", ErrInvalidAddress, addr)
		}
		return "0x" + strings.ToLower(body), KindEVM, nil
	}

	if len(addr) < solanaMinBase58Len || len(addr) > solanaMaxBase58Len {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	raw, err := base58.Decode(addr)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
	}
	if len(raw) != solanaPubkeyBytes {
		return "", "", fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidAddress, addr, len(raw))
	}
	return addr, KindSolana, nil
}

// CanonicalizeAll canonicalises a list, dropping invalid and duplicate entries.
// The returned rejects map each dropped input to its error; duplicates are not rejects.
func CanonicalizeAll(addrs []string) (valid []string, rejects map[string]error) {
	rejects = make(map[string]error)
	seen := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		c, _, err := Canonicalize(a)
		if err != nil {
			rejects[a] = err
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		valid = append(valid, c)
	}
	return valid, rejects
}
