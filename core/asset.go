package core

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAsset trims s and, when it is a 20-byte hex address, rewrites it
// in EIP-55 checksum form so differently-cased spellings map to one node.
// Symbols and non-EVM identifiers are returned trimmed but otherwise as-is.
func NormalizeAsset(s string) Asset {
	s = strings.TrimSpace(s)
	if common.IsHexAddress(s) {
		return Asset(common.HexToAddress(s).Hex())
	}

	return Asset(s)
}
