package chain

import (
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
)

// AccountFromPrivateKey builds a signing account from a hex-encoded private
// key. A 0x prefix is tolerated.
func AccountFromPrivateKey(privateKeyHex string) (*wallet.Account, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")

	priv, err := keys.NewPrivateKeyFromHex(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return wallet.NewAccountFromPrivateKey(priv), nil
}

// ParseAddress accepts either a 0x-prefixed little-endian script hash or a
// Neo base58 address and returns the script hash.
func ParseAddress(s string) (util.Uint160, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return util.Uint160{}, fmt.Errorf("address is empty")
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		hash, err := util.Uint160DecodeStringLE(s[2:])
		if err != nil {
			return util.Uint160{}, fmt.Errorf("invalid script hash %q: %w", s, err)
		}
		return hash, nil
	}

	hash, err := address.StringToUint160(s)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return hash, nil
}

// ValidateAddress reports whether s is an acceptable owner address.
func ValidateAddress(s string) error {
	_, err := ParseAddress(s)
	return err
}

// FormatScriptHash renders a script hash in the 0x little-endian form used
// across RPC parameters and API responses.
func FormatScriptHash(hash util.Uint160) string {
	return "0x" + hash.StringLE()
}
