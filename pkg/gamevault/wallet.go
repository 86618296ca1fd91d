package gamevault

import "strings"

// Owner identifiers are Ethereum-style wallet addresses: "0x" followed by 40
// hex characters. Addresses are case-insensitive on the wire, so they are
// lowercased before storage or comparison.

const walletAddressLen = 42

// NormalizeWalletAddress validates a wallet address and returns its canonical
// lowercase form. Validation stops at shape checking; signature verification
// happens upstream of this library.
func NormalizeWalletAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if len(addr) != walletAddressLen || addr[0] != '0' || (addr[1] != 'x' && addr[1] != 'X') {
		return "", &ValidationError{Field: "wallet_address", Reason: "must be 0x followed by 40 hex characters"}
	}
	for _, c := range addr[2:] {
		if !isHexDigit(c) {
			return "", &ValidationError{Field: "wallet_address", Reason: "must be 0x followed by 40 hex characters"}
		}
	}
	return strings.ToLower(addr), nil
}

// IsValidWalletAddress reports whether addr parses as a wallet address.
func IsValidWalletAddress(addr string) bool {
	_, err := NormalizeWalletAddress(addr)
	return err == nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
