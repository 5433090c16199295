package signer

import (
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"

	"github.com/cuemby/spoolctl/pkg/types"
)

// ParsePubkey accepts a base58 public key or the path of a keypair file
func ParsePubkey(raw string) (solana.PublicKey, error) {
	if pk, err := solana.PublicKeyFromBase58(raw); err == nil {
		return pk, nil
	}
	kp, err := LoadKeypair(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%q is neither a public key nor a readable keypair file", raw)
	}
	return kp.PublicKey(), nil
}

// ParseOptionalPubkey is ParsePubkey for optional config values; "" is nil
func ParseOptionalPubkey(raw string) (*solana.PublicKey, error) {
	if raw == "" {
		return nil, nil
	}
	pk, err := ParsePubkey(raw)
	if err != nil {
		return nil, err
	}
	return &pk, nil
}

// ResolveAuthorizer turns a configured authority into a signer.
//
//   - "" resolves to fallback
//   - a keypair file path resolves to that keypair
//   - a bare public key matching fallback resolves to fallback
//   - any other bare public key resolves to a placeholder when mode allows
//     placeholders, and to fallback otherwise, leaving the authority check
//     against the pool to reject it
func ResolveAuthorizer(raw string, mode types.SendMode, fallback Signer) (Signer, error) {
	if raw == "" {
		return fallback, nil
	}
	if isFile(raw) {
		return LoadKeypair(raw)
	}
	pk, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return nil, fmt.Errorf("%q is neither a public key nor a readable keypair file", raw)
	}
	if fallback != nil && fallback.PublicKey().Equals(pk) {
		return fallback, nil
	}
	if mode.AllowsPlaceholders() {
		return NewPlaceholder(pk), nil
	}
	return fallback, nil
}

// ResolveRequired is like ResolveAuthorizer but a bare public key never
// falls back: it becomes a placeholder when mode allows, and an error
// otherwise. Used for identities that must sign as themselves, like a new
// manager.
func ResolveRequired(raw string, mode types.SendMode, known ...Signer) (Signer, error) {
	if isFile(raw) {
		return LoadKeypair(raw)
	}
	pk, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return nil, fmt.Errorf("%q is neither a public key nor a readable keypair file", raw)
	}
	for _, k := range known {
		if k != nil && k.PublicKey().Equals(pk) {
			return k, nil
		}
	}
	if mode.AllowsPlaceholders() {
		return NewPlaceholder(pk), nil
	}
	return nil, fmt.Errorf("%s must sign, provide its keypair file instead of the public key", pk)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
