package signer

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
)

// Signer is an authorizing identity that can sign transaction messages
type Signer interface {
	PublicKey() solana.PublicKey
	Sign(message []byte) (solana.Signature, error)
}

// KeypairSigner signs with a local ed25519 keypair
type KeypairSigner struct {
	key solana.PrivateKey
}

// NewKeypairSigner wraps a private key
func NewKeypairSigner(key solana.PrivateKey) *KeypairSigner {
	return &KeypairSigner{key: key}
}

// LoadKeypair reads a keypair file in the solana-keygen JSON format
func LoadKeypair(path string) (*KeypairSigner, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keypair %s: %w", path, err)
	}
	return NewKeypairSigner(key), nil
}

func (s *KeypairSigner) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

func (s *KeypairSigner) Sign(message []byte) (solana.Signature, error) {
	return s.key.Sign(message)
}

// PlaceholderSigner stands in for an identity whose key is not available,
// e.g. a multisig. It produces an empty signature, so transactions carrying
// one can only be simulated or dumped.
type PlaceholderSigner struct {
	key solana.PublicKey
}

// NewPlaceholder creates a placeholder for the given identity
func NewPlaceholder(key solana.PublicKey) *PlaceholderSigner {
	return &PlaceholderSigner{key: key}
}

func (s *PlaceholderSigner) PublicKey() solana.PublicKey {
	return s.key
}

func (s *PlaceholderSigner) Sign([]byte) (solana.Signature, error) {
	return solana.Signature{}, nil
}

// IsPlaceholder reports whether s cannot produce real signatures
func IsPlaceholder(s Signer) bool {
	_, ok := s.(*PlaceholderSigner)
	return ok
}

// Set is a deduplicated collection of signers ordered by public key bytes.
// An identity appearing more than once occupies a single signature slot.
type Set struct {
	signers []Signer
}

// NewSet builds a Set. Nil entries are skipped. When the same identity is
// given as both a placeholder and a real signer, the real signer wins.
func NewSet(signers ...Signer) *Set {
	byKey := make(map[solana.PublicKey]Signer, len(signers))
	for _, s := range signers {
		if s == nil {
			continue
		}
		pk := s.PublicKey()
		if existing, ok := byKey[pk]; ok && !IsPlaceholder(existing) {
			continue
		}
		byKey[pk] = s
	}

	set := &Set{signers: make([]Signer, 0, len(byKey))}
	for _, s := range byKey {
		set.signers = append(set.signers, s)
	}
	sort.Slice(set.signers, func(i, j int) bool {
		a, b := set.signers[i].PublicKey(), set.signers[j].PublicKey()
		return bytes.Compare(a[:], b[:]) < 0
	})
	return set
}

// Len returns the number of distinct identities
func (s *Set) Len() int {
	return len(s.signers)
}

// Signers returns the signers in key order
func (s *Set) Signers() []Signer {
	return s.signers
}

// PublicKeys returns the identities in key order
func (s *Set) PublicKeys() []solana.PublicKey {
	keys := make([]solana.PublicKey, len(s.signers))
	for i, sg := range s.signers {
		keys[i] = sg.PublicKey()
	}
	return keys
}

// Get looks up the signer for an identity
func (s *Set) Get(pk solana.PublicKey) (Signer, bool) {
	i := sort.Search(len(s.signers), func(i int) bool {
		k := s.signers[i].PublicKey()
		return bytes.Compare(k[:], pk[:]) >= 0
	})
	if i < len(s.signers) && s.signers[i].PublicKey().Equals(pk) {
		return s.signers[i], true
	}
	return nil, false
}

// Placeholders returns the identities that will not produce real signatures
func (s *Set) Placeholders() []solana.PublicKey {
	var keys []solana.PublicKey
	for _, sg := range s.signers {
		if IsPlaceholder(sg) {
			keys = append(keys, sg.PublicKey())
		}
	}
	return keys
}

// SignTransaction fills in the signatures of tx for every required signer.
// A required signer missing from the set is an error.
func (s *Set) SignTransaction(tx *solana.Transaction) error {
	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Message.AccountKeys) < required {
		return fmt.Errorf("message lists %d keys but requires %d signatures", len(tx.Message.AccountKeys), required)
	}
	signatures := make([]solana.Signature, required)
	for i := 0; i < required; i++ {
		key := tx.Message.AccountKeys[i]
		sg, ok := s.Get(key)
		if !ok {
			return fmt.Errorf("missing signer for %s", key)
		}
		sig, err := sg.Sign(message)
		if err != nil {
			return fmt.Errorf("failed to sign with %s: %w", key, err)
		}
		signatures[i] = sig
	}
	tx.Signatures = signatures
	return nil
}
