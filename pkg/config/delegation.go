package config

import (
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/spoolctl/pkg/reconciler"
	"github.com/cuemby/spoolctl/pkg/signer"
)

const remainder = "remainder"

// DelegationFile is the file read by sync-delegation
type DelegationFile struct {
	Pool DelegationConfig `toml:"pool" yaml:"pool"`
}

// DelegationConfig declares how much stake each validator of a pool should
// hold
type DelegationConfig struct {
	Pool       string                `toml:"pool" yaml:"pool"`
	Staker     string                `toml:"staker,omitempty" yaml:"staker,omitempty"`
	Validators []ValidatorDelegation `toml:"validators" yaml:"validators"`
}

// ValidatorDelegation is the target of one validator
type ValidatorDelegation struct {
	Vote   string           `toml:"vote" yaml:"vote"`
	Target DelegationTarget `toml:"target" yaml:"target"`
}

// DelegationTarget is written as a lamport amount, as {lamports = N}, or as
// "remainder" for the validator that takes whatever the reserve has left.
type DelegationTarget struct {
	Lamports  uint64
	Remainder bool
}

func (t *DelegationTarget) UnmarshalTOML(v interface{}) error {
	switch v := v.(type) {
	case int64:
		return t.setLamports(v)
	case string:
		return t.setString(v)
	case map[string]interface{}:
		n, ok := v["lamports"].(int64)
		if !ok || len(v) != 1 {
			return fmt.Errorf("target table must hold exactly one integer key, lamports")
		}
		return t.setLamports(n)
	default:
		return fmt.Errorf("target must be a lamport amount or %q, got %T", remainder, v)
	}
}

func (t *DelegationTarget) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!str" {
			return t.setString(node.Value)
		}
		var n int64
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("target must be a lamport amount or %q: %w", remainder, err)
		}
		return t.setLamports(n)
	case yaml.MappingNode:
		var m struct {
			Lamports *int64 `yaml:"lamports"`
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		if m.Lamports == nil {
			return fmt.Errorf("target mapping must hold lamports")
		}
		return t.setLamports(*m.Lamports)
	default:
		return fmt.Errorf("target must be a lamport amount or %q", remainder)
	}
}

func (t DelegationTarget) MarshalTOML() ([]byte, error) {
	if t.Remainder {
		return []byte(strconv.Quote(remainder)), nil
	}
	return []byte(strconv.FormatUint(t.Lamports, 10)), nil
}

func (t DelegationTarget) MarshalYAML() (interface{}, error) {
	if t.Remainder {
		return remainder, nil
	}
	return t.Lamports, nil
}

func (t *DelegationTarget) setLamports(n int64) error {
	if n < 0 {
		return fmt.Errorf("target lamports cannot be negative: %d", n)
	}
	*t = DelegationTarget{Lamports: uint64(n)}
	return nil
}

func (t *DelegationTarget) setString(s string) error {
	if s != remainder {
		return fmt.Errorf("unknown target %q, expected a lamport amount or %q", s, remainder)
	}
	*t = DelegationTarget{Remainder: true}
	return nil
}

func (t DelegationTarget) String() string {
	if t.Remainder {
		return remainder
	}
	return strconv.FormatUint(t.Lamports, 10)
}

// Address returns the pool address
func (c *DelegationConfig) Address() (solana.PublicKey, error) {
	if c.Pool == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: pool is required", reconciler.ErrValidation)
	}
	return signer.ParsePubkey(c.Pool)
}

// ValidateDelegation resolves the declared targets and checks the scheme:
// at most one remainder target, each validator once. The remainder target
// is moved last; the others keep their declared order.
func ValidateDelegation(c *DelegationConfig) ([]reconciler.Target, error) {
	targets := make([]reconciler.Target, len(c.Validators))
	for i, v := range c.Validators {
		vote, err := signer.ParsePubkey(v.Vote)
		if err != nil {
			return nil, fmt.Errorf("%w: validator %d: %v", reconciler.ErrValidation, i, err)
		}
		targets[i] = reconciler.Target{Vote: vote, Lamports: v.Target.Lamports, Remainder: v.Target.Remainder}
	}
	return reconciler.OrderTargets(targets)
}
