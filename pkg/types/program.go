package types

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Program identifies a deployment of the stake pool program
type Program struct {
	Name string
	ID   solana.PublicKey
}

var (
	ProgramSPL = Program{
		Name: "spl",
		ID:   solana.MustPublicKeyFromBase58("SPoo1Ku8WFXoNDMHPsrGSTSG1Y47rzgn41SLUNakuHy"),
	}
	ProgramSanctumSPL = Program{
		Name: "sanctum-spl",
		ID:   solana.MustPublicKeyFromBase58("SP12tWFxD9oJsVWNavTTBZvMbA6gkAmxtVgxdqvyvhY"),
	}
	ProgramSanctumSPLMulti = Program{
		Name: "sanctum-spl-multi",
		ID:   solana.MustPublicKeyFromBase58("SPMBzsVUuoHA4Jm6KunbsotaahvVikZs1JyTW6iJvbn"),
	}

	knownPrograms = []Program{ProgramSPL, ProgramSanctumSPL, ProgramSanctumSPLMulti}
)

// ParseProgram resolves a deployment name or a base58 program id
func ParseProgram(s string) (Program, error) {
	for _, p := range knownPrograms {
		if p.Name == s {
			return p, nil
		}
	}
	id, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return Program{}, fmt.Errorf("invalid program %q: expected spl, sanctum-spl, sanctum-spl-multi or a program id", s)
	}
	return ProgramFromID(id), nil
}

// ProgramFromID names a program id, falling back to a custom deployment
func ProgramFromID(id solana.PublicKey) Program {
	for _, p := range knownPrograms {
		if p.ID.Equals(id) {
			return p
		}
	}
	return Program{Name: "custom", ID: id}
}

func (p Program) String() string {
	if p.Name == "custom" {
		return p.ID.String()
	}
	return p.Name
}
