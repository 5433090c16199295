package batch

import (
	"github.com/gagliardetto/solana-go"

	"github.com/cuemby/spoolctl/pkg/signer"
)

// Chunk splits ops into groups that each fit one transaction. Chunking is
// greedy and keeps the input order: concatenating the result gives ops
// back. A group holds operations of a single kind and at most
// Kind.Ceiling() units, where operations bound with BindNext count as one
// unit and are never split.
func Chunk(ops []Operation) [][]Operation {
	var chunks [][]Operation
	var current []Operation
	units := 0

	for start := 0; start < len(ops); {
		end := start + 1
		for end < len(ops) && ops[end-1].BindNext {
			end++
		}
		unit := ops[start:end]
		kind := unit[0].Kind

		if len(current) > 0 && (current[0].Kind != kind || units >= kind.Ceiling()) {
			chunks = append(chunks, current)
			current, units = nil, 0
		}
		current = append(current, unit...)
		units++
		start = end
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// Plan turns ops into numbered batches paid by payer and authorized by
// signers.
func Plan(label string, payer solana.PublicKey, signers *signer.Set, ops []Operation) []*Batch {
	chunks := Chunk(ops)
	batches := make([]*Batch, len(chunks))
	for i, c := range chunks {
		batches[i] = &Batch{
			Index:      i + 1,
			Total:      len(chunks),
			Label:      label,
			Kind:       c[0].Kind,
			Operations: c,
			Payer:      payer,
			Signers:    signers,
		}
	}
	return batches
}

// Renumber fixes Index and Total after batches from several plans are
// concatenated.
func Renumber(batches []*Batch) []*Batch {
	for i, b := range batches {
		b.Index = i + 1
		b.Total = len(batches)
	}
	return batches
}
