/*
Package batch groups pool operations into transactions.

A transaction may not exceed 1,232 bytes once signed, and stake pool
instructions carry many accounts, so only a handful fit. Rather than
measuring every candidate transaction, operations are classified by Kind and
each kind has a ceiling that is known to fit in the worst case:

	add-validator           7
	remove-validator        5
	stake-change            4
	parameter              13
	preferred-validator     2
	update-validator-list   1
	update-pool             1

Chunk walks the operations in order and starts a new group when the kind
changes or the ceiling is reached. Operations joined with BindNext count as
one unit and always land in the same group, which is how a decrease is kept
in the same transaction as the removal that depends on it.

Plan wraps each group in a Batch carrying its signers and position
("batch 2/5"). Batch.Transaction compiles the batch against a blockhash,
prepending compute budget instructions when a Budget is attached, and
CheckSize rejects anything over the limit before it reaches the cluster.
*/
package batch
