/*
Package submit sends planned batches to the cluster, one at a time.

For each batch the Submitter attaches a compute budget and compiles the
transaction against a fresh blockhash. What happens next depends on the
send mode:

  - send-actual signs, sends and waits for confirmation
  - sim-only signs what it can and simulates, logging program output
  - dump-msg prints the base64 message for signing elsewhere

Batches run strictly in order and the first failure stops the run, wrapped
in ErrSubmission with the position of the failed batch. Every outcome is
counted in metrics and, when a journal is configured, recorded there.
*/
package submit
