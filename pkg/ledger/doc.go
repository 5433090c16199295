/*
Package ledger reads stake pool state from a Solana cluster and sends
transactions to it.

Client is the narrow interface the rest of spoolctl depends on. RPCClient
implements it over JSON-RPC; ledgertest implements it in memory.

FetchPool takes a snapshot: the pool account, clock and rent sysvars, then
the validator list and reserve the pool points to. The owner of the pool
account decides which program deployment the snapshot belongs to. Large
account reads are split into requests of 100 keys issued concurrently.

Confirm polls a signature with exponential backoff until it is confirmed or
failed, giving up after a timeout.
*/
package ledger
