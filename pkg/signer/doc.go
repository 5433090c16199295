/*
Package signer resolves the authorities named on the command line and in
config files, and signs transactions with them.

A key argument is either a base58 public key or the path of a keypair file.
In send-actual mode every authority must resolve to a keypair. In sim-only
and dump-msg modes a bare public key becomes a PlaceholderSigner, which
produces an empty signature, so a multisig staker or manager can preview or
export transactions without handing over a key.

Set holds the signers of one batch, sorted by public key with duplicates
dropped. When the payer and an authority are the same key the real keypair
wins over a placeholder.
*/
package signer
