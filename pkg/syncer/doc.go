/*
Package syncer implements the spoolctl commands.

Each Syncer method follows the same steps:

 1. resolve the pool address and authorities from the config
 2. fetch a snapshot of the pool and check the program that owns it
 3. check the signer against the staker or manager of record
 4. reconcile, print the changes, and plan batches
 5. submit them as one journal run

Validation errors are reported before anything is read from the cluster
when the config alone shows them.
*/
package syncer
