/*
Package config reads and writes the declarative files spoolctl works from.

Two files are understood, in TOML or YAML depending on the extension. A pool
file describes the parameters and validator set of a pool and is
read by sync-pool, sync-validator-list and set-staker; list writes the same
shape from a live pool. A delegation file gives each validator a stake
target:

	[pool]
	pool = "8VpRhuxa7sUUepdY3kQiTmX9rS5vx4WgaXiAnXq4KCtr"

	[[pool.validators]]
	vote = "FnAPJkzf19s87sm24Qhv6bHZMZvZ43gjNUBRgjwXpD4v"
	target = 3000000000

	[[pool.validators]]
	vote = "BLADE1qNA1uNjRgER6DtUFf7FU3c1TWLLdpPeEcKatZ2"
	target = "remainder"

Keys are kebab-case and unknown keys are rejected.
*/
package config
