// Package fees sets the compute budget of a batch from a simulation of it.
//
// The unit limit is the simulated consumption plus ten percent and the cost
// of the budget instructions. The unit price spreads the --fee-limit-cb
// priority fee over that limit. A fee limit of zero turns estimation off.
package fees
