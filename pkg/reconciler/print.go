package reconciler

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/cuemby/spoolctl/pkg/types"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// PrintDelegation writes a summary of delegation changes to w. Conditions
// that produce no operation are listed too, so the operator sees them
// before anything is submitted.
func PrintDelegation(w io.Writer, changes []DelegationChange) {
	var shortfall uint64
	for _, c := range changes {
		vote := c.Vote()
		switch c.Kind {
		case Increase:
			fmt.Fprintf(w, "%s %s: increase by %d\n", green("+"), vote, c.Amount)
		case Decrease:
			fmt.Fprintf(w, "%s %s: decrease by %d\n", red("-"), vote, c.Amount)
		case PartialIncrease:
			fmt.Fprintf(w, "%s %s: increase by %d", yellow("+"), vote, c.Amount)
			if !c.Target.Remainder {
				fmt.Fprintf(w, ", %d short of target", c.Shortfall)
				shortfall += c.Shortfall
			}
			fmt.Fprintln(w)
		case InsufficientReserve:
			if c.Target.Remainder {
				fmt.Fprintf(w, "%s %s: nothing left in the reserve for the remainder\n", faint("="), vote)
				continue
			}
			fmt.Fprintf(w, "%s %s: reserve exhausted, %d short of target\n", yellow("!"), vote, c.Shortfall)
			shortfall += c.Shortfall
		case TransientConflict:
			fmt.Fprintf(w, "%s %s: stake is %s this epoch, cannot move it the other way\n", yellow("!"), vote, c.Phase)
		case ValidatorBeingRemoved:
			fmt.Fprintf(w, "%s %s: validator is being removed (%s)\n", yellow("!"), vote, c.Entry.Status)
		default:
			fmt.Fprintf(w, "%s %s: at target\n", faint("="), vote)
		}
	}
	if shortfall > 0 {
		fmt.Fprintf(w, "%s reserve is short by %d lamports in total\n", yellow("!"), shortfall)
	}
}

// PrintParameters writes parameter changes to w
func PrintParameters(w io.Writer, changes []ParameterChange) {
	if len(changes) == 0 {
		fmt.Fprintln(w, faint("Pool parameters are up to date"))
		return
	}
	for _, c := range changes {
		fmt.Fprintf(w, "%s %s\n", green("~"), c)
	}
}

// PrintMembership writes a membership changeset to w
func PrintMembership(w io.Writer, cs *MembershipChangeset) {
	if cs.IsEmpty() && len(cs.Skipped) == 0 {
		fmt.Fprintln(w, faint("Validator list is up to date"))
		return
	}
	for _, r := range cs.Remove {
		if r.Decrease > 0 {
			fmt.Fprintf(w, "%s %s: decrease by %d, then remove\n", red("-"), r.Entry.VoteAccount, r.Decrease)
			continue
		}
		fmt.Fprintf(w, "%s %s: remove\n", red("-"), r.Entry.VoteAccount)
	}
	for _, s := range cs.Skipped {
		fmt.Fprintf(w, "%s %s: not removed, %s\n", yellow("!"), s.Entry.VoteAccount, s.Reason)
	}
	for _, vote := range cs.Add {
		fmt.Fprintf(w, "%s %s: add\n", green("+"), vote)
	}
	for _, p := range cs.Preferred {
		fmt.Fprintf(w, "%s %s\n", green("~"), p)
	}
}

// PrintUpdate writes an update plan to w
func PrintUpdate(w io.Writer, plan *UpdatePlan, epoch uint64) {
	if plan.IsEmpty() {
		fmt.Fprintf(w, "%s\n", faint(fmt.Sprintf("Pool is up to date for epoch %d", epoch)))
		return
	}
	entries := 0
	for _, c := range plan.Chunks {
		entries += len(c.Entries)
	}
	fmt.Fprintf(w, "%s update %d validators in %d chunks, then the pool, for epoch %d\n",
		green("~"), entries, len(plan.Chunks), epoch)
}

// PrintValidatorList writes every entry of list to w
func PrintValidatorList(w io.Writer, list *types.ValidatorList) {
	for _, v := range list.Validators {
		fmt.Fprintf(w, "%s active=%d transient=%d status=%s last-update=%d\n",
			v.VoteAccount, v.ActiveStakeLamports, v.TransientStakeLamports, v.Status, v.LastUpdateEpoch)
	}
}
