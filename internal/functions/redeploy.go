package functions

import (
	"context"
	"fmt"
	"io"
)

// Tally is the aggregate outcome of a redeployment pass
type Tally struct {
	Deployed int
	Failed   int
}

// RedeployAll redeploys every non-internal unit independently. Unit failures
// are recorded and the loop continues; this is the one pipeline stage with
// partial-failure tolerance. A unit is never retried within the same run.
// Progress is reported to out as each unit completes.
func RedeployAll(ctx context.Context, deployer Deployer, units []Unit, projectRef string, out io.Writer) Tally {
	var tally Tally

	for _, unit := range units {
		if unit.Internal {
			continue
		}

		if err := deployer.Deploy(ctx, unit.Name, projectRef); err != nil {
			tally.Failed++
			fmt.Fprintf(out, "    ❌ %s deployment failed: %v\n", unit.Name, err)
			continue
		}

		tally.Deployed++
		fmt.Fprintf(out, "    ✅ %s deployed successfully\n", unit.Name)
	}

	return tally
}
