package planner

// GateResult is the outcome of running a plan through the destructive-change
// gate. Suppressed holds the excluded destructive statements, kept purely for
// the operator-facing diagnostic artifact; they are never applied.
type GateResult struct {
	Plan       *Plan
	Suppressed []Statement
}

// Gate filters destructive statements out of a plan when they are not
// allowed. Relative order of the kept statements is preserved. The gate never
// fails the run: additive changes always proceed.
func Gate(plan *Plan, allowDestructive bool) GateResult {
	if allowDestructive || !plan.HasDestructive() {
		return GateResult{Plan: plan}
	}

	kept := &Plan{Statements: []Statement{}}
	var suppressed []Statement
	for _, stmt := range plan.Statements {
		if stmt.Kind == Destructive {
			suppressed = append(suppressed, stmt)
			continue
		}
		kept.Statements = append(kept.Statements, stmt)
	}

	return GateResult{Plan: kept, Suppressed: suppressed}
}
