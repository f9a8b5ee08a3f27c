// Package sanitize strips environment-specific artifacts out of a migration
// plan before it crosses from staging to production. Ownership assignments and
// default-privilege grants are bound to the roles of the environment that
// produced them and must never be replayed against another project.
package sanitize

import (
	"strings"

	"github.com/prodsync/prodsync/internal/planner"
)

// Sanitize returns a copy of the plan with ownership-reassignment statements,
// default-privilege grants, and empty statements removed. The transform is
// pure and idempotent; statement order is preserved.
func Sanitize(plan *planner.Plan) *planner.Plan {
	if plan == nil {
		return nil
	}

	out := &planner.Plan{Statements: []planner.Statement{}}
	for _, stmt := range plan.Statements {
		if strings.TrimSpace(stmt.SQL) == "" {
			continue
		}
		if isOwnershipChange(stmt.SQL) || isDefaultPrivilegeChange(stmt.SQL) {
			continue
		}
		out.Statements = append(out.Statements, stmt)
	}
	return out
}

// isOwnershipChange reports whether the statement reassigns object ownership
func isOwnershipChange(sql string) bool {
	return strings.Contains(strings.ToUpper(sql), "OWNER TO")
}

// isDefaultPrivilegeChange reports whether the statement alters default grants
func isDefaultPrivilegeChange(sql string) bool {
	return strings.Contains(strings.ToUpper(sql), "ALTER DEFAULT PRIVILEGES")
}
