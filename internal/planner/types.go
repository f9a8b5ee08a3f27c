package planner

// Kind classifies a generated statement at generation time, so the
// destructive-change gate never has to sniff SQL text.
type Kind string

const (
	// Additive statements create new objects or widen existing ones
	Additive Kind = "additive"
	// Destructive statements drop objects, rename them, or narrow types
	Destructive Kind = "destructive"
)

// Statement is one ordered DDL statement in a migration plan
type Statement struct {
	SQL         string `json:"sql"`
	Description string `json:"description"`
	Kind        Kind   `json:"kind"`
}

// Plan is the ordered sequence of statements needed to converge the target
// environment onto the source shape. Statement order is dependency order and
// must be preserved verbatim through gating, sanitization, and application.
type Plan struct {
	Statements []Statement `json:"statements"`
}

// IsEmpty returns true when the plan contains no statements
func (p *Plan) IsEmpty() bool {
	return p == nil || len(p.Statements) == 0
}

// HasDestructive returns true if any statement is classified destructive
func (p *Plan) HasDestructive() bool {
	for _, stmt := range p.Statements {
		if stmt.Kind == Destructive {
			return true
		}
	}
	return false
}

// SQL renders the plan statements as a semicolon-terminated script
func (p *Plan) SQL() string {
	var sb []byte
	for _, stmt := range p.Statements {
		sb = append(sb, stmt.SQL...)
		sb = append(sb, ";\n"...)
	}
	return string(sb)
}

// ByteSize returns the rendered size of the plan
func (p *Plan) ByteSize() int {
	return len(p.SQL())
}
