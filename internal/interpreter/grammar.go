package interpreter

import (
	"fmt"
	"strings"
)

// StatementKind names one recognizable statement shape.
type StatementKind string

const (
	StmtFor           StatementKind = "for"
	StmtIf            StatementKind = "if"
	StmtPrint         StatementKind = "print"
	StmtAppend        StatementKind = "append"
	StmtRemove        StatementKind = "remove"
	StmtExtend        StatementKind = "extend"
	StmtIndexAssign   StatementKind = "index_assign"
	StmtListAssign    StatementKind = "list_assign"
	StmtReducerAssign StatementKind = "reducer_assign"
	StmtAugAssign     StatementKind = "aug_assign"
	StmtAssign        StatementKind = "assign"
)

// Grammar is the subset of statement kinds a lesson recognizes. Matching
// always follows the global priority order regardless of how the subset was built.
type Grammar struct {
	kinds map[StatementKind]bool
	loop  *Grammar
}

// Allows reports whether kind is recognized.
func (g *Grammar) Allows(kind StatementKind) bool {
	return g.kinds[kind]
}

// Kinds lists the enabled kinds in priority order.
func (g *Grammar) Kinds() []StatementKind {
	var out []StatementKind
	for _, st := range statementTable {
		if g.kinds[st.kind] {
			out = append(out, st.kind)
		}
	}
	return out
}

// LoopBody returns the grammar applied inside for-loop bodies.
func (g *Grammar) LoopBody() *Grammar {
	return g.loop
}

// Builder assembles a Grammar.
type Builder struct {
	kinds []StatementKind
	loop  []StatementKind
	err   error
}

// NewBuilder starts an empty grammar. Loop bodies default to print only.
func NewBuilder() *Builder {
	return &Builder{}
}

// With enables kinds at the top level.
func (b *Builder) With(kinds ...StatementKind) *Builder {
	b.kinds = append(b.kinds, kinds...)
	return b
}

// WithNames enables kinds given by name, as read from lesson files.
func (b *Builder) WithNames(names ...string) *Builder {
	kinds, err := ParseKinds(names)
	if err != nil && b.err == nil {
		b.err = err
	}
	return b.With(kinds...)
}

// LoopBody sets the kinds recognized inside for-loop bodies.
func (b *Builder) LoopBody(kinds ...StatementKind) *Builder {
	b.loop = append(b.loop, kinds...)
	return b
}

// LoopBodyNames sets loop body kinds by name.
func (b *Builder) LoopBodyNames(names ...string) *Builder {
	kinds, err := ParseKinds(names)
	if err != nil && b.err == nil {
		b.err = err
	}
	return b.LoopBody(kinds...)
}

// Build validates the collected kinds and returns the grammar.
func (b *Builder) Build() (*Grammar, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.kinds) == 0 {
		return nil, fmt.Errorf("grammar needs at least one statement kind")
	}

	loopKinds := b.loop
	if len(loopKinds) == 0 {
		loopKinds = []StatementKind{StmtPrint}
	}

	top, err := kindSet(b.kinds)
	if err != nil {
		return nil, err
	}
	loop, err := kindSet(loopKinds)
	if err != nil {
		return nil, err
	}

	inner := &Grammar{kinds: loop}
	// nested loops inside a loop body reuse the loop body grammar
	inner.loop = inner
	return &Grammar{kinds: top, loop: inner}, nil
}

// MustBuild is Build for grammars defined in code.
func (b *Builder) MustBuild() *Grammar {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}

func kindSet(kinds []StatementKind) (map[StatementKind]bool, error) {
	set := make(map[StatementKind]bool, len(kinds))
	for _, k := range kinds {
		if !isKnownKind(k) {
			return nil, fmt.Errorf("unknown statement kind %q", k)
		}
		set[k] = true
	}
	return set, nil
}

func isKnownKind(k StatementKind) bool {
	for _, st := range statementTable {
		if st.kind == k {
			return true
		}
	}
	return false
}

// AllKinds lists every statement kind in priority order.
func AllKinds() []StatementKind {
	out := make([]StatementKind, len(statementTable))
	for i, st := range statementTable {
		out[i] = st.kind
	}
	return out
}

// ParseKinds converts names to kinds, rejecting unknown names.
func ParseKinds(names []string) ([]StatementKind, error) {
	out := make([]StatementKind, 0, len(names))
	for _, n := range names {
		k := StatementKind(strings.TrimSpace(strings.ToLower(n)))
		if !isKnownKind(k) {
			return nil, fmt.Errorf("unknown statement kind %q", n)
		}
		out = append(out, k)
	}
	return out, nil
}

// FullGrammar recognizes every statement kind, in loop bodies too.
func FullGrammar() *Grammar {
	all := AllKinds()
	return NewBuilder().With(all...).LoopBody(all...).MustBuild()
}
