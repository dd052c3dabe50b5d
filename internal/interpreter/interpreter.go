/*
Package interpreter fakes running the small slice of Python the lessons teach.

It is a line-oriented matcher, not a parser: each line is tried against one
global, fixed-priority table of statement patterns, and a Grammar chooses which
rows a lesson recognizes. Lines that match nothing are ignored. Any evaluation
failure collapses the whole run into one generic error line.
*/
package interpreter

import (
	"errors"
	"fmt"
	"sort"
)

const (
	// GenericErrorLine replaces all output when a run fails.
	GenericErrorLine = "Error in code! Check your syntax."
	// IndexErrorLine is printed for an out-of-range list index; the run continues.
	IndexErrorLine = "IndexError: list index out of range"

	DefaultMaxSteps  = 10_000
	DefaultMaxOutput = 500
)

var (
	errStepBudget  = errors.New("step budget exceeded")
	errOutputLimit = errors.New("output limit exceeded")
)

// Result is the outcome of one run.
type Result struct {
	Output []string         `json:"output"`
	Env    map[string]Value `json:"-"`
	Failed bool             `json:"failed"`
	// Err is the reason a failed run failed, for logs only.
	Err error `json:"-"`
}

// Vars renders the final environment as print() would show each variable.
func (r Result) Vars() map[string]string {
	out := make(map[string]string, len(r.Env))
	for k, v := range r.Env {
		out[k] = v.Repr()
	}
	return out
}

// VarNames returns the environment's variable names sorted.
func (r Result) VarNames() []string {
	names := make([]string, 0, len(r.Env))
	for k := range r.Env {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Runner executes source under fixed safety bounds.
type Runner struct {
	MaxSteps  int
	MaxOutput int
}

// DefaultRunner uses the default bounds.
var DefaultRunner = Runner{MaxSteps: DefaultMaxSteps, MaxOutput: DefaultMaxOutput}

// Run executes source with the default bounds. A nil grammar recognizes everything.
func Run(source string, g *Grammar) Result {
	return DefaultRunner.Run(source, g)
}

// Run executes source against g.
func (r Runner) Run(source string, g *Grammar) Result {
	if g == nil {
		g = FullGrammar()
	}
	m := &machine{
		env:       make(map[string]Value),
		out:       []string{},
		maxSteps:  r.MaxSteps,
		maxOutput: r.MaxOutput,
	}

	if err := m.execBlock(splitLines(source), g); err != nil {
		return Result{
			Output: []string{GenericErrorLine},
			Env:    map[string]Value{},
			Failed: true,
			Err:    err,
		}
	}
	return Result{Output: m.out, Env: m.env}
}

// machine is the mutable state of one run.
type machine struct {
	env       map[string]Value
	out       []string
	steps     int
	maxSteps  int
	maxOutput int
}

func (m *machine) emit(text string) error {
	if m.maxOutput > 0 && len(m.out) >= m.maxOutput {
		return errOutputLimit
	}
	m.out = append(m.out, text)
	return nil
}

func (m *machine) step() error {
	m.steps++
	if m.maxSteps > 0 && m.steps > m.maxSteps {
		return errStepBudget
	}
	return nil
}

// match finds the highest-priority enabled statement accepting text.
func (g *Grammar) match(text string) (*statement, []string) {
	for i := range statementTable {
		st := &statementTable[i]
		if !g.kinds[st.kind] {
			continue
		}
		sub := st.pattern.FindStringSubmatch(text)
		if sub == nil {
			continue
		}
		if st.accept != nil && !st.accept(sub) {
			continue
		}
		return st, sub
	}
	return nil, nil
}

// execBlock runs lines in order. A header the grammar does not recognize
// skips its whole indented block.
func (m *machine) execBlock(lines []line, g *Grammar) error {
	for i := 0; i < len(lines); {
		ln := lines[i]
		st, sub := g.match(ln.text)
		if st == nil {
			if _, end := blockAfter(lines, i); isHeader(ln.text) {
				i = end
			} else {
				i++
			}
			continue
		}

		if err := m.step(); err != nil {
			return err
		}

		c := &call{match: sub, lines: lines, pos: i, next: i + 1, grammar: g}
		err := st.exec(m, c)
		if errors.Is(err, ErrIndexOutOfRange) {
			err = m.emit(IndexErrorLine)
		}
		if err != nil {
			if errors.Is(err, errStepBudget) || errors.Is(err, errOutputLimit) {
				return err
			}
			return fmt.Errorf("%s: %w", lineLabel(ln), err)
		}
		i = c.next
	}
	return nil
}

func isHeader(text string) bool {
	return len(text) > 0 && text[len(text)-1] == ':'
}
