package interpreter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const identPattern = `([A-Za-z_]\w*)`

// statement is one row of the matcher table.
type statement struct {
	kind    StatementKind
	pattern *regexp.Regexp
	// accept rejects regexp matches the handler cannot take, letting lower rows try
	accept func(match []string) bool
	exec   func(m *machine, c *call) error
}

// call carries one matched line and, for block statements, the lines around it.
type call struct {
	match   []string
	lines   []line
	pos     int
	next    int
	grammar *Grammar
}

// statementTable is the fixed priority order shared by every grammar. It is
// filled in init because block handlers refer back to it through execBlock.
var statementTable []statement

func init() {
	statementTable = []statement{
		{
			kind:    StmtFor,
			pattern: regexp.MustCompile(`^for\s+` + identPattern + `\s+in\s+(.+?)\s*:$`),
			exec:    execFor,
		},
		{
			kind:    StmtIf,
			pattern: regexp.MustCompile(`^if\s+(.+?)\s*:$`),
			exec:    execIf,
		},
		{
			kind:    StmtPrint,
			pattern: regexp.MustCompile(`^print\s*\((.*)\)$`),
			accept:  func(m []string) bool { return closes("print("+m[1]+")", len("print")) },
			exec:    execPrint,
		},
		{
			kind:    StmtAppend,
			pattern: regexp.MustCompile(`^` + identPattern + `\.append\((.*)\)$`),
			exec:    execAppend,
		},
		{
			kind:    StmtRemove,
			pattern: regexp.MustCompile(`^` + identPattern + `\.remove\((.*)\)$`),
			exec:    execRemove,
		},
		{
			kind:    StmtExtend,
			pattern: regexp.MustCompile(`^` + identPattern + `\.extend\((.*)\)$`),
			exec:    execExtend,
		},
		{
			kind:    StmtIndexAssign,
			pattern: regexp.MustCompile(`^` + identPattern + `\[(.+?)\]\s*=\s*([^=].*)$`),
			exec:    execIndexAssign,
		},
		{
			kind:    StmtListAssign,
			pattern: regexp.MustCompile(`^` + identPattern + `\s*=\s*(\[.*\])$`),
			accept:  func(m []string) bool { return closes(m[2], 0) },
			exec:    execListAssign,
		},
		{
			kind: StmtReducerAssign,
			pattern: regexp.MustCompile(`^` + identPattern + `\s*=\s*(sum|len|max|min)\(\s*` + identPattern + `\s*\)` +
				`(?:\s*/\s*len\(\s*` + identPattern + `\s*\))?$`),
			exec: execReducerAssign,
		},
		{
			kind:    StmtAugAssign,
			pattern: regexp.MustCompile(`^` + identPattern + `\s*(\+|-|\*)=\s*(.+)$`),
			exec:    execAugAssign,
		},
		{
			kind:    StmtAssign,
			pattern: regexp.MustCompile(`^` + identPattern + `\s*=\s*([^=].*)$`),
			exec:    execAssign,
		},
	}
}

var elseRe = regexp.MustCompile(`^else\s*:$`)
var elifRe = regexp.MustCompile(`^elif\s+(.+?)\s*:$`)

func execPrint(m *machine, c *call) error {
	args, err := m.evalArgs(c.match[1])
	if err != nil {
		return err
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return m.emit(strings.Join(parts, " "))
}

func (m *machine) listVar(name string) (Value, error) {
	v, err := m.lookup(name)
	if err != nil {
		return Value{}, err
	}
	if v.kind != KindList {
		return Value{}, fmt.Errorf("%s object has no list methods", v.kind)
	}
	return v, nil
}

func execAppend(m *machine, c *call) error {
	list, err := m.listVar(c.match[1])
	if err != nil {
		return err
	}
	v, err := m.eval(c.match[2])
	if err != nil {
		return err
	}
	if err := checkLen(len(list.list.items), 1); err != nil {
		return err
	}
	list.list.items = append(list.list.items, v)
	return nil
}

// execRemove drops the first equal element; a missing element is a no-op.
func execRemove(m *machine, c *call) error {
	list, err := m.listVar(c.match[1])
	if err != nil {
		return err
	}
	v, err := m.eval(c.match[2])
	if err != nil {
		return err
	}
	items := list.list.items
	for i := range items {
		if items[i].Equal(v) {
			list.list.items = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

// execExtend mutates the receiver in place.
func execExtend(m *machine, c *call) error {
	list, err := m.listVar(c.match[1])
	if err != nil {
		return err
	}
	other, err := m.eval(c.match[2])
	if err != nil {
		return err
	}
	if other.kind != KindList {
		return fmt.Errorf("%s object is not iterable", other.kind)
	}
	if err := checkLen(len(list.list.items), len(other.list.items)); err != nil {
		return err
	}
	// copy first so x.extend(x) doubles rather than loops
	list.list.items = append(list.list.items, other.Items()...)
	return nil
}

func execIndexAssign(m *machine, c *call) error {
	list, err := m.listVar(c.match[1])
	if err != nil {
		return err
	}
	idx, err := m.eval(c.match[2])
	if err != nil {
		return err
	}
	v, err := m.eval(c.match[3])
	if err != nil {
		return err
	}
	i, err := resolveIndex(idx, len(list.list.items))
	if err != nil {
		return err
	}
	list.list.items[i] = v
	return nil
}

// execListAssign builds a list from literal items. Bare words that are not
// variables become 0 in a list without quoted strings and are skipped otherwise.
func execListAssign(m *machine, c *call) error {
	inner := strings.TrimSpace(c.match[2])
	inner = inner[1 : len(inner)-1]

	var raw []string
	if strings.TrimSpace(inner) != "" {
		raw = splitTopLevel(inner, ',')
		if last := strings.TrimSpace(raw[len(raw)-1]); last == "" && len(raw) > 1 {
			raw = raw[:len(raw)-1]
		}
	}

	hasStrings := false
	for _, r := range raw {
		if isStringLiteral(strings.TrimSpace(r)) {
			hasStrings = true
			break
		}
	}

	items := make([]Value, 0, len(raw))
	for _, r := range raw {
		tok := strings.TrimSpace(r)
		if identRe.MatchString(tok) && tok != "True" && tok != "False" {
			if v, ok := m.env[tok]; ok {
				items = append(items, v)
			} else if !hasStrings {
				items = append(items, IntValue(0))
			}
			continue
		}
		v, err := m.eval(tok)
		if err != nil {
			return err
		}
		items = append(items, v)
	}

	m.env[c.match[1]] = ListValue(items...)
	return nil
}

// execReducerAssign skips the assignment when the list is missing or empty.
func execReducerAssign(m *machine, c *call) error {
	target, fn, listName, divisorName := c.match[1], c.match[2], c.match[3], c.match[4]

	list, ok := m.env[listName]
	if !ok || list.kind != KindList || len(list.list.items) == 0 {
		return nil
	}

	var result Value
	var err error
	switch fn {
	case "sum":
		result, err = sumOf(list)
	case "len":
		result = IntValue(int64(len(list.list.items)))
	default:
		result, err = extremeOf(fn, list)
	}
	if err != nil {
		return err
	}

	if divisorName != "" {
		divisor, ok := m.env[divisorName]
		if !ok || divisor.kind != KindList || len(divisor.list.items) == 0 {
			return nil
		}
		if result, err = arithmetic("/", result, IntValue(int64(len(divisor.list.items)))); err != nil {
			return err
		}
	}

	m.env[target] = result
	return nil
}

func execAugAssign(m *machine, c *call) error {
	current, err := m.lookup(c.match[1])
	if err != nil {
		return err
	}
	operand, err := m.eval(c.match[3])
	if err != nil {
		return err
	}
	// += on a list extends it in place, like Python
	if c.match[2] == "+" && current.kind == KindList && operand.kind == KindList {
		if err := checkLen(len(current.list.items), len(operand.list.items)); err != nil {
			return err
		}
		current.list.items = append(current.list.items, operand.Items()...)
		return nil
	}
	result, err := applyBinary(c.match[2], current, operand)
	if err != nil {
		return err
	}
	m.env[c.match[1]] = result
	return nil
}

func execAssign(m *machine, c *call) error {
	v, err := m.eval(c.match[2])
	if err != nil {
		return err
	}
	m.env[c.match[1]] = v
	return nil
}

// execFor runs the body once per element of a snapshot of the iterable.
func execFor(m *machine, c *call) error {
	body, end := blockAfter(c.lines, c.pos)
	c.next = end

	iterable, err := m.eval(c.match[2])
	if err != nil {
		return err
	}

	var elems []Value
	switch iterable.kind {
	case KindList:
		elems = iterable.Items()
	case KindString:
		for _, r := range iterable.s {
			elems = append(elems, StringValue(string(r)))
		}
	default:
		return fmt.Errorf("%s object is not iterable", iterable.kind)
	}

	for _, e := range elems {
		m.env[c.match[1]] = e
		if err := m.execBlock(body, c.grammar.loop); err != nil {
			return err
		}
	}
	return nil
}

// execIf handles an if header plus any elif and else clauses at the same indent.
func execIf(m *machine, c *call) error {
	type clause struct {
		cond string
		body []line
	}

	indent := c.lines[c.pos].indent
	body, end := blockAfter(c.lines, c.pos)
	clauses := []clause{{cond: c.match[1], body: body}}
	var elseBody []line
	hasElse := false

	for end < len(c.lines) && c.lines[end].indent == indent {
		text := c.lines[end].text
		if sub := elifRe.FindStringSubmatch(text); sub != nil {
			b, e := blockAfter(c.lines, end)
			clauses = append(clauses, clause{cond: sub[1], body: b})
			end = e
			continue
		}
		if elseRe.MatchString(text) {
			elseBody, end = blockAfter(c.lines, end)
			hasElse = true
		}
		break
	}
	c.next = end

	for _, cl := range clauses {
		v, err := m.eval(cl.cond)
		if err != nil {
			return err
		}
		if v.Truthy() {
			return m.execBlock(cl.body, c.grammar)
		}
	}
	if hasElse {
		return m.execBlock(elseBody, c.grammar)
	}
	return nil
}

// blockAfter returns the lines indented deeper than lines[pos] that follow it,
// and the index just past them.
func blockAfter(lines []line, pos int) ([]line, int) {
	end := pos + 1
	for end < len(lines) && lines[end].indent > lines[pos].indent {
		end++
	}
	return lines[pos+1 : end], end
}

// line is a non-blank, non-comment source line.
type line struct {
	num    int
	indent int
	text   string
}

// tabWidth is how many columns a leading tab counts for.
const tabWidth = 4

func splitLines(source string) []line {
	var out []line
	for i, raw := range strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n") {
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		indent := 0
		for _, r := range raw {
			if r == ' ' {
				indent++
			} else if r == '\t' {
				indent += tabWidth
			} else {
				break
			}
		}
		out = append(out, line{num: i + 1, indent: indent, text: stripTrailingComment(text)})
	}
	return out
}

// stripTrailingComment drops a # comment that starts outside any string literal.
func stripTrailingComment(text string) string {
	sc := scanner{src: text}
	for i := 0; i < len(text); i++ {
		sc.step(i)
		if text[i] == '#' && sc.quote == 0 {
			return strings.TrimSpace(text[:i])
		}
	}
	return text
}

// lineLabel is used in debug reasons.
func lineLabel(l line) string {
	return "line " + strconv.Itoa(l.num)
}
