package interpreter

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrIndexOutOfRange is reported as an output line instead of failing the run.
var ErrIndexOutOfRange = errors.New("list index out of range")

// maxRangeLen caps range() so a single call cannot exhaust memory.
const maxRangeLen = 10_000

// maxValueLen caps the length of any list or string a run builds. Each step
// can double a value, so the step budget alone does not bound memory.
const maxValueLen = 100_000

var errValueTooLarge = fmt.Errorf("value longer than %d", maxValueLen)

// checkLen rejects a result of length a+b before it is allocated
func checkLen(a, b int) error {
	if a > maxValueLen-b {
		return errValueTooLarge
	}
	return nil
}

// repeatLen returns n*size, or an error when it would exceed maxValueLen.
// Non-positive counts repeat zero times.
func repeatLen(size int, n int64) (int, error) {
	if n <= 0 || size == 0 {
		return 0, nil
	}
	if n > int64(maxValueLen/size) {
		return 0, errValueTooLarge
	}
	return size * int(n), nil
}

var (
	identRe = regexp.MustCompile(`^[A-Za-z_]\w*$`)
	intRe   = regexp.MustCompile(`^\d+$`)
	floatRe = regexp.MustCompile(`^(\d+\.\d*|\.\d+)$`)
	callRe  = regexp.MustCompile(`^([A-Za-z_]\w*)\(`)
	indexRe = regexp.MustCompile(`^([A-Za-z_]\w*)\[`)
)

// scanner walks an expression tracking quote and bracket nesting so operators
// and commas are only recognized at the top level.
type scanner struct {
	src   string
	depth int
	quote byte
}

// step advances over src[i] and reports whether that byte sits at top level
// outside any string literal.
func (s *scanner) step(i int) bool {
	c := s.src[i]
	if s.quote != 0 {
		if c == '\\' {
			return false
		}
		if c == s.quote && !escaped(s.src, i) {
			s.quote = 0
		}
		return false
	}
	switch c {
	case '\'', '"':
		s.quote = c
		return false
	case '(', '[':
		s.depth++
		return false
	case ')', ']':
		s.depth--
		return false
	}
	return s.depth == 0
}

func escaped(src string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && src[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// splitTopLevel splits s on sep outside brackets and quotes.
func splitTopLevel(s string, sep byte) []string {
	sc := scanner{src: s}
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if sc.step(i) && s[i] == sep {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// closes reports whether the bracket opened at s[open] is closed by the last byte.
func closes(s string, open int) bool {
	sc := scanner{src: s}
	for i := 0; i < len(s); i++ {
		sc.step(i)
		if i > open && sc.depth == 0 && sc.quote == 0 {
			return i == len(s)-1
		}
	}
	return false
}

// isStringLiteral reports whether s is exactly one quoted literal.
func isStringLiteral(s string) bool {
	if len(s) < 2 || (s[0] != '\'' && s[0] != '"') || s[len(s)-1] != s[0] {
		return false
	}
	sc := scanner{src: s}
	for i := 0; i < len(s); i++ {
		sc.step(i)
		if i > 0 && sc.quote == 0 {
			return i == len(s)-1
		}
	}
	return false
}

func unquote(lit string) (string, error) {
	body := lit[1 : len(lit)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", errors.New("dangling escape")
		}
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '\\', '\'', '"':
			b.WriteByte(body[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(body[i])
		}
	}
	return b.String(), nil
}

// binaryOp is a top-level operator found in an expression.
type binaryOp struct {
	op  string
	pos int
}

var comparisonOps = []string{" not in ", " in ", "==", "!=", "<=", ">=", "<", ">"}

// findComparison returns the first top-level comparison or membership operator.
func findComparison(s string) (binaryOp, bool) {
	sc := scanner{src: s}
	for i := 0; i < len(s); i++ {
		if !sc.step(i) {
			continue
		}
		for _, op := range comparisonOps {
			if strings.HasPrefix(s[i:], op) {
				return binaryOp{op: strings.TrimSpace(op), pos: i}, true
			}
		}
	}
	return binaryOp{}, false
}

// findLastBinary returns the right-most top-level binary operator among ops,
// skipping unary signs.
func findLastBinary(s string, ops ...string) (binaryOp, bool) {
	sc := scanner{src: s}
	found := binaryOp{pos: -1}
	for i := 0; i < len(s); i++ {
		if !sc.step(i) {
			continue
		}
		for _, op := range ops {
			if !strings.HasPrefix(s[i:], op) {
				continue
			}
			if (op == "+" || op == "-") && !followsOperand(s[:i]) {
				continue
			}
			// "//" must not be read as two "/" operators
			if op == "/" && (strings.HasPrefix(s[i:], "//") || (i > 0 && s[i-1] == '/')) {
				continue
			}
			if op == "*" && (strings.HasPrefix(s[i:], "**") || (i > 0 && s[i-1] == '*')) {
				continue
			}
			found = binaryOp{op: op, pos: i}
			i += len(op) - 1
			break
		}
	}
	return found, found.pos >= 0
}

func followsOperand(prefix string) bool {
	prefix = strings.TrimRight(prefix, " \t")
	if prefix == "" {
		return false
	}
	c := prefix[len(prefix)-1]
	return c == ')' || c == ']' || c == '\'' || c == '"' || c == '_' ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// eval evaluates a restricted Python expression against env.
func (m *machine) eval(expr string) (Value, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return Value{}, errors.New("empty expression")
	}

	if strings.HasPrefix(s, "not ") {
		v, err := m.eval(s[4:])
		if err != nil {
			return Value{}, err
		}
		return BoolValue(!v.Truthy()), nil
	}

	if op, ok := findComparison(s); ok {
		return m.evalBinary(s, op, len(findOpText(s, op)))
	}
	if op, ok := findLastBinary(s, "+", "-"); ok {
		return m.evalBinary(s, op, len(op.op))
	}
	if op, ok := findLastBinary(s, "//", "*", "/", "%"); ok {
		return m.evalBinary(s, op, len(op.op))
	}

	if s[0] == '-' {
		v, err := m.eval(s[1:])
		if err != nil {
			return Value{}, err
		}
		switch v.kind {
		case KindInt, KindBool:
			return IntValue(-v.i), nil
		case KindFloat:
			return FloatValue(-v.f), nil
		}
		return Value{}, fmt.Errorf("bad operand for unary -: %s", v.kind)
	}

	return m.evalAtom(s)
}

// findOpText recovers the exact operator text, padding included, at op.pos.
func findOpText(s string, op binaryOp) string {
	for _, candidate := range comparisonOps {
		if strings.TrimSpace(candidate) == op.op && strings.HasPrefix(s[op.pos:], candidate) {
			return candidate
		}
	}
	return op.op
}

func (m *machine) evalBinary(s string, op binaryOp, width int) (Value, error) {
	left, err := m.eval(s[:op.pos])
	if err != nil {
		return Value{}, err
	}
	right, err := m.eval(s[op.pos+width:])
	if err != nil {
		return Value{}, err
	}
	return applyBinary(op.op, left, right)
}

func (m *machine) evalAtom(s string) (Value, error) {
	switch {
	case s[0] == '(' && closes(s, 0):
		return m.eval(s[1 : len(s)-1])
	case isStringLiteral(s):
		str, err := unquote(s)
		if err != nil {
			return Value{}, err
		}
		return StringValue(str), nil
	case s[0] == '[' && closes(s, 0):
		return m.evalListLiteral(s[1 : len(s)-1])
	case intRe.MatchString(s):
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, err
		}
		return IntValue(n), nil
	case floatRe.MatchString(s):
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, err
		}
		return FloatValue(f), nil
	case s == "True":
		return BoolValue(true), nil
	case s == "False":
		return BoolValue(false), nil
	}

	if sub := callRe.FindStringSubmatch(s); sub != nil && closes(s, len(sub[1])) {
		return m.evalCall(sub[1], s[len(sub[0]):len(s)-1])
	}
	if sub := indexRe.FindStringSubmatch(s); sub != nil && closes(s, len(sub[1])) {
		return m.evalIndex(sub[1], s[len(sub[0]):len(s)-1])
	}
	if identRe.MatchString(s) {
		return m.lookup(s)
	}
	return Value{}, fmt.Errorf("cannot evaluate %q", s)
}

func (m *machine) lookup(name string) (Value, error) {
	v, ok := m.env[name]
	if !ok {
		return Value{}, fmt.Errorf("name %q is not defined", name)
	}
	return v, nil
}

func (m *machine) evalArgs(inner string) ([]Value, error) {
	if strings.TrimSpace(inner) == "" {
		return nil, nil
	}
	parts := splitTopLevel(inner, ',')
	vals := make([]Value, 0, len(parts))
	for i, p := range parts {
		// a trailing comma is allowed
		if strings.TrimSpace(p) == "" && i == len(parts)-1 && i > 0 {
			break
		}
		v, err := m.eval(p)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func (m *machine) evalListLiteral(inner string) (Value, error) {
	items, err := m.evalArgs(inner)
	if err != nil {
		return Value{}, err
	}
	return ListValue(items...), nil
}

func (m *machine) evalIndex(name, indexExpr string) (Value, error) {
	target, err := m.lookup(name)
	if err != nil {
		return Value{}, err
	}
	idx, err := m.eval(indexExpr)
	if err != nil {
		return Value{}, err
	}
	return indexValue(target, idx)
}

// resolveIndex maps a possibly negative Python index onto [0, n).
func resolveIndex(idx Value, n int) (int, error) {
	if idx.kind != KindInt && idx.kind != KindBool {
		return 0, fmt.Errorf("indices must be integers, not %s", idx.kind)
	}
	i := idx.i
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return 0, ErrIndexOutOfRange
	}
	return int(i), nil
}

func indexValue(target, idx Value) (Value, error) {
	switch target.kind {
	case KindList:
		i, err := resolveIndex(idx, len(target.list.items))
		if err != nil {
			return Value{}, err
		}
		return target.list.items[i], nil
	case KindString:
		runes := []rune(target.s)
		i, err := resolveIndex(idx, len(runes))
		if err != nil {
			return Value{}, err
		}
		return StringValue(string(runes[i])), nil
	}
	return Value{}, fmt.Errorf("%s object is not subscriptable", target.kind)
}

func (m *machine) evalCall(fn, inner string) (Value, error) {
	args, err := m.evalArgs(inner)
	if err != nil {
		return Value{}, err
	}

	one := func() (Value, error) {
		if len(args) != 1 {
			return Value{}, fmt.Errorf("%s() takes exactly one argument", fn)
		}
		return args[0], nil
	}

	switch fn {
	case "len":
		arg, err := one()
		if err != nil {
			return Value{}, err
		}
		if arg.kind != KindList && arg.kind != KindString {
			return Value{}, fmt.Errorf("object of type %s has no len()", arg.kind)
		}
		return IntValue(int64(arg.Len())), nil
	case "sum":
		arg, err := one()
		if err != nil {
			return Value{}, err
		}
		return sumOf(arg)
	case "max", "min":
		arg, err := one()
		if err != nil {
			return Value{}, err
		}
		return extremeOf(fn, arg)
	case "str":
		arg, err := one()
		if err != nil {
			return Value{}, err
		}
		return StringValue(arg.String()), nil
	case "int":
		arg, err := one()
		if err != nil {
			return Value{}, err
		}
		return toInt(arg)
	case "float":
		arg, err := one()
		if err != nil {
			return Value{}, err
		}
		return toFloat(arg)
	case "abs":
		arg, err := one()
		if err != nil {
			return Value{}, err
		}
		switch arg.kind {
		case KindInt, KindBool:
			if arg.i < 0 {
				return IntValue(-arg.i), nil
			}
			return IntValue(arg.i), nil
		case KindFloat:
			return FloatValue(math.Abs(arg.f)), nil
		}
		return Value{}, fmt.Errorf("bad operand for abs(): %s", arg.kind)
	case "range":
		return rangeOf(args)
	}
	return Value{}, fmt.Errorf("name %q is not defined", fn)
}

func sumOf(list Value) (Value, error) {
	if list.kind != KindList {
		return Value{}, fmt.Errorf("%s object is not iterable", list.kind)
	}
	total := IntValue(0)
	for _, item := range list.list.items {
		var err error
		if !item.isNumeric() {
			return Value{}, fmt.Errorf("unsupported operand type for sum: %s", item.kind)
		}
		if total, err = applyBinary("+", total, item); err != nil {
			return Value{}, err
		}
	}
	return total, nil
}

func extremeOf(fn string, list Value) (Value, error) {
	if list.kind != KindList {
		return Value{}, fmt.Errorf("%s object is not iterable", list.kind)
	}
	items := list.list.items
	if len(items) == 0 {
		return Value{}, fmt.Errorf("%s() arg is an empty sequence", fn)
	}
	best := items[0]
	for _, item := range items[1:] {
		less, err := compare("<", item, best)
		if err != nil {
			return Value{}, err
		}
		if (fn == "min") == less.Bool() && !item.Equal(best) {
			best = item
		}
	}
	return best, nil
}

func toInt(v Value) (Value, error) {
	switch v.kind {
	case KindInt, KindBool:
		return IntValue(v.i), nil
	case KindFloat:
		return IntValue(int64(v.f)), nil
	case KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid literal for int(): %q", v.s)
		}
		return IntValue(n), nil
	}
	return Value{}, fmt.Errorf("int() argument must be a string or a number, not %s", v.kind)
}

func toFloat(v Value) (Value, error) {
	switch v.kind {
	case KindInt, KindBool, KindFloat:
		return FloatValue(v.Float()), nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return Value{}, fmt.Errorf("could not convert string to float: %q", v.s)
		}
		return FloatValue(f), nil
	}
	return Value{}, fmt.Errorf("float() argument must be a string or a number, not %s", v.kind)
}

func rangeOf(args []Value) (Value, error) {
	bounds := make([]int64, len(args))
	for i, a := range args {
		if a.kind != KindInt && a.kind != KindBool {
			return Value{}, fmt.Errorf("range() arguments must be integers, not %s", a.kind)
		}
		bounds[i] = a.i
	}

	var start, stop, step int64 = 0, 0, 1
	switch len(bounds) {
	case 1:
		stop = bounds[0]
	case 2:
		start, stop = bounds[0], bounds[1]
	case 3:
		start, stop, step = bounds[0], bounds[1], bounds[2]
	default:
		return Value{}, fmt.Errorf("range expected 1 to 3 arguments, got %d", len(bounds))
	}
	if step == 0 {
		return Value{}, errors.New("range() arg 3 must not be zero")
	}

	var items []Value
	for n := start; (step > 0 && n < stop) || (step < 0 && n > stop); n += step {
		if len(items) >= maxRangeLen {
			return Value{}, fmt.Errorf("range longer than %d", maxRangeLen)
		}
		items = append(items, IntValue(n))
	}
	return ListValue(items...), nil
}

func applyBinary(op string, a, b Value) (Value, error) {
	switch op {
	case "in", "not in":
		found, err := contains(b, a)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(found == (op == "in")), nil
	case "==":
		return BoolValue(a.Equal(b)), nil
	case "!=":
		return BoolValue(!a.Equal(b)), nil
	case "<", "<=", ">", ">=":
		return compare(op, a, b)
	case "+":
		return add(a, b)
	case "*":
		return multiply(a, b)
	case "-", "/", "//", "%":
		return arithmetic(op, a, b)
	}
	return Value{}, fmt.Errorf("unsupported operator %q", op)
}

func contains(container, item Value) (bool, error) {
	switch container.kind {
	case KindList:
		for _, v := range container.list.items {
			if v.Equal(item) {
				return true, nil
			}
		}
		return false, nil
	case KindString:
		if item.kind != KindString {
			return false, fmt.Errorf("'in <string>' requires string as left operand, not %s", item.kind)
		}
		return strings.Contains(container.s, item.s), nil
	}
	return false, fmt.Errorf("argument of type %s is not iterable", container.kind)
}

func compare(op string, a, b Value) (Value, error) {
	var cmp int
	switch {
	case a.isNumeric() && b.isNumeric():
		x, y := a.Float(), b.Float()
		if a.kind != KindFloat && b.kind != KindFloat {
			x, y = float64(a.i), float64(b.i)
		}
		switch {
		case x < y:
			cmp = -1
		case x > y:
			cmp = 1
		}
	case a.kind == KindString && b.kind == KindString:
		cmp = strings.Compare(a.s, b.s)
	default:
		return Value{}, fmt.Errorf("%q not supported between %s and %s", op, a.kind, b.kind)
	}

	switch op {
	case "<":
		return BoolValue(cmp < 0), nil
	case "<=":
		return BoolValue(cmp <= 0), nil
	case ">":
		return BoolValue(cmp > 0), nil
	}
	return BoolValue(cmp >= 0), nil
}

func add(a, b Value) (Value, error) {
	switch {
	case a.kind == KindList && b.kind == KindList:
		if err := checkLen(len(a.list.items), len(b.list.items)); err != nil {
			return Value{}, err
		}
		items := make([]Value, 0, len(a.list.items)+len(b.list.items))
		items = append(items, a.list.items...)
		items = append(items, b.list.items...)
		return ListValue(items...), nil
	case a.kind == KindString && b.kind == KindString:
		if err := checkLen(len(a.s), len(b.s)); err != nil {
			return Value{}, err
		}
		return StringValue(a.s + b.s), nil
	case a.isNumeric() && b.isNumeric():
		if a.kind == KindFloat || b.kind == KindFloat {
			return FloatValue(a.Float() + b.Float()), nil
		}
		return IntValue(a.i + b.i), nil
	}
	return Value{}, fmt.Errorf("unsupported operand types for +: %s and %s", a.kind, b.kind)
}

func multiply(a, b Value) (Value, error) {
	if a.kind == KindInt && (b.kind == KindString || b.kind == KindList) {
		a, b = b, a
	}
	switch {
	case a.kind == KindString && b.kind == KindInt:
		total, err := repeatLen(len(a.s), b.i)
		if err != nil {
			return Value{}, err
		}
		if total == 0 {
			return StringValue(""), nil
		}
		return StringValue(strings.Repeat(a.s, int(b.i))), nil
	case a.kind == KindList && b.kind == KindInt:
		total, err := repeatLen(len(a.list.items), b.i)
		if err != nil {
			return Value{}, err
		}
		items := make([]Value, 0, total)
		for len(items) < total {
			items = append(items, a.list.items...)
		}
		return ListValue(items...), nil
	case a.isNumeric() && b.isNumeric():
		if a.kind == KindFloat || b.kind == KindFloat {
			return FloatValue(a.Float() * b.Float()), nil
		}
		return IntValue(a.i * b.i), nil
	}
	return Value{}, fmt.Errorf("unsupported operand types for *: %s and %s", a.kind, b.kind)
}

func arithmetic(op string, a, b Value) (Value, error) {
	if !a.isNumeric() || !b.isNumeric() {
		return Value{}, fmt.Errorf("unsupported operand types for %s: %s and %s", op, a.kind, b.kind)
	}
	useFloat := a.kind == KindFloat || b.kind == KindFloat

	switch op {
	case "-":
		if useFloat {
			return FloatValue(a.Float() - b.Float()), nil
		}
		return IntValue(a.i - b.i), nil
	case "/":
		if b.Float() == 0 {
			return Value{}, errors.New("division by zero")
		}
		return FloatValue(a.Float() / b.Float()), nil
	case "//":
		if b.Float() == 0 {
			return Value{}, errors.New("integer division or modulo by zero")
		}
		if useFloat {
			return FloatValue(math.Floor(a.Float() / b.Float())), nil
		}
		q := a.i / b.i
		if (a.i%b.i != 0) && ((a.i < 0) != (b.i < 0)) {
			q--
		}
		return IntValue(q), nil
	case "%":
		if b.Float() == 0 {
			return Value{}, errors.New("integer division or modulo by zero")
		}
		if useFloat {
			r := math.Mod(a.Float(), b.Float())
			if r != 0 && (r < 0) != (b.Float() < 0) {
				r += b.Float()
			}
			return FloatValue(r), nil
		}
		r := a.i % b.i
		if r != 0 && (r < 0) != (b.i < 0) {
			r += b.i
		}
		return IntValue(r), nil
	}
	return Value{}, fmt.Errorf("unsupported operator %q", op)
}
