package interpreter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(src ...string) string {
	return strings.Join(src, "\n")
}

func TestRunOutputs(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "index read",
			src:  lines(`pets = ["dog","cat","hamster"]`, `print(pets[1])`),
			want: []string{"cat"},
		},
		{
			name: "negative index",
			src:  lines(`pets = ["dog","cat","hamster"]`, `print(pets[-1])`),
			want: []string{"hamster"},
		},
		{
			name: "extend mutates in place",
			src: lines(
				`inventory=["sword","shield"]`,
				`inventory.extend(["potion"])`,
				`print(inventory)`,
			),
			want: []string{"['sword', 'shield', 'potion']"},
		},
		{
			name: "plus builds a new list",
			src: lines(
				`a = [1, 2]`,
				`b = [3]`,
				`c = a + b`,
				`print(a)`,
				`print(b)`,
				`print(c)`,
			),
			want: []string{"[1, 2]", "[3]", "[1, 2, 3]"},
		},
		{
			name: "sum and average",
			src: lines(
				`coins = [10, 25, 15, 30, 20]`,
				`total = sum(coins)`,
				`average = sum(coins)/len(coins)`,
				`print(total)`,
				`print(average)`,
			),
			want: []string{"100", "20.0"},
		},
		{
			name: "print reducers inline",
			src:  lines(`coins = [10, 25, 15, 30, 20]`, `print(sum(coins), len(coins), max(coins), min(coins))`),
			want: []string{"100 5 30 10"},
		},
		{
			name: "index out of range continues",
			src: lines(
				`pets = ["dog","cat","hamster"]`,
				`print(pets[5])`,
				`print("still here")`,
			),
			want: []string{IndexErrorLine, "still here"},
		},
		{
			name: "index assign out of range continues",
			src: lines(
				`pets = ["dog"]`,
				`pets[3] = "cat"`,
				`pets[0] = "parrot"`,
				`print(pets)`,
			),
			want: []string{IndexErrorLine, "['parrot']"},
		},
		{
			name: "append and remove first occurrence",
			src: lines(
				`bag = ["apple", "pear", "apple"]`,
				`bag.append("plum")`,
				`bag.remove("apple")`,
				`bag.remove("banana")`,
				`print(bag)`,
			),
			want: []string{"['pear', 'apple', 'plum']"},
		},
		{
			name: "membership",
			src: lines(
				`team = ["ada", "bob"]`,
				`print("ada" in team)`,
				`print("eve" in team)`,
				`print("eve" not in team)`,
			),
			want: []string{"True", "False", "True"},
		},
		{
			name: "string concatenation and multiple args",
			src: lines(
				`hero = "Pip"`,
				`print("Hello " + hero)`,
				`print("Level", 3, True)`,
				`print()`,
			),
			want: []string{"Hello Pip", "Level 3 True", ""},
		},
		{
			name: "for loop over list",
			src: lines(
				`pets = ["dog", "cat"]`,
				`for pet in pets:`,
				`    print("I love my " + pet)`,
				`print("done")`,
			),
			want: []string{"I love my dog", "I love my cat", "done"},
		},
		{
			name: "for loop over literal",
			src: lines(
				`for n in [1, 2, 3]:`,
				`    print(n * 2)`,
			),
			want: []string{"2", "4", "6"},
		},
		{
			name: "if in with else",
			src: lines(
				`snacks = ["chips", "grapes"]`,
				`if "grapes" in snacks:`,
				`    print("yum")`,
				`else:`,
				`    print("no grapes")`,
				`if "cake" in snacks:`,
				`    print("party")`,
				`else:`,
				`    print("no cake")`,
			),
			want: []string{"yum", "no cake"},
		},
		{
			name: "elif chain",
			src: lines(
				`score = 7`,
				`if score > 8:`,
				`    print("gold")`,
				`elif score > 5:`,
				`    print("silver")`,
				`else:`,
				`    print("bronze")`,
			),
			want: []string{"silver"},
		},
		{
			name: "comments and blank lines are skipped",
			src: lines(
				`# my first program`,
				``,
				`x = 5  # five`,
				`print(x) # show it`,
			),
			want: []string{"5"},
		},
		{
			name: "unrecognized lines are ignored",
			src: lines(
				`import random`,
				`x = 1`,
				`while x < 3:`,
				`    print("never")`,
				`print(x)`,
			),
			want: []string{"1"},
		},
		{
			name: "floats print python style",
			src:  lines(`print(7 / 2)`, `print(10 / 5)`, `print(0.1 + 0.2)`, `print(2.0 * 3)`),
			want: []string{"3.5", "2.0", "0.30000000000000004", "6.0"},
		},
		{
			name: "integer arithmetic",
			src:  lines(`print(7 // 2)`, `print(-7 // 2)`, `print(7 % 3)`, `print(-7 % 3)`, `print(2 - -3)`),
			want: []string{"3", "-4", "1", "2", "5"},
		},
		{
			name: "strings with quotes render like python",
			src:  lines(`words = ["it's", 'say "hi"']`, `print(words)`),
			want: []string{`["it's", 'say "hi"']`},
		},
		{
			name: "aliasing shares the list",
			src:  lines(`a = [1]`, `b = a`, `a.append(2)`, `print(b)`),
			want: []string{"[1, 2]"},
		},
		{
			name: "augmented assignment",
			src: lines(
				`total = 0`,
				`for c in [5, 10]:`,
				`    total += c`,
				`print(total)`,
			),
			want: []string{"15"},
		},
		{
			name: "range",
			src:  lines(`print(range(3))`, `print(len(range(2, 10, 2)))`),
			want: []string{"[0, 1, 2]", "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Run(tt.src, nil)
			require.False(t, res.Failed, "unexpected failure: %v", res.Err)
			assert.Equal(t, tt.want, res.Output)
		})
	}
}

func TestRunEnvironment(t *testing.T) {
	res := Run(lines(
		`inventory = ["sword", "shield"]`,
		`inventory.extend(["potion"])`,
		`coins = [10, 25, 15, 30, 20]`,
		`average = sum(coins)/len(coins)`,
		`a = [1]`,
		`b = [2]`,
		`c = a + b`,
	), nil)
	require.False(t, res.Failed)

	inv := res.Env["inventory"]
	require.Equal(t, KindList, inv.Kind())
	assert.Equal(t, 3, inv.Len(), "extend must mutate the receiver")

	avg := res.Env["average"]
	assert.Equal(t, KindFloat, avg.Kind())
	assert.Equal(t, 20.0, avg.Float())

	assert.Equal(t, 1, res.Env["a"].Len())
	assert.Equal(t, 1, res.Env["b"].Len())
	assert.Equal(t, 2, res.Env["c"].Len())

	assert.Equal(t, "['sword', 'shield', 'potion']", res.Vars()["inventory"])
	assert.Equal(t, []string{"a", "average", "b", "c", "coins", "inventory"}, res.VarNames())
}

func TestRunGenericError(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "undefined variable", src: lines(`print(ghost)`)},
		{name: "undefined after output", src: lines(`print("hi")`, `print(ghost)`)},
		{name: "type mismatch", src: lines(`x = "a" + 1`)},
		{name: "append to missing list", src: lines(`pets.append("dog")`)},
		{name: "append to non-list", src: lines(`x = 5`, `x.append(1)`)},
		{name: "division by zero", src: lines(`print(1 / 0)`)},
		{name: "bad expression", src: lines(`x = 3 +`)},
		{name: "max of empty", src: lines(`print(max([]))`)},
		{name: "len of int", src: lines(`print(len(5))`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Run(tt.src, nil)
			assert.True(t, res.Failed)
			assert.Equal(t, []string{GenericErrorLine}, res.Output)
			assert.Empty(t, res.Env)
			assert.Error(t, res.Err)
		})
	}
}

func TestReducerAssignSkipsEmptyOrMissing(t *testing.T) {
	res := Run(lines(
		`empty = []`,
		`avg = sum(empty)/len(empty)`,
		`total = sum(missing)`,
		`print("ok")`,
	), nil)
	require.False(t, res.Failed)
	assert.Equal(t, []string{"ok"}, res.Output)
	_, hasAvg := res.Env["avg"]
	_, hasTotal := res.Env["total"]
	assert.False(t, hasAvg)
	assert.False(t, hasTotal)
}

func TestListAssignCoercion(t *testing.T) {
	res := Run(lines(
		`nums = [1, two, 3.5]`,
		`words = ["a", b, "c"]`,
	), nil)
	require.False(t, res.Failed)
	assert.Equal(t, "[1, 0, 3.5]", res.Env["nums"].String())
	assert.Equal(t, "['a', 'c']", res.Env["words"].String())
}

func TestForIteratesOverSnapshot(t *testing.T) {
	g := NewBuilder().
		With(StmtListAssign, StmtFor, StmtPrint).
		LoopBody(StmtAppend, StmtPrint).
		MustBuild()

	res := Run(lines(
		`nums = [1, 2]`,
		`for n in nums:`,
		`    nums.append(n)`,
		`print(nums)`,
	), g)
	require.False(t, res.Failed)
	assert.Equal(t, []string{"[1, 2, 1, 2]"}, res.Output)
}

func TestGrammarRestrictsStatements(t *testing.T) {
	g := NewBuilder().With(StmtListAssign, StmtPrint, StmtFor).MustBuild()

	res := Run(lines(
		`pets = ["dog"]`,
		`pets.append("cat")`,
		`for p in pets:`,
		`    x = 1`,
		`    print(p)`,
		`print(pets)`,
	), g)
	require.False(t, res.Failed)
	assert.Equal(t, []string{"dog", "['dog']"}, res.Output, "append is not in the grammar and loop bodies only print")
	_, hasX := res.Env["x"]
	assert.False(t, hasX)
}

func TestBuilder(t *testing.T) {
	_, err := NewBuilder().Build()
	assert.Error(t, err, "empty grammar")

	_, err = NewBuilder().WithNames("print", "teleport").Build()
	assert.Error(t, err, "unknown kind name")

	_, err = NewBuilder().With(StmtPrint).LoopBodyNames("nope").Build()
	assert.Error(t, err)

	g, err := NewBuilder().WithNames("PRINT", " for ", "list_assign").Build()
	require.NoError(t, err)
	assert.Equal(t, []StatementKind{StmtFor, StmtPrint, StmtListAssign}, g.Kinds(), "kinds follow table priority")
	assert.Equal(t, []StatementKind{StmtPrint}, g.LoopBody().Kinds())
	assert.True(t, g.Allows(StmtFor))
	assert.False(t, g.Allows(StmtAppend))

	assert.Len(t, FullGrammar().Kinds(), len(AllKinds()))
}

func TestRunnerLimits(t *testing.T) {
	r := Runner{MaxSteps: 50, MaxOutput: 500}
	res := r.Run(lines(
		`for a in range(100):`,
		`    print(a)`,
	), nil)
	assert.True(t, res.Failed)
	assert.Equal(t, []string{GenericErrorLine}, res.Output)

	r = Runner{MaxSteps: 10_000, MaxOutput: 3}
	res = r.Run(lines(`for a in [1, 2, 3, 4]:`, `    print(a)`), nil)
	assert.True(t, res.Failed)

	res = Run(lines(`x = range(100000)`), nil)
	assert.True(t, res.Failed, "range is capped")
}

func TestValueSizeIsBounded(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "list repeat count overflows", src: lines(`a = [1, 2, 3, 4] * 4611686018427387904`)},
		{name: "string repeat too long", src: lines(`s = "x" * 200000`)},
		{name: "string doubling", src: lines(
			`s = "xxxxxxxxxx" * 10000`,
			`for i in range(40):`,
			`    s = s + s`,
		)},
		{name: "list concat doubling", src: lines(
			`a = [1, 2, 3]`,
			`for i in range(40):`,
			`    a = a + a`,
		)},
		{name: "aug assign doubling", src: lines(
			`a = [1, 2, 3]`,
			`for i in range(40):`,
			`    a += a`,
		)},
		{name: "extend doubling", src: lines(
			`a = [1, 2, 3]`,
			`for i in range(40):`,
			`    a.extend(a)`,
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Run(tt.src, nil)
			assert.True(t, res.Failed)
			assert.Equal(t, []string{GenericErrorLine}, res.Output)
		})
	}
}

func TestRepeatWithinBounds(t *testing.T) {
	res := Run(lines(
		`print("ab" * 3)`,
		`print(3 * [0])`,
		`print([1, 2] * 0)`,
		`print([] * 4611686018427387904)`,
	), nil)
	require.False(t, res.Failed, res.Err)
	assert.Equal(t, []string{"ababab", "[0, 0, 0]", "[]", "[]"}, res.Output)
}

func TestSelfReferencingList(t *testing.T) {
	res := Run(lines(
		`a = [1]`,
		`a.append(a)`,
		`print(a)`,
		`print(a == a)`,
	), nil)
	require.False(t, res.Failed, res.Err)
	assert.Equal(t, []string{"[1, [...]]", "True"}, res.Output)
}

func TestSharedSublistsPrintTruncated(t *testing.T) {
	res := Run(lines(
		`a = [1]`,
		`for i in range(60):`,
		`    a = [a, a]`,
		`print(len(a))`,
		`print(a)`,
	), nil)
	require.False(t, res.Failed, res.Err)
	require.Len(t, res.Output, 2)
	assert.Equal(t, "2", res.Output[0])
	assert.Less(t, len(res.Output[1]), 2*maxValueLen)
	assert.True(t, strings.HasSuffix(res.Output[1], "]"))
}

func TestNestedLoops(t *testing.T) {
	res := Run(lines(
		`for a in [1, 2]:`,
		`    for b in ["x", "y"]:`,
		`        print(a, b)`,
	), nil)
	require.False(t, res.Failed)
	assert.Equal(t, []string{"1 x", "1 y", "2 x", "2 y"}, res.Output)
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 20, want: "20.0"},
		{in: 2.5, want: "2.5"},
		{in: -0.5, want: "-0.5"},
		{in: 0, want: "0.0"},
		{in: 1234567, want: "1234567.0"},
		{in: 1e16, want: "1e+16"},
		{in: 0.00001, want: "1e-05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatFloat(tt.in), "formatFloat(%v)", tt.in)
	}
}
