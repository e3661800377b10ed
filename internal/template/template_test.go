// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package template

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/nmr-reporter/internal/cue"
	"github.com/pdiddy/nmr-reporter/internal/span"
)

const nmrTemplate = "1H NMR (%f MHz, %s) δ /%c (%m*, J = %j Hz*, %iH)/, /."

func mustCompile(t *testing.T, raw string, opts ...Option) *Template {
	t.Helper()
	tpl, err := CompileText(raw, opts...)
	require.NoError(t, err)
	return tpl
}

func kinds(items []Item) []Kind {
	out := make([]Kind, len(items))
	for i, it := range items {
		out[i] = it.Kind
	}
	return out
}

func TestCompileRegions(t *testing.T) {
	tpl := mustCompile(t, nmrTemplate)

	assert.Equal(t, []string{"1H NMR (", "%f", " MHz, ", "%s", ") δ "}, Strings(tpl.Head.Items()))
	assert.Equal(t, []cue.Code{"%f", "%s"}, tpl.Head.Codes())
	assert.Equal(t, ", ", tpl.Delimiter.String())
	assert.Equal(t, ".", tpl.End.String())

	items := tpl.Signal.Items()
	assert.Equal(t,
		[]string{"%c", " (", "%m", "", ", J = ", "%j", " Hz", "", ", ", "%i", "H)"},
		Strings(items))
	assert.Equal(t,
		[]Kind{Variable, Constant, Variable, Toggle, Constant, Variable, Constant, Toggle, Constant, Variable, Constant},
		kinds(items))
	assert.True(t, items[3].Optional(), "opening toggle switches optional on")
	assert.True(t, items[5].Optional())
	assert.False(t, items[7].Optional(), "closing toggle switches optional off")
	assert.False(t, items[8].Optional())

	assert.Equal(t, []string{" (", ", J = ", " Hz", ", ", "H)"}, tpl.Signal.ConstantTexts())
	assert.Equal(t, []string{", J = ", "%j", " Hz"}, Strings(tpl.Signal.Optionals()))
	assert.Len(t, tpl.Signal.Obligatories(), 6)
	assert.Len(t, tpl.Signal.Variables(), 4)
}

func TestCompileHypotheses(t *testing.T) {
	tpl := mustCompile(t, nmrTemplate)

	require.Equal(t, 1, tpl.OptionalPieces())
	pieces := tpl.Pieces()
	require.Len(t, pieces, 3)
	assert.Equal(t, []string{", J = ", "%j", " Hz"}, Strings(pieces[1]))

	groups := tpl.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].N)
	assert.Equal(t, 0, groups[1].N)

	full := tpl.Fullest()
	assert.Equal(t,
		[]string{"%c", " (", "%m", ", J = ", "%j", " Hz, ", "%i", "H)"},
		Strings(full.Items()))
	assert.True(t, full.Contains("%j"))

	short := groups[1].Hypotheses[0]
	assert.Equal(t, []string{"%c", " (", "%m", ", ", "%i", "H)"}, Strings(short.Items()))
	assert.False(t, short.Contains("%j"))
	assert.Equal(t, []cue.Code{"%c", "%m", "%i"}, short.Codes())
}

func TestEffectiveDelimiter(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "obligatory closing constant", raw: nmrTemplate, want: "H), "},
		{name: "ends in variable", raw: " /%c, %i/; /", want: "; "},
		{name: "ends in optional constant", raw: " /%c*, x*/; /", want: "; "},
		{name: "ends in constant after optional", raw: " /%c*, %i*)/; /", want: "); "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustCompile(t, tt.raw).EffectiveDelimiter())
		})
	}
}

func TestHypothesisCountAndOrder(t *testing.T) {
	tpl := mustCompile(t, " /A*B*C*D*E*F*G/, /")

	require.Equal(t, 3, tpl.OptionalPieces())
	assert.Equal(t, 8, tpl.NumHypotheses(), "C(3,0)+C(3,1)+C(3,2)+C(3,3)")

	var got [][]string
	for i, g := range tpl.Groups() {
		assert.Equal(t, 3-i, g.N, "groups are ordered fullest first")
		var texts []string
		for _, h := range g.Hypotheses {
			require.Equal(t, 1, h.Len(), "adjacent constants are spliced")
			texts = append(texts, h.Text())
		}
		got = append(got, texts)
	}
	assert.Equal(t, [][]string{
		{"ABCDEFG"},
		{"ABCDEG", "ABCEFG", "ACDEFG"},
		{"ABCEG", "ACDEG", "ACEFG"},
		{"ACEG"},
	}, got)
}

func TestCombinations(t *testing.T) {
	assert.Equal(t, [][]int{{0, 1}, {0, 2}, {1, 2}, {0, 3}, {1, 3}, {2, 3}}, combinations(4, 2))
	assert.Equal(t, [][]int{{0}, {1}, {2}}, combinations(3, 1))
	assert.Equal(t, [][]int{{}}, combinations(3, 0))
	assert.Equal(t, [][]int{{0, 1, 2}}, combinations(3, 3))
	assert.Equal(t, [][]int{{}}, combinations(0, 0))

	binom := func(k, n int) int {
		r := 1
		for i := 0; i < n; i++ {
			r = r * (k - i) / (i + 1)
		}
		return r
	}
	for k := 0; k <= 6; k++ {
		for n := 0; n <= k; n++ {
			combos := combinations(k, n)
			assert.Len(t, combos, binom(k, n), "k=%d n=%d", k, n)
			seen := make(map[string]bool)
			for _, c := range combos {
				assert.Len(t, c, n)
				key := ""
				for _, i := range c {
					key += string(rune('a' + i))
				}
				assert.False(t, seen[key], "duplicate combination %v", c)
				seen[key] = true
			}
		}
	}
}

func TestSplicedVariablesKeepCodes(t *testing.T) {
	tpl := mustCompile(t, " /%c* x*%m/, /")

	groups := tpl.Groups()
	require.Len(t, groups, 2)
	short := groups[1].Hypotheses[0]
	require.Equal(t, 1, short.Len())
	v := short.Item(0)
	assert.Equal(t, Variable, v.Kind)
	assert.Equal(t, []cue.Code{"%c", "%m"}, v.Codes)
	assert.Equal(t, cue.Code("%c"), v.Code())
	assert.Equal(t, "%c%m", v.String())
}

func TestSubsetOf(t *testing.T) {
	tpl := mustCompile(t, nmrTemplate)
	full := tpl.Fullest()

	assert.True(t, full.SubsetOf(map[cue.Code]bool{"%c": true, "%m": true, "%j": true, "%i": true, "%a": true}))
	assert.False(t, full.SubsetOf(map[cue.Code]bool{"%c": true, "%m": true, "%i": true}))
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		rule   Rule
		offset int
	}{
		{name: "no region markers", raw: "%c, %i", rule: RuleRegionMarkers, offset: -1},
		{name: "four region markers", raw: " /%c/, /./", rule: RuleRegionMarkers, offset: -1},
		{name: "odd toggles", raw: " /%c*x/, /", rule: RuleToggleMarkers, offset: -1},
		{name: "no space before first marker", raw: "x/%c/, /", rule: RuleLeadingSpace, offset: 1},
		{name: "marker at start", raw: "/%c/, /", rule: RuleLeadingSpace, offset: 0},
		{name: "unknown code", raw: " /%z/, /", rule: RuleUnknownCode, offset: 2},
		{name: "duplicate across regions", raw: "%c /%c/, /", rule: RuleDuplicateCode, offset: 4},
		{name: "duplicate after case folding", raw: " /%c, %C/, /", rule: RuleDuplicateCode, offset: 6},
		{name: "adjacent variables", raw: " /%c%i/, /", rule: RuleAdjacentVars, offset: 4},
		{name: "adjacent through toggle", raw: " /%c*%i*/, /", rule: RuleAdjacentVars, offset: 5},
		{name: "dangling introducer", raw: " /x %/, /", rule: RuleDanglingMarker, offset: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileText(tt.raw)
			require.Error(t, err)
			var te *Error
			require.True(t, errors.As(err, &te), "want *template.Error, got %T", err)
			assert.Equal(t, tt.rule, te.Rule)
			assert.Equal(t, tt.offset, te.Offset)
			assert.Contains(t, err.Error(), string(tt.rule))
		})
	}
}

func TestCompileWithMarkers(t *testing.T) {
	tpl := mustCompile(t, " |$c (~$m~)|; |",
		WithMarkers(Markers{Region: '|', Toggle: '~', Variable: '$'}))

	assert.Equal(t, []cue.Code{"%c", "%m"}, tpl.Signal.Codes())
	assert.Equal(t, "; ", tpl.Delimiter.String())
	assert.Equal(t, 1, tpl.OptionalPieces())

	// The default markers are plain text now.
	tpl = mustCompile(t, " |a/b*c%|; |", WithMarkers(Markers{Region: '|', Toggle: '~', Variable: '$'}))
	assert.Equal(t, []string{"a/b*c%"}, tpl.Signal.ConstantTexts())
}

func TestCompileWithCues(t *testing.T) {
	table := cue.NewTable(cue.Cue{Code: "%x", Name: "x"})

	tpl := mustCompile(t, " /%x!/, /", WithCues(table))
	assert.Equal(t, []cue.Code{"%x"}, tpl.Signal.Codes())
	assert.Equal(t, table, tpl.Cues())

	_, err := CompileText(" /%c!/, /", WithCues(table))
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, RuleUnknownCode, te.Rule)
}

func TestCompileEmptySignal(t *testing.T) {
	tpl := mustCompile(t, " //, /")

	assert.Equal(t, 1, tpl.NumHypotheses())
	assert.Equal(t, 0, tpl.Fullest().Len())
}

func TestCompileKeepsStyle(t *testing.T) {
	sup := span.Style{}.With(span.Superscript, true)
	raw := span.Styled("1", sup).Concat(span.New("H NMR δ /%c/, /"))

	tpl, err := Compile(raw)
	require.NoError(t, err)
	head := tpl.Head.Item(0).Text
	assert.True(t, head.At(0).Style.Has(span.Superscript))
	assert.False(t, head.At(1).Style.Has(span.Superscript))
}
