// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pdiddy/nmr-reporter/internal/cue"
	"github.com/pdiddy/nmr-reporter/internal/span"
	"github.com/pdiddy/nmr-reporter/internal/template"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	signalTemplate   = " /Signal: %c (%iH, %m, J = %j Hz)/; /."
	optionalTemplate = " /%c (%m*, J = %j Hz*)/; /."
	embeddedTemplate = " /%c (%m, %a) %i/, /"
	integralTemplate = " /%c (%iH)/; /"
	nmrTemplate      = "1H NMR (%f MHz, %s) δ /%c (%m*, J = %j Hz*, %iH)/, /."
)

func compile(t *testing.T, raw string) *template.Template {
	t.Helper()
	tpl, err := template.CompileText(raw)
	require.NoError(t, err)
	return tpl
}

func parse(t *testing.T, raw, text string, cfg Config) (*Spectrum, error) {
	t.Helper()
	return NewParser(compile(t, raw), cfg).Parse(context.Background(), "S1", span.New(text))
}

func texts(f Fields) map[cue.Code]string {
	out := make(map[cue.Code]string, len(f))
	for c, v := range f {
		out[c] = v.String()
	}
	return out
}

func recordTexts(s *Spectrum) []map[cue.Code]string {
	var out []map[cue.Code]string
	for _, r := range s.Records {
		out = append(out, texts(r.Fields))
	}
	return out
}

func strs(parts []span.Span) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p.String())
	}
	return out
}

func TestParseTwoSignals(t *testing.T) {
	tpl := compile(t, signalTemplate)
	s, err := NewParser(tpl, Config{}).Parse(context.Background(), "S1",
		span.New("Signal: 1.2 (3H, d, J = 7.5 Hz); Signal: 2.1 (1H, s, J = 0.0 Hz)."))
	require.NoError(t, err)

	want := []map[cue.Code]string{
		{"%c": "1.2", "%i": "3", "%m": "d", "%j": "7.5"},
		{"%c": "2.1", "%i": "1", "%m": "s", "%j": "0.0"},
	}
	if diff := cmp.Diff(want, recordTexts(s)); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	for _, r := range s.Records {
		assert.Equal(t, tpl.Fullest().Text(), r.Hypothesis.Text())
	}
	assert.Equal(t, "S1", s.Cypher)
	assert.Empty(t, s.Head)
}

func TestParseHead(t *testing.T) {
	s, err := parse(t, nmrTemplate,
		"1H NMR (400 MHz, CDCl3) δ 7.26 (d, J = 8.0 Hz, 2H), 7.10 (s, 1H).", Config{})
	require.NoError(t, err)

	assert.Equal(t, map[cue.Code]string{"%f": "400", "%s": "CDCl3"}, texts(s.Head))
	want := []map[cue.Code]string{
		{"%c": "7.26", "%m": "d", "%j": "8.0", "%i": "2"},
		{"%c": "7.10", "%m": "s", "%i": "1"},
	}
	if diff := cmp.Diff(want, recordTexts(s)); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []cue.Code{"%c", "%m", "%i"}, s.Records[1].Codes())
}

func TestParseHeadMissingConstant(t *testing.T) {
	_, err := parse(t, nmrTemplate, "13C NMR δ 1.0 (s, 1H).", Config{})

	var ie *InputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, HeadRecord, ie.Record)
	assert.Equal(t, "S1", ie.Cypher)
	assert.Contains(t, err.Error(), "head")
}

func TestOptionalPieceFallsBack(t *testing.T) {
	tpl := compile(t, optionalTemplate)
	parts := Split(tpl, span.New("7.26 (d, J = 8.1 Hz); 5.10 (s)."))
	require.Equal(t, []string{"7.26 (d, J = 8.1 Hz)", "5.10 (s)"}, strs(parts))

	h, n, err := Match(tpl, parts[0])
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, h.Contains("%j"))

	h, n, err = Match(tpl, parts[1])
	require.NoError(t, err)
	assert.Equal(t, 0, n, "the record lacks the optional anchor text")
	assert.False(t, h.Contains("%j"))

	fields, err := Extract(h, parts[1], tpl.Cues())
	require.NoError(t, err)
	assert.Equal(t, map[cue.Code]string{"%c": "5.10", "%m": "s"}, texts(fields))
}

func TestEmbeddedDelimiter(t *testing.T) {
	tpl := compile(t, embeddedTemplate)
	require.Equal(t, ", ", tpl.EffectiveDelimiter())

	parts := Split(tpl, span.New("7.26 (d, H-1, H-2) 1, 5.10 (s, OH) 1"))
	require.Equal(t, []string{"7.26 (d, H-1, H-2) 1", "5.10 (s, OH) 1"}, strs(parts))

	s, err := NewParser(tpl, Config{}).ParseRecords(context.Background(), "S2",
		span.New("7.26 (d, H-1, H-2) 1, 5.10 (s, OH) 1"))
	require.NoError(t, err)
	want := []map[cue.Code]string{
		{"%c": "7.26", "%m": "d", "%a": "H-1, H-2", "%i": "1"},
		{"%c": "5.10", "%m": "s", "%a": "OH", "%i": "1"},
	}
	if diff := cmp.Diff(want, recordTexts(s)); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitIsIdempotent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		text string
	}{
		{name: "direct", raw: signalTemplate, text: "Signal: 1.2 (3H, d, J = 7.5 Hz); Signal: 2.1 (1H, s, J = 0.0 Hz)."},
		{name: "optional", raw: optionalTemplate, text: "7.26 (d, J = 8.1 Hz); 5.10 (s)."},
		{name: "anchored", raw: embeddedTemplate, text: "7.26 (d, H-1, H-2) 1, 5.10 (s, OH) 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := compile(t, tt.raw)
			for _, rec := range Split(tpl, span.New(tt.text)) {
				again := Split(tpl, rec)
				require.Len(t, again, 1)
				assert.True(t, rec.Equal(again[0]), "%q became %q", rec.String(), again[0].String())
			}
		})
	}
}

func TestSplitDropsBlankSlices(t *testing.T) {
	tpl := compile(t, " /%c/; /")
	assert.Equal(t, []string{"1.0", "2.0"}, strs(Split(tpl, span.New("1.0; ; 2.0; "))))
}

func TestSplitFallsBackWithoutDelimiter(t *testing.T) {
	tpl := compile(t, embeddedTemplate)
	assert.Equal(t, []string{"7.26 (d) 1"}, strs(Split(tpl, span.New("7.26 (d) 1"))))
}

func TestSplitDropsTextBeforeLeftBoundary(t *testing.T) {
	// "H-2" sits between a delimiter and the next record's left anchor, so
	// it belongs to no record.
	tpl := compile(t, " /%c (%m), %a/, /")
	require.Equal(t, ", ", tpl.EffectiveDelimiter())

	text := span.New("1.0 (s), H-1, H-2, 2.0 (d), H-3")
	assert.Equal(t, []string{"1.0 (s), H-1", "2.0 (d), H-3"}, strs(Split(tpl, text)))

	s, err := NewParser(tpl, Config{}).ParseRecords(context.Background(), "S1", text)
	require.NoError(t, err)
	want := []map[cue.Code]string{
		{"%c": "1.0", "%m": "s", "%a": "H-1"},
		{"%c": "2.0", "%m": "d", "%a": "H-3"},
	}
	if diff := cmp.Diff(want, recordTexts(s)); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordAvailable(t *testing.T) {
	rec := &Record{Fields: Fields{"%c": span.New("1.0"), "%a": span.New("")}}
	assert.Equal(t, map[cue.Code]bool{"%c": true}, rec.Available())
	assert.Empty(t, (&Record{}).Available())
}

func TestMatchPenalty(t *testing.T) {
	// Optional pieces "<%m" and ">%j". The fullest hypothesis needs "<"
	// before "|>", which neither record has, so both fall to the group of
	// one optional piece: "<" ... "|!" and "|>" ... "!".
	tpl := compile(t, " /%c*<%m*|*>%j*!/ /")

	tests := []struct {
		name   string
		record string
		want   []string
	}{
		{name: "fewest repeats wins", record: "1|>2!<<<s|!", want: []string{"|>", "!"}},
		{name: "first wins a tie", record: "1|>2!<<s|!", want: []string{"<", "|!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, n, err := Match(tpl, span.New(tt.record))
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			assert.Equal(t, tt.want, h.ConstantTexts())
		})
	}
}

func TestMatchPureVariable(t *testing.T) {
	tpl := compile(t, " /%a/$/")

	h, n, err := Match(tpl, span.New("anything, really"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	fields, err := Extract(h, span.New("anything, really"), tpl.Cues())
	require.NoError(t, err)
	assert.Equal(t, "anything, really", fields["%a"].String())
}

func TestMatchNoHypothesis(t *testing.T) {
	tpl := compile(t, integralTemplate)

	_, _, err := Match(tpl, span.New("nothing to see"))
	var ie *InputError
	require.True(t, errors.As(err, &ie))
	assert.Contains(t, err.Error(), "no hypothesis")
}

func TestExtractLatestBeforeNext(t *testing.T) {
	tpl := compile(t, " /%a: %c/; /")

	fields, err := Extract(tpl.Fullest(), span.New("H-1: note: 7.26"), tpl.Cues())
	require.NoError(t, err)
	assert.Equal(t, map[cue.Code]string{"%a": "H-1: note", "%c": "7.26"}, texts(fields))
}

func TestExtractCueValidation(t *testing.T) {
	tests := []struct {
		name    string
		record  string
		want    map[cue.Code]string
		wantErr bool
	}{
		{name: "accepted", record: "7.26 (12H)", want: map[cue.Code]string{"%c": "7.26", "%i": "12"}},
		{name: "free-form keeps anything", record: "7.26–7.30 ~ (1H)", want: map[cue.Code]string{"%c": "7.26–7.30 ~", "%i": "1"}},
		{name: "rejected character", record: "7.26 (1xH)", wantErr: true},
		{name: "rejected space", record: "7.26 (1 H)", wantErr: true},
	}
	tpl := compile(t, integralTemplate)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := Extract(tpl.Fullest(), span.New(tt.record), tpl.Cues())
			if tt.wantErr {
				var ie *InputError
				require.True(t, errors.As(err, &ie), "want *InputError, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, texts(fields))
		})
	}
}

func TestExtractRepeatedConstantEndsField(t *testing.T) {
	// The text before the last ", " holds the multiplicity and half the
	// assignment; the multiplicity cue stops at the first ", ".
	tpl := compile(t, embeddedTemplate)

	fields, err := Extract(tpl.Fullest(), span.New("1.0 (dd, H-3, H-4) 2"), tpl.Cues())
	require.NoError(t, err)
	assert.Equal(t, "dd", fields["%m"].String())
	assert.Equal(t, "H-3, H-4", fields["%a"].String())
	assert.Equal(t, "2", fields["%i"].String())
}

func TestExtractKeepsStyle(t *testing.T) {
	tpl := compile(t, signalTemplate)
	it := span.Style{}.With(span.Italic, true)
	rec := span.New("Signal: 1.2 (3H, ").Concat(span.Styled("d", it)).Concat(span.New(", J = 7.5 Hz)"))

	fields, err := Extract(tpl.Fullest(), rec, tpl.Cues())
	require.NoError(t, err)
	m := fields["%m"]
	require.Equal(t, 1, m.Len())
	assert.True(t, m.At(0).Style.Has(span.Italic))
}

func TestParseRecordErrors(t *testing.T) {
	const text = "1.0 (2H); 2.0 (xH); 3.0 (1H)"

	t.Run("abort", func(t *testing.T) {
		s, err := parse(t, integralTemplate, text, Config{Workers: 3})
		assert.Nil(t, s)
		var ie *InputError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, 1, ie.Record)
		assert.Contains(t, err.Error(), "record 2")
	})

	t.Run("collect", func(t *testing.T) {
		s, err := parse(t, integralTemplate, text, Config{Workers: 3, CollectErrors: true})
		require.NotNil(t, s)
		require.Error(t, err)
		var ie *InputError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, 1, ie.Record)

		want := []map[cue.Code]string{
			{"%c": "1.0", "%i": "2"},
			{"%c": "3.0", "%i": "1"},
		}
		if diff := cmp.Diff(want, recordTexts(s)); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestParseKeepsOrderAcrossWorkers(t *testing.T) {
	tpl := compile(t, " /%c/; /")
	var text string
	var want []map[cue.Code]string
	for i := 0; i < 50; i++ {
		v := string(rune('A' + i%26))
		if i > 0 {
			text += "; "
		}
		text += v
		want = append(want, map[cue.Code]string{"%c": v})
	}

	s, err := NewParser(tpl, Config{Workers: 8}).ParseRecords(context.Background(), "S", span.New(text))
	require.NoError(t, err)
	if diff := cmp.Diff(want, recordTexts(s)); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser(compile(t, " /%c/; /"), Config{}).ParseRecords(ctx, "S", span.New("1; 2"))
	assert.ErrorIs(t, err, context.Canceled)
}
