// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"github.com/pdiddy/nmr-reporter/internal/cue"
	"github.com/pdiddy/nmr-reporter/internal/span"
	"github.com/pdiddy/nmr-reporter/internal/template"
)

// Extract pulls the field values of record according to hypothesis h.
//
// Constants are walked in order. Each one is taken at its last occurrence
// before the first occurrence of the next constant, so a constant repeated
// inside free text does not cut the field short. The text before it, less
// one leading space, belongs to the variable just before the constant. A
// variable after the last constant takes the rest of the record.
func Extract(h template.Section, record span.Span, cues cue.Table) (Fields, error) {
	items := h.Items()
	fields := make(Fields)

	var consts []int
	for i, it := range items {
		if it.Kind == template.Constant {
			consts = append(consts, i)
		}
	}
	if len(consts) == 0 {
		vars := h.Variables()
		if len(vars) == 0 {
			return fields, nil
		}
		v, err := takeField(record, "", lookup(cues, vars[0].Code()))
		if err != nil {
			return nil, err
		}
		fields[vars[0].Code()] = v
		return fields, nil
	}

	work := record
	for ci, p := range consts {
		c := items[p].String()
		n := runes(c)
		first := work.Index(c)
		if first < 0 {
			return nil, inputErrorf(record.String(), "constant %q not found", c)
		}

		bound := work.Len()
		if ci+1 < len(consts) {
			if next := work.IndexFrom(items[consts[ci+1]].String(), first+n); next >= 0 {
				bound = next
			}
		}
		pos := bound - work.To(bound).Reverse().Index(span.ReverseString(c)) - n

		raw := work.To(pos)
		skip := raw.Len()
		if p > 0 && items[p-1].Kind == template.Variable {
			trimmed := raw.TrimLeadingSpace()
			code := items[p-1].Code()
			v, err := takeField(trimmed, c, lookup(cues, code))
			if err != nil {
				return nil, err
			}
			fields[code] = v
			skip = raw.Len() - trimmed.Len() + v.Len()
		}
		work = work.From(skip + n)
	}

	if last := items[len(items)-1]; last.Kind == template.Variable {
		v, err := takeField(work.TrimLeadingSpace(), "", lookup(cues, last.Code()))
		if err != nil {
			return nil, err
		}
		fields[last.Code()] = v
	}
	return fields, nil
}

// takeField validates raw against the cue. For a restricted cue, meeting the
// bounding constant ends the field early; any other rejected character is an
// error.
func takeField(raw span.Span, constant string, c cue.Cue) (span.Span, error) {
	if c.FreeForm() {
		return raw.WithFlags(false, false), nil
	}
	for i := 0; i < raw.Len(); i++ {
		r := raw.At(i).Rune
		if c.Accepts(r) {
			continue
		}
		if constant != "" && raw.From(i).HasPrefix(constant) {
			return raw.To(i).WithFlags(false, false), nil
		}
		return span.Span{}, inputErrorf(raw.String(), "%s rejects %q", c.Name, r)
	}
	return raw.WithFlags(false, false), nil
}

func lookup(cues cue.Table, code cue.Code) cue.Cue {
	if c, ok := cues.Lookup(code); ok {
		return c
	}
	return cue.Cue{Code: code, Name: string(code)}
}
