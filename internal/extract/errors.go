// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"errors"
	"fmt"
	"strings"
)

// HeadRecord is the Record index reported for failures in a spectrum's head.
const HeadRecord = -1

// unlocated marks an error not yet tied to a record.
const unlocated = -2

// InputError reports input text that does not fit the template. The
// template itself compiled fine; this spectrum or record is the problem.
type InputError struct {
	Cypher string
	Record int
	Text   string
	Msg    string
}

func (e *InputError) Error() string {
	var b strings.Builder
	b.WriteString("input")
	if e.Cypher != "" {
		fmt.Fprintf(&b, " spectrum %s", e.Cypher)
	}
	switch {
	case e.Record == HeadRecord:
		b.WriteString(" head")
	case e.Record >= 0:
		fmt.Fprintf(&b, " record %d", e.Record+1)
	}
	fmt.Fprintf(&b, ": %s", e.Msg)
	if e.Text != "" {
		fmt.Fprintf(&b, " in %q", e.Text)
	}
	return b.String()
}

func inputErrorf(text string, format string, args ...any) *InputError {
	return &InputError{Record: unlocated, Text: text, Msg: fmt.Sprintf(format, args...)}
}

// at fills in the location of an InputError raised below the parser.
func at(err error, cypher string, record int) error {
	var ie *InputError
	if errors.As(err, &ie) {
		located := *ie
		located.Cypher = cypher
		located.Record = record
		return &located
	}
	return err
}
