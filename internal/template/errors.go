// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package template

import "fmt"

// Rule names the template rule a compile failure violated.
type Rule string

const (
	RuleRegionMarkers  Rule = "region-markers"
	RuleToggleMarkers  Rule = "toggle-markers"
	RuleLeadingSpace   Rule = "leading-space"
	RuleUnknownCode    Rule = "unknown-code"
	RuleDuplicateCode  Rule = "duplicate-code"
	RuleAdjacentVars   Rule = "adjacent-variables"
	RuleDanglingMarker Rule = "dangling-marker"
)

// Error reports a malformed template. Offset is the character position in
// the raw template where the problem was found, or -1 when the rule concerns
// the template as a whole.
type Error struct {
	Rule   Rule
	Offset int
	Token  string
	Msg    string
}

func (e *Error) Error() string {
	switch {
	case e.Offset >= 0 && e.Token != "":
		return fmt.Sprintf("template %s: %s (%q at %d)", e.Rule, e.Msg, e.Token, e.Offset)
	case e.Offset >= 0:
		return fmt.Sprintf("template %s: %s (at %d)", e.Rule, e.Msg, e.Offset)
	}
	return fmt.Sprintf("template %s: %s", e.Rule, e.Msg)
}

func errorf(rule Rule, offset int, token, format string, args ...any) *Error {
	return &Error{Rule: rule, Offset: offset, Token: token, Msg: fmt.Sprintf(format, args...)}
}
