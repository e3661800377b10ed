// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package span

import "unicode/utf8"

// Index returns the character offset of the first occurrence of sub, or -1.
func (s Span) Index(sub string) int { return s.IndexFrom(sub, 0) }

// IndexFrom returns the character offset of the first occurrence of sub at or
// after from, or -1.
func (s Span) IndexFrom(sub string, from int) int {
	return indexChars(s.chars, []rune(sub), from)
}

// LastIndex returns the character offset of the last occurrence of sub, or -1.
func (s Span) LastIndex(sub string) int {
	needle := []rune(sub)
	for i := len(s.chars) - len(needle); i >= 0; i-- {
		if hasRunesAt(s.chars, needle, i) {
			return i
		}
	}
	return -1
}

// Count returns the number of non-overlapping occurrences of sub. As with
// strings.Count, an empty sub counts one more than the number of characters.
func (s Span) Count(sub string) int {
	needle := []rune(sub)
	if len(needle) == 0 {
		return len(s.chars) + 1
	}
	n := 0
	for i := 0; ; {
		j := indexChars(s.chars, needle, i)
		if j < 0 {
			return n
		}
		n++
		i = j + len(needle)
	}
}

// Contains reports whether sub occurs in s.
func (s Span) Contains(sub string) bool { return s.Index(sub) >= 0 }

// HasPrefix reports whether s starts with sub.
func (s Span) HasPrefix(sub string) bool {
	return hasRunesAt(s.chars, []rune(sub), 0)
}

// HasSuffix reports whether s ends with sub.
func (s Span) HasSuffix(sub string) bool {
	needle := []rune(sub)
	return hasRunesAt(s.chars, needle, len(s.chars)-len(needle))
}

// Split cuts s around every occurrence of sep. The pieces keep their
// characters' styles and carry no flags. An empty sep yields s unchanged.
func (s Span) Split(sep string) []Span {
	needle := []rune(sep)
	if len(needle) == 0 {
		return []Span{s.WithFlags(false, false)}
	}
	var parts []Span
	start := 0
	for {
		j := indexChars(s.chars, needle, start)
		if j < 0 {
			break
		}
		parts = append(parts, s.Slice(start, j).WithFlags(false, false))
		start = j + len(needle)
	}
	return append(parts, s.From(start).WithFlags(false, false))
}

func indexChars(chars []Char, needle []rune, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i+len(needle) <= len(chars); i++ {
		if hasRunesAt(chars, needle, i) {
			return i
		}
	}
	return -1
}

func hasRunesAt(chars []Char, needle []rune, at int) bool {
	if at < 0 || at+len(needle) > len(chars) {
		return false
	}
	for k, r := range needle {
		if chars[at+k].Rune != r {
			return false
		}
	}
	return true
}

func runeCount(s string) int { return utf8.RuneCountInString(s) }

// ReverseString reverses the characters of s.
func ReverseString(s string) string {
	rs := []rune(s)
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
	return string(rs)
}
