/*
Copyright (c) YugabyteDB, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
// Package pattern parses the pattern language composing literal text,
// random integer ranges and references to other anonymizers:
//
//	Order #[1,99999] for {firstname} {lastname} at {address:locality}
//
// A backslash escapes the next character.
package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yugabyte/db-anonymizer/src/errs"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

type Token interface {
	String() string
}

type Literal struct {
	Text string
}

func (l Literal) String() string {
	var b strings.Builder
	for _, r := range l.Text {
		if strings.ContainsRune(`\[]{}`, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Range is a uniformly random integer in [Min, Max].
type Range struct {
	Min int64
	Max int64
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d]", r.Min, r.Max)
}

// Reference embeds the value of anonymizer ID, or of one Column of its sample.
// Delta counts the earlier references to the same ID and Column: equal
// deltas share a sample row, different deltas are drawn independently.
type Reference struct {
	ID     string
	Column string
	Delta  int
}

func (r Reference) String() string {
	if r.Column == "" {
		return "{" + r.ID + "}"
	}
	return "{" + r.ID + ":" + r.Column + "}"
}

func parseError(pos int, format string, args ...interface{}) error {
	return errs.NewConfigurationError("pattern: position %d: %s", pos+1, fmt.Sprintf(format, args...))
}

// Parse compiles a pattern. Adjacent literal text is merged into one token.
func Parse(pattern string) ([]Token, error) {
	var tokens []Token
	var literal strings.Builder
	deltas := make(map[string]int)

	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, Literal{Text: literal.String()})
			literal.Reset()
		}
	}

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '\\':
			if i+1 == len(runes) {
				return nil, parseError(i, "dangling escape character")
			}
			i++
			literal.WriteRune(runes[i])
		case '[':
			end, err := closing(runes, i, ']')
			if err != nil {
				return nil, err
			}
			rng, err := parseRange(string(runes[i+1:end]), i)
			if err != nil {
				return nil, err
			}
			flush()
			tokens = append(tokens, rng)
			i = end
		case '{':
			end, err := closing(runes, i, '}')
			if err != nil {
				return nil, err
			}
			ref, err := parseReference(string(runes[i+1:end]), i)
			if err != nil {
				return nil, err
			}
			key := ref.ID + ":" + ref.Column
			ref.Delta = deltas[key]
			deltas[key]++
			flush()
			tokens = append(tokens, ref)
			i = end
		case ']', '}':
			return nil, parseError(i, "unexpected %q, escape it as \\%c", r, r)
		default:
			literal.WriteRune(r)
		}
	}
	flush()
	if len(tokens) == 0 {
		return nil, errs.NewConfigurationError("pattern is empty")
	}
	return tokens, nil
}

func closing(runes []rune, start int, close rune) (int, error) {
	for i := start + 1; i < len(runes); i++ {
		switch runes[i] {
		case close:
			return i, nil
		case '[', '{', '\\':
			return 0, parseError(i, "unexpected %q inside %q", runes[i], runes[start])
		}
	}
	return 0, parseError(start, "%q is never closed", runes[start])
}

func parseRange(body string, pos int) (Range, error) {
	body = strings.TrimSpace(body)
	sep := strings.IndexRune(body, ',')
	if sep < 0 && len(body) > 1 {
		// "min-max", the first character may be a minus sign
		if i := strings.IndexRune(body[1:], '-'); i >= 0 {
			sep = i + 1
		}
	}
	if sep < 0 {
		return Range{}, parseError(pos, "range %q must be written [min,max]", body)
	}
	min, err := strconv.ParseInt(strings.TrimSpace(body[:sep]), 10, 64)
	if err != nil {
		return Range{}, parseError(pos, "range %q: invalid lower bound", body)
	}
	max, err := strconv.ParseInt(strings.TrimSpace(body[sep+1:]), 10, 64)
	if err != nil {
		return Range{}, parseError(pos, "range %q: invalid upper bound", body)
	}
	if min > max {
		return Range{}, parseError(pos, "range %q: lower bound is greater than upper bound", body)
	}
	if !sqlbuilder.IntRangeFits(min, max) {
		return Range{}, parseError(pos, "range %q is too wide", body)
	}
	return Range{Min: min, Max: max}, nil
}

func parseReference(body string, pos int) (Reference, error) {
	id, column, hasColumn := strings.Cut(strings.TrimSpace(body), ":")
	id = strings.TrimSpace(id)
	column = strings.TrimSpace(column)
	if !validID(id) {
		return Reference{}, parseError(pos, "invalid anonymizer reference %q", body)
	}
	if hasColumn && column == "" {
		return Reference{}, parseError(pos, "reference %q names no column", body)
	}
	return Reference{ID: id, Column: column}, nil
}

func validID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		ok := r == '_' || r == '-' || r == '.' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return false
		}
	}
	return true
}

// String renders tokens back to pattern syntax.
func String(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.String())
	}
	return b.String()
}

// References returns the reference tokens in pattern order.
func References(tokens []Token) []Reference {
	var refs []Reference
	for _, t := range tokens {
		if ref, ok := t.(Reference); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}
