//go:build unit

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
package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/db-anonymizer/src/errs"
)

func TestParse(t *testing.T) {
	tokens, err := Parse("Range [1-1000] for {email}")
	require.NoError(t, err)
	assert.Equal(t, []Token{
		Literal{Text: "Range "},
		Range{Min: 1, Max: 1000},
		Literal{Text: " for "},
		Reference{ID: "email"},
	}, tokens)
}

func TestParseRanges(t *testing.T) {
	for pattern, expected := range map[string]Range{
		"[1,5]":     {Min: 1, Max: 5},
		"[ 1 , 5 ]": {Min: 1, Max: 5},
		"[-10,-2]":  {Min: -10, Max: -2},
		"[-10--2]":  {Min: -10, Max: -2},
		"[200-556]": {Min: 200, Max: 556},
		"[7,7]":     {Min: 7, Max: 7},
	} {
		tokens, err := Parse(pattern)
		require.NoError(t, err, pattern)
		assert.Equal(t, []Token{expected}, tokens, pattern)
	}
}

func TestParseDeltas(t *testing.T) {
	tokens, err := Parse("{firstname} {firstname} {acme.address:city} {acme.address:zip} {acme.address:city}")
	require.NoError(t, err)
	assert.Equal(t, []Reference{
		{ID: "firstname", Delta: 0},
		{ID: "firstname", Delta: 1},
		{ID: "acme.address", Column: "city", Delta: 0},
		{ID: "acme.address", Column: "zip", Delta: 0},
		{ID: "acme.address", Column: "city", Delta: 1},
	}, References(tokens))
}

func TestParseEscapes(t *testing.T) {
	tokens, err := Parse(`\[not a range\] \{x\} a\\b`)
	require.NoError(t, err)
	assert.Equal(t, []Token{Literal{Text: `[not a range] {x} a\b`}}, tokens)
	assert.Equal(t, `\[not a range\] \{x\} a\\b`, String(tokens))
}

func TestParseErrors(t *testing.T) {
	for _, pattern := range []string{
		"",
		"[5,1]",
		"[-9223372036854775808,9223372036854775807]",
		"[-1,9223372036854775807]",
		"[1,5",
		"[a,b]",
		"[15]",
		"{}",
		"{email",
		"{email:}",
		"{em ail}",
		"{a{b}}",
		"oops]",
		"trailing \\",
	} {
		_, err := Parse(pattern)
		assert.Error(t, err, pattern)
		assert.True(t, errs.IsConfigurationError(err), pattern)
	}
}

func TestStringRoundTrip(t *testing.T) {
	pattern := "Order #[1,99999] for {firstname} {lastname} at {address:locality}"
	tokens, err := Parse(pattern)
	require.NoError(t, err)
	assert.Equal(t, pattern, String(tokens))
}
