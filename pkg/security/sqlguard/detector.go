// Copyright © 2025 kindguard authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

// Package sqlguard is a heuristic gate for SQL-injection-shaped input. It is
// a compensating control for call sites that cannot use parameterized
// queries, not a replacement for parameterization. The pattern table favors
// precision on well-known attack shapes over blocking all SQL-keyword prose,
// so quote-bearing business text will still trip the quote pattern.
package sqlguard

import (
	"regexp"
	"strings"
)

// PatternID identifies one entry in the detection table, so every match is
// attributable in audit logs and testable in isolation.
type PatternID string

// The versioned pattern table. IDs are stable; never reuse a retired ID.
const (
	PatternQuoteComment PatternID = "quote-comment"
	PatternTautology    PatternID = "boolean-tautology"
	PatternUnionSelect  PatternID = "union-select"
	PatternDDLDML       PatternID = "ddl-dml"
	PatternTimeBlind    PatternID = "time-blind"
	PatternStackedQuery PatternID = "stacked-query"
)

type pattern struct {
	id PatternID
	re *regexp.Regexp
}

var patterns = []pattern{
	{PatternQuoteComment, regexp.MustCompile(`'|--|#|/\*|\*/`)},
	{PatternTautology, regexp.MustCompile(`(?i)\bOR\s+'?\w+'?\s*=\s*'?\w+'?|'\s*OR\s*'[^']*'\s*=\s*'`)},
	{PatternUnionSelect, regexp.MustCompile(`(?i)\bUNION\s+(?:ALL\s+)?SELECT\b`)},
	{PatternDDLDML, regexp.MustCompile(`(?i)\b(?:DROP\s+TABLE|DELETE\s+FROM|INSERT\s+INTO|UPDATE\s+\w+\s+SET|TRUNCATE\s+TABLE|ALTER\s+TABLE)\b`)},
	{PatternTimeBlind, regexp.MustCompile(`(?i)\b(?:SLEEP|BENCHMARK|PG_SLEEP)\s*\(|\bWAITFOR\s+DELAY\b`)},
	{PatternStackedQuery, regexp.MustCompile(`;`)},
}

// Verdict is the result of screening one input value.
type Verdict struct {
	Suspicious      bool
	MatchedPatterns []PatternID
}

// Detect screens an input string against the full pattern table. Every
// matching pattern is reported, not just the first.
func Detect(input string) Verdict {
	if input == "" {
		return Verdict{}
	}

	var matched []PatternID
	for _, p := range patterns {
		if p.re.MatchString(input) {
			matched = append(matched, p.id)
		}
	}
	return Verdict{Suspicious: len(matched) > 0, MatchedPatterns: matched}
}

// querySeparators strips statement separators and comment markers even when
// Detect did not flag the input.
var querySeparators = strings.NewReplacer(
	";", "",
	"--", "",
	"/*", "",
	"*/", "",
	"'", "",
	"#", "",
)

// SanitizeForQuery is a defense-in-depth companion for the rare call site
// that cannot parameterize. It strips separators; it does not validate.
func SanitizeForQuery(input string) string {
	return querySeparators.Replace(input)
}

var numericIDPattern = regexp.MustCompile(`^-?\d+$`)

// IsNumericID reports whether s is exactly an optionally-signed integer.
// Path parameters that must be integers get validated with this before they
// ever reach a data layer.
func IsNumericID(s string) bool {
	return numericIDPattern.MatchString(s)
}
