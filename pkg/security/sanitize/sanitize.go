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

// Package sanitize neutralizes markup and script vectors in untrusted input.
// Escaping is NOT idempotent: re-sanitizing escapes the ampersands the first
// pass introduced ("&lt;" becomes "&amp;lt;"), so sanitize exactly once at
// the trust boundary.
package sanitize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrExcessiveNesting indicates a payload nested deeper than the allowed maximum.
	ErrExcessiveNesting = errors.New("sanitize: excessive nesting")
	// ErrUnsafeKey indicates an object key carrying a markup or script vector.
	ErrUnsafeKey = errors.New("sanitize: unsafe object key")
	// ErrKeyTooLong indicates an object key over the maximum allowed length.
	ErrKeyTooLong = errors.New("sanitize: object key too long")
)

// MaxDepth is the default recursion limit for SanitizeDeep.
const MaxDepth = 5

// MaxKeyLength is the maximum accepted length of an object key.
const MaxKeyLength = 100

// escaper rewrites every occurrence of the dangerous character set in a
// single pass. The ampersand goes first so entities stay unambiguous.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// unsafeKeyPattern matches key content that smells like a markup or
// event-handler injection attempt.
var unsafeKeyPattern = regexp.MustCompile(`(?i)[<>]|script|javascript:|on\w+=`)

// dangerousTagPattern matches whole tag bodies that must be stripped, not
// merely escaped, for content destined for raw HTML contexts. Non-greedy so
// adjacent tags are handled separately.
var dangerousTagPattern = regexp.MustCompile(`(?is)<(script|iframe|object|embed|applet)\b[^>]*>.*?</\s*(?:script|iframe|object|embed|applet)\s*>|<(?:script|iframe|object|embed|applet)\b[^>]*/?>`)

// Result reports what sanitization did to a value.
type Result struct {
	Original  string
	Sanitized string
	Modified  bool
}

// Sanitize entity-escapes the characters & < > " ' / in s.
func Sanitize(s string) Result {
	escaped := escaper.Replace(s)
	return Result{Original: s, Sanitized: escaped, Modified: escaped != s}
}

// SanitizeValue coerces any JSON-representable value to its string form and
// escapes it. nil becomes the empty string; the function never panics.
func SanitizeValue(v interface{}) Result {
	return Sanitize(coerce(v))
}

// coerce renders a value the way the JSON layer would.
func coerce(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// SanitizeDeep walks a decoded JSON value, escaping every string leaf and
// validating object keys. Nesting beyond maxDepth aborts the walk: crafted
// deeply-nested payloads are a resource-exhaustion and filter-evasion vector.
// Pass maxDepth <= 0 for the default.
func SanitizeDeep(v interface{}, maxDepth int) (interface{}, error) {
	if maxDepth <= 0 {
		maxDepth = MaxDepth
	}
	return sanitizeDeep(v, 0, maxDepth)
}

func sanitizeDeep(v interface{}, depth, maxDepth int) (interface{}, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: depth %d exceeds %d", ErrExcessiveNesting, depth, maxDepth)
	}

	switch x := v.(type) {
	case string:
		return Sanitize(x).Sanitized, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for key, val := range x {
			if err := validateKey(key); err != nil {
				return nil, err
			}
			cleaned, err := sanitizeDeep(val, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			out[key] = cleaned
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, elem := range x {
			cleaned, err := sanitizeDeep(elem, depth+1, maxDepth)
			if err != nil {
				return nil, err
			}
			out[i] = cleaned
		}
		return out, nil
	default:
		// Numbers, booleans and nulls carry no markup; pass through untouched.
		return v, nil
	}
}

// validateKey rejects object keys that carry injection vectors or are
// unreasonably long.
func validateKey(key string) error {
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: %d chars", ErrKeyTooLong, len(key))
	}
	if unsafeKeyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrUnsafeKey, key)
	}
	return nil
}

// StripTags removes script/iframe/object/embed/applet tags and their bodies
// and then escapes what remains. This is the stronger mode used for stored
// rich-text fields rendered in raw HTML contexts.
func StripTags(s string) Result {
	stripped := dangerousTagPattern.ReplaceAllString(s, "")
	escaped := escaper.Replace(stripped)
	return Result{Original: s, Sanitized: escaped, Modified: escaped != s}
}
