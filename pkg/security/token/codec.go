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

// Package token issues and verifies the signed access tokens that carry a
// user's identity and role through the request security pipeline.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrEmptyToken indicates that no bearer token was supplied.
	ErrEmptyToken = errors.New("token: empty token")
	// ErrMalformedToken indicates that the token is not a three-segment JWT.
	ErrMalformedToken = errors.New("token: malformed token")
	// ErrInsecureAlgorithm indicates the token declares "none" or an unsupported algorithm.
	ErrInsecureAlgorithm = errors.New("token: insecure signing algorithm")
	// ErrTokenExpired indicates that the token has expired.
	ErrTokenExpired = errors.New("token: token has expired")
	// ErrInvalidSignature indicates that signature verification failed.
	ErrInvalidSignature = errors.New("token: invalid signature")
	// ErrTTLTooLong indicates an issue request exceeding the maximum allowed lifetime.
	ErrTTLTooLong = errors.New("token: ttl exceeds maximum")
)

// MaxTTL caps the lifetime of issued tokens to limit the blast radius of a leak.
const MaxTTL = 24 * time.Hour

// Claims are the verified contents of an access token. Role and identity are
// only ever derived from these claims, never from request headers.
type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	IssuedVia string `json:"issued_via,omitempty"`
}

// SubjectID returns the subject the token was issued for.
func (c *Claims) SubjectID() string {
	return c.Subject
}

// Codec encodes and verifies HMAC-signed access tokens.
type Codec struct {
	secret []byte
	issuer string
}

// NewCodec creates a codec signing with the given HMAC secret.
func NewCodec(secret []byte, issuer string) (*Codec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token: secret cannot be empty")
	}
	return &Codec{secret: secret, issuer: issuer}, nil
}

// Issue produces a signed token for the subject with the given role and ttl.
// The ttl is bounded by MaxTTL.
func (c *Codec) Issue(subjectID, role string, ttl time.Duration) (string, error) {
	if subjectID == "" {
		return "", fmt.Errorf("token: subject cannot be empty")
	}
	if ttl <= 0 || ttl > MaxTTL {
		return "", fmt.Errorf("%w: %s", ErrTTLTooLong, ttl)
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:      role,
		IssuedVia: "password",
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify parses and validates a raw bearer token. It is pure: repeated calls
// on the same input yield the same result and nothing is mutated.
func (c *Codec) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrEmptyToken
	}
	if strings.Count(raw, ".") != 2 {
		return nil, fmt.Errorf("%w: expected 3 segments", ErrMalformedToken)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, c.keyFunc)
	if err != nil {
		switch {
		case errors.Is(err, ErrInsecureAlgorithm):
			return nil, ErrInsecureAlgorithm
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}
	if !parsed.Valid {
		return nil, ErrInvalidSignature
	}
	return claims, nil
}

// keyFunc returns the HMAC secret after checking the declared algorithm.
// Anything other than HS256/384/512 is rejected outright, including "none".
func (c *Codec) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("%w: %s", ErrInsecureAlgorithm, t.Method.Alg())
	}
	return c.secret, nil
}
