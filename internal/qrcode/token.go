package qrcode

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/ummahconnect/community-backend/internal/apperr"
)

// tokenPrefix is the first segment of every check-in token.
const tokenPrefix = "event-checkin"

// Token is a decoded check-in token:
//
//	event-checkin:<eventId>:<issuedAtMillis>:<hex HMAC-SHA256>
//
// The HMAC covers the first three segments joined by ':'.
type Token struct {
	EventID        uint
	IssuedAtMillis int64
	Signature      string
}

// IssuedAt returns the issue instant.
func (t Token) IssuedAt() time.Time {
	return time.UnixMilli(t.IssuedAtMillis).UTC()
}

func (t Token) payload() string {
	return tokenPrefix + ":" + strconv.FormatUint(uint64(t.EventID), 10) + ":" + strconv.FormatInt(t.IssuedAtMillis, 10)
}

// String encodes the token in its wire form.
func (t Token) String() string {
	return t.payload() + ":" + t.Signature
}

// ParseToken decodes the wire form. It checks structure only; use
// Signer.Verify for authenticity.
func ParseToken(raw string) (Token, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 4 {
		return Token{}, invalidFormat("expected 4 segments")
	}
	if parts[0] != tokenPrefix {
		return Token{}, invalidFormat("unknown prefix")
	}

	eventID, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil || eventID == 0 {
		return Token{}, invalidFormat("bad event id")
	}
	issuedAt, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || issuedAt < 0 {
		return Token{}, invalidFormat("bad issue time")
	}
	if !isLowerHex(parts[3], sha256.Size*2) {
		return Token{}, invalidFormat("bad signature encoding")
	}

	t := Token{EventID: uint(eventID), IssuedAtMillis: issuedAt, Signature: parts[3]}
	// Reject non-canonical numbers such as leading zeros.
	if t.String() != raw {
		return Token{}, invalidFormat("non-canonical token")
	}
	return t, nil
}

func isLowerHex(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func invalidFormat(reason string) error {
	return apperr.WithMessage(apperr.ErrInvalidFormat, "malformed check-in token: "+reason)
}

// Signer signs and verifies tokens with a server-held secret.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign builds a signed token for eventID issued at issuedAt.
func (s *Signer) Sign(eventID uint, issuedAt time.Time) Token {
	t := Token{EventID: eventID, IssuedAtMillis: issuedAt.UnixMilli()}
	t.Signature = s.mac(t.payload())
	return t
}

// Verify reports whether the token's signature matches its payload.
func (s *Signer) Verify(t Token) bool {
	want := s.mac(t.payload())
	return hmac.Equal([]byte(want), []byte(t.Signature))
}

func (s *Signer) mac(payload string) string {
	m := hmac.New(sha256.New, s.secret)
	_, _ = m.Write([]byte(payload))
	return hex.EncodeToString(m.Sum(nil))
}
