// Package totp implements RFC 6238 time-based one-time passwords over a
// process-wide shared secret: HMAC-SHA1, 30 second step, 6 digits, one step
// of clock drift tolerated in either direction.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

const (
	// Period is the code rotation interval.
	Period = 30 * time.Second
	// Digits is the fixed one-time-password length.
	Digits = 6
	// WindowSteps tolerates one adjacent time bucket on verify.
	WindowSteps = 1
)

// Verifier derives and checks codes for one shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// New decodes a base32 secret (RFC 3548, no padding) and returns a Verifier.
func New(secretB32 string) (*Verifier, error) {
	normalized := strings.ToUpper(strings.TrimSpace(secretB32))
	if normalized == "" {
		return nil, errors.New("totp secret is required")
	}
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(normalized)
	if err != nil {
		return nil, fmt.Errorf("decode totp secret: %w", err)
	}
	return &Verifier{secret: raw, now: time.Now}, nil
}

// GenerateSecret returns 20 random bytes base32-encoded without padding.
func GenerateSecret() (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}

// Generate returns the code for the current time bucket.
func (v *Verifier) Generate() string {
	return hotp(v.secret, v.now().Unix()/int64(Period.Seconds()))
}

// Verify reports whether code matches the current bucket or an adjacent one.
// A used code stays valid until its bucket rotates out of the window.
func (v *Verifier) Verify(code string) bool {
	code = strings.TrimSpace(code)
	if len(code) != Digits {
		return false
	}

	counter := v.now().Unix() / int64(Period.Seconds())
	for c := counter - WindowSteps; c <= counter+WindowSteps; c++ {
		if subtle.ConstantTimeCompare([]byte(hotp(v.secret, c)), []byte(code)) == 1 {
			return true
		}
	}
	return false
}

// Remaining returns the time until the current code rotates. Advisory only.
func (v *Verifier) Remaining() time.Duration {
	elapsed := v.now().Unix() % int64(Period.Seconds())
	return time.Duration(int64(Period.Seconds())-elapsed) * time.Second
}

// ProvisioningURI builds the otpauth:// URL consumed by authenticator apps.
func (v *Verifier) ProvisioningURI(issuer, accountName string) string {
	label := url.PathEscape(fmt.Sprintf("%s:%s", issuer, accountName))
	q := url.Values{}
	q.Set("secret", base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(v.secret))
	q.Set("issuer", issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprintf("%d", Digits))
	q.Set("period", fmt.Sprintf("%d", int(Period.Seconds())))
	return fmt.Sprintf("otpauth://totp/%s?%s", label, q.Encode())
}

// hotp computes RFC 4226 HMAC-SHA1 truncation for one counter value.
func hotp(secret []byte, counter int64) string {
	var msg [8]byte
	for i := 7; i >= 0; i-- {
		msg[i] = byte(counter & 0xff)
		counter >>= 8
	}
	m := hmac.New(sha1.New, secret)
	_, _ = m.Write(msg[:])
	sum := m.Sum(nil)
	offset := int(sum[len(sum)-1] & 0x0f)
	bin := (int(sum[offset])&0x7f)<<24 | int(sum[offset+1])<<16 | int(sum[offset+2])<<8 | int(sum[offset+3])
	return fmt.Sprintf("%06d", bin%int(math.Pow10(Digits)))
}
