package totp

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func fixedVerifier(t *testing.T, at time.Time) *Verifier {
	t.Helper()
	v, err := New(testSecret)
	require.NoError(t, err)
	v.now = func() time.Time { return at }
	return v
}

func TestNewRejectsBadSecrets(t *testing.T) {
	t.Parallel()

	_, err := New("")
	require.Error(t, err)

	_, err = New("not base32 at all!!!")
	require.Error(t, err)
}

func TestRFC6238Vector(t *testing.T) {
	t.Parallel()

	// RFC 6238 Appendix B, SHA-1 row for T=59 with the ASCII secret
	// "12345678901234567890", truncated to 6 digits.
	v, err := New("GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ")
	require.NoError(t, err)
	v.now = func() time.Time { return time.Unix(59, 0) }
	require.Equal(t, "287082", v.Generate())
}

func TestVerifyAcceptsCurrentCode(t *testing.T) {
	t.Parallel()

	at := time.Unix(1_700_000_000, 0)
	v := fixedVerifier(t, at)
	require.True(t, v.Verify(v.Generate()))
}

func TestVerifyToleratesOneStepOfDrift(t *testing.T) {
	t.Parallel()

	at := time.Unix(1_700_000_000, 0)
	server := fixedVerifier(t, at)

	previous := fixedVerifier(t, at.Add(-Period))
	next := fixedVerifier(t, at.Add(Period))
	require.True(t, server.Verify(previous.Generate()))
	require.True(t, server.Verify(next.Generate()))

	stale := fixedVerifier(t, at.Add(-2*Period))
	require.False(t, server.Verify(stale.Generate()))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	at := time.Unix(1_700_000_000, 0)
	server := fixedVerifier(t, at)

	other, err := New("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	other.now = func() time.Time { return at }

	require.False(t, server.Verify(other.Generate()))
}

func TestVerifyRejectsMalformedCodes(t *testing.T) {
	t.Parallel()

	v := fixedVerifier(t, time.Unix(1_700_000_000, 0))
	require.False(t, v.Verify(""))
	require.False(t, v.Verify("12345"))
	require.False(t, v.Verify("1234567"))
}

func TestRemaining(t *testing.T) {
	t.Parallel()

	v := fixedVerifier(t, time.Unix(1_700_000_020, 0))
	require.Equal(t, 20*time.Second, v.Remaining())
}

func TestProvisioningURI(t *testing.T) {
	t.Parallel()

	v, err := New(testSecret)
	require.NoError(t, err)

	uri := v.ProvisioningURI("administrator", "SSS-IT")
	require.True(t, strings.HasPrefix(uri, "otpauth://totp/administrator:SSS-IT?"))
	require.Contains(t, uri, "secret="+testSecret)
	require.Contains(t, uri, "issuer=administrator")
	require.Contains(t, uri, "digits=6")
	require.Contains(t, uri, "period=30")
}

func TestGenerateSecretRoundTrips(t *testing.T) {
	t.Parallel()

	secret, err := GenerateSecret()
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	_, err = New(secret)
	require.NoError(t, err)
}
