package token_test

import (
	"testing"
	"time"

	"github.com/agrobridge/auth-service/token"
	"github.com/agrobridge/auth-service/token/keys"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "com.agrobridge.auth"
	testAudience = "agrobridge-api"
	testSubject  = "user-1"
)

func newTestCodec(t *testing.T, options ...token.CodecOption) *token.Codec {
	t.Helper()

	keyPair, err := keys.Generate("test-kid", 2048)
	require.NoError(t, err)

	codec, err := token.NewCodec(keyPair, testIssuer, testAudience, options...)
	require.NoError(t, err)
	return codec
}

func TestNewCodecRequiresKeyPair(t *testing.T) {
	_, err := token.NewCodec(nil, testIssuer, testAudience)
	require.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	signed, issued, err := codec.IssueAccessToken(testSubject, "producer", "prod-42")
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	require.NotEmpty(t, issued.ID)

	claims, err := codec.VerifyAccess(signed)
	require.NoError(t, err)
	require.Equal(t, testSubject, claims.Subject)
	require.Equal(t, "producer", claims.Role)
	require.Equal(t, "prod-42", claims.ProducerID)
	require.Equal(t, issued.ID, claims.ID)
}

func TestRefreshTokenCarriesMinimalClaims(t *testing.T) {
	codec := newTestCodec(t)

	signed, issued, err := codec.IssueRefreshToken(testSubject)
	require.NoError(t, err)

	claims, err := codec.VerifyRefresh(signed)
	require.NoError(t, err)
	require.Equal(t, testSubject, claims.Subject)
	require.Equal(t, issued.ID, claims.ID)
	require.Equal(t, token.UseRefresh, claims.Use)
}

func TestUniqueJTIPerToken(t *testing.T) {
	codec := newTestCodec(t)

	_, first, err := codec.IssueAccessToken(testSubject, "producer", "")
	require.NoError(t, err)
	_, second, err := codec.IssueAccessToken(testSubject, "producer", "")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)
}

func TestExpiredTokenFailsDistinctly(t *testing.T) {
	now := time.Now()
	clock := now

	codec := newTestCodec(t, token.WithNowFunc(func() time.Time { return clock }))

	signed, _, err := codec.IssueAccessToken(testSubject, "producer", "")
	require.NoError(t, err)

	clock = now.Add(16 * time.Minute)

	_, err = codec.VerifyAccess(signed)
	require.ErrorIs(t, err, token.ErrTokenExpired)
}

func TestMalformedTokenFails(t *testing.T) {
	codec := newTestCodec(t)

	_, err := codec.VerifyAccess("not.a.jwt")
	require.ErrorIs(t, err, token.ErrTokenMalformed)
}

func TestTamperedSignatureFails(t *testing.T) {
	codec := newTestCodec(t)
	other := newTestCodec(t) // different key pair

	signed, _, err := other.IssueAccessToken(testSubject, "producer", "")
	require.NoError(t, err)

	_, err = codec.VerifyAccess(signed)
	require.ErrorIs(t, err, token.ErrTokenMalformed)
}

func TestRefreshTokenRejectedAsAccessToken(t *testing.T) {
	codec := newTestCodec(t)

	signed, _, err := codec.IssueRefreshToken(testSubject)
	require.NoError(t, err)

	_, err = codec.VerifyAccess(signed)
	require.ErrorIs(t, err, token.ErrTokenMalformed)
}

func TestAccessTokenRejectedAsRefreshToken(t *testing.T) {
	codec := newTestCodec(t)

	signed, _, err := codec.IssueAccessToken(testSubject, "producer", "")
	require.NoError(t, err)

	_, err = codec.VerifyRefresh(signed)
	require.ErrorIs(t, err, token.ErrTokenMalformed)
}

func TestConfiguredTTLs(t *testing.T) {
	codec := newTestCodec(t, token.WithTokenTTLs(5*time.Minute, 24*time.Hour))
	require.Equal(t, 5*time.Minute, codec.AccessTTL())
	require.Equal(t, 24*time.Hour, codec.RefreshTTL())

	signed, claims, err := codec.IssueAccessToken(testSubject, "producer", "")
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	require.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}
