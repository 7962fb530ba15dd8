package keys_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agrobridge/auth-service/token/keys"
	"github.com/stretchr/testify/require"
)

func TestGenerateEnforcesMinimumKeySize(t *testing.T) {
	kp, err := keys.Generate("test-key", 1024)
	require.NoError(t, err)
	require.Equal(t, 2048, kp.PrivateKey.N.BitLen())
}

func TestExportLoadRoundTrip(t *testing.T) {
	kp, err := keys.Generate("kid-1", 2048)
	require.NoError(t, err)

	privatePEM, err := kp.ExportPrivateKeyPEM()
	require.NoError(t, err)
	publicPEM, err := kp.ExportPublicKeyPEM()
	require.NoError(t, err)

	loaded, err := keys.LoadFromPEM("kid-1", privatePEM, publicPEM)
	require.NoError(t, err)
	require.Equal(t, "kid-1", loaded.KeyID)
	require.Equal(t, kp.PrivateKey.N, loaded.PrivateKey.N)
	require.Equal(t, kp.PublicKey.E, loaded.PublicKey.E)
}

func TestLoadFromFiles(t *testing.T) {
	kp, err := keys.Generate("kid-files", 2048)
	require.NoError(t, err)

	privatePEM, err := kp.ExportPrivateKeyPEM()
	require.NoError(t, err)
	publicPEM, err := kp.ExportPublicKeyPEM()
	require.NoError(t, err)

	dir := t.TempDir()
	privatePath := filepath.Join(dir, "private.pem")
	publicPath := filepath.Join(dir, "public.pem")
	require.NoError(t, os.WriteFile(privatePath, []byte(privatePEM), 0o600))
	require.NoError(t, os.WriteFile(publicPath, []byte(publicPEM), 0o644))

	loaded, err := keys.Load("kid-files", privatePath, publicPath)
	require.NoError(t, err)
	require.Equal(t, kp.PrivateKey.N, loaded.PrivateKey.N)
}

func TestLoadMissingKeyFails(t *testing.T) {
	_, err := keys.Load("kid", "/nonexistent/private.pem", "/nonexistent/public.pem")
	require.Error(t, err)
}

func TestLoadFromPEMGarbageFails(t *testing.T) {
	_, err := keys.LoadFromPEM("kid", "not a key", "not a key either")
	require.Error(t, err)
}

func TestToJWKS(t *testing.T) {
	kp, err := keys.Generate("jwks-kid", 2048)
	require.NoError(t, err)

	jwks, err := kp.ToJWKS()
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)
	require.Equal(t, "sig", jwks.Keys[0].Use)
	require.Equal(t, "jwks-kid", jwks.Keys[0].Kid)
	require.Equal(t, keys.RS256, jwks.Keys[0].Alg)
	require.NotEmpty(t, jwks.Keys[0].N)
	require.NotEmpty(t, jwks.Keys[0].E)
}
