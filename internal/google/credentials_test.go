package google

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceAccountKey(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	data, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "autoagenda-test",
		"private_key_id": "abc123",
		"private_key":    string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
		"client_email":   "Scheduler@autoagenda-test.iam.gserviceaccount.com",
		"client_id":      "1234567890",
		"token_uri":      "https://oauth2.googleapis.com/token",
	})
	require.NoError(t, err)
	return data
}

func TestLoadCredentials_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, serviceAccountKey(t), 0o600))

	creds, err := LoadCredentials(context.Background(), Config{CredentialsFile: path, Subject: "agenda@example.com"})
	require.NoError(t, err)

	assert.Equal(t, "Scheduler@autoagenda-test.iam.gserviceaccount.com", creds.ClientEmail)
	assert.Equal(t, "service-account:scheduler@autoagenda-test.iam.gserviceaccount.com", creds.String())
	assert.NotNil(t, creds.TokenSource())
	assert.NotNil(t, creds.HTTPClient(context.Background()))
	assert.Len(t, creds.ClientOptions(context.Background()), 1)
}

func TestLoadCredentials_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing file",
			cfg:     Config{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")},
			wantErr: "failed to read credentials file",
		},
		{
			name:    "not json",
			cfg:     Config{CredentialsJSON: []byte("not json")},
			wantErr: "invalid credentials JSON",
		},
		{
			name:    "user credentials",
			cfg:     Config{CredentialsJSON: []byte(`{"type":"authorized_user"}`)},
			wantErr: "unsupported credentials type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCredentials(context.Background(), tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultScopes(t *testing.T) {
	assert.Contains(t, DefaultScopes, "https://www.googleapis.com/auth/calendar")
	assert.Contains(t, DefaultScopes, "https://www.googleapis.com/auth/spreadsheets")
}
