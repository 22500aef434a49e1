package lndclient

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	macaroon "gopkg.in/macaroon.v2"
)

// writeTLSCert writes a freshly self-signed certificate, the way lnd
// provisions its own tls.cert.
func writeTLSCert(t *testing.T, dir string) string {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "lnd"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	path := filepath.Join(dir, "tls.cert")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(path, pemBytes, 0o600); err != nil {
		t.Fatalf("write cert: %v", err)
	}

	return path
}

func writeMacaroon(t *testing.T, dir string) string {
	t.Helper()

	mac, err := macaroon.New([]byte("rootkey"), []byte("0"), "lnd", macaroon.LatestVersion)
	if err != nil {
		t.Fatalf("new macaroon: %v", err)
	}

	raw, err := mac.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal macaroon: %v", err)
	}

	path := filepath.Join(dir, "readonly.macaroon")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write macaroon: %v", err)
	}

	return path
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	certPath := writeTLSCert(t, dir)
	macPath := writeMacaroon(t, dir)

	bogusCert := filepath.Join(dir, "bogus.cert")
	if err := os.WriteFile(bogusCert, []byte("not a pem"), 0o600); err != nil {
		t.Fatalf("write bogus cert: %v", err)
	}

	bogusMac := filepath.Join(dir, "bogus.macaroon")
	if err := os.WriteFile(bogusMac, []byte("not a macaroon"), 0o600); err != nil {
		t.Fatalf("write bogus macaroon: %v", err)
	}

	for _, tc := range []struct {
		name     string
		endpoint string
		cert     string
		macaroon string
		wantErr  bool
	}{
		{
			name:     "valid",
			endpoint: "localhost:10009",
			cert:     certPath,
			macaroon: macPath,
		},
		{
			name:     "endpoint without port",
			endpoint: "localhost",
			cert:     certPath,
			macaroon: macPath,
			wantErr:  true,
		},
		{
			name:     "missing cert file",
			endpoint: "localhost:10009",
			cert:     filepath.Join(dir, "nope.cert"),
			macaroon: macPath,
			wantErr:  true,
		},
		{
			name:     "cert not pem",
			endpoint: "localhost:10009",
			cert:     bogusCert,
			macaroon: macPath,
			wantErr:  true,
		},
		{
			name:     "missing macaroon file",
			endpoint: "localhost:10009",
			cert:     certPath,
			macaroon: filepath.Join(dir, "nope.macaroon"),
			wantErr:  true,
		},
		{
			name:     "malformed macaroon",
			endpoint: "localhost:10009",
			cert:     certPath,
			macaroon: bogusMac,
			wantErr:  true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			creds, err := LoadCredentials(tc.endpoint, tc.cert, tc.macaroon)

			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got none")
				}

				var confErr *ConfigError
				if !errors.As(err, &confErr) {
					t.Errorf("error type: got %T, want *ConfigError", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("LoadCredentials: %v", err)
			}

			wantCert, _ := os.ReadFile(tc.cert)
			if string(creds.TLSCert) != string(wantCert) {
				t.Error("cached cert bytes differ from file contents")
			}

			wantMac, _ := os.ReadFile(tc.macaroon)
			if string(creds.Macaroon) != string(wantMac) {
				t.Error("cached macaroon bytes differ from file contents")
			}

			if creds.Endpoint != tc.endpoint {
				t.Errorf("endpoint: got %q, want %q", creds.Endpoint, tc.endpoint)
			}
		})
	}
}

func TestMacaroonCredential(t *testing.T) {
	m := macaroonCredential{token: hex.EncodeToString([]byte{0xde, 0xad})}

	md, err := m.GetRequestMetadata(context.Background())
	if err != nil {
		t.Fatalf("GetRequestMetadata: %v", err)
	}

	if got := md["macaroon"]; got != "dead" {
		t.Errorf("macaroon header: got %q, want dead", got)
	}

	if !m.RequireTransportSecurity() {
		t.Error("RequireTransportSecurity: got false, want true")
	}
}

func TestDial_UnreachableEndpointFailsHandshake(t *testing.T) {
	dir := t.TempDir()

	creds, err := LoadCredentials("127.0.0.1:1", writeTLSCert(t, dir), writeMacaroon(t, dir))
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if _, err := Dial(ctx, creds); err == nil {
		t.Fatal("Dial to unreachable endpoint: expected error, got none")
	}
}
