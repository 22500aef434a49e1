// Package lndclient establishes the authenticated grpc channel to an lnd
// node. Credentials are loaded from disk exactly once at startup; their
// bytes are cached in memory and reused for the process lifetime.
package lndclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"net"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	macaroon "gopkg.in/macaroon.v2"
)

// ConfigError marks a fatal startup problem: an unreadable or malformed
// credential file, a bad endpoint address, or a failed initial handshake.
// There is no retry at this layer; callers are expected to exit nonzero.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return e.Reason
	}

	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Credentials is everything needed to call the node: where it is, the tls
// certificate its transport presents, and the macaroon authorizing the
// calls. Read-only after LoadCredentials returns.
type Credentials struct {
	Endpoint string
	TLSCert  []byte
	Macaroon []byte
}

// LoadCredentials reads and validates the tls certificate and macaroon
// files. Both files are read exactly once; per-call authentication later on
// works off the cached bytes, never off disk.
func LoadCredentials(endpoint, tlsCertPath, macaroonPath string) (*Credentials, error) {
	if _, _, err := net.SplitHostPort(endpoint); err != nil {
		return nil, &ConfigError{
			Reason: fmt.Sprintf("invalid lnd endpoint %q", endpoint),
			Err:    err,
		}
	}

	certBytes, err := os.ReadFile(tlsCertPath)
	if err != nil {
		return nil, &ConfigError{Reason: "read tls certificate", Err: err}
	}

	if pool := x509.NewCertPool(); !pool.AppendCertsFromPEM(certBytes) {
		return nil, &ConfigError{
			Reason: fmt.Sprintf("no usable certificate in %q", tlsCertPath),
		}
	}

	macBytes, err := os.ReadFile(macaroonPath)
	if err != nil {
		return nil, &ConfigError{Reason: "read macaroon", Err: err}
	}

	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macBytes); err != nil {
		return nil, &ConfigError{
			Reason: fmt.Sprintf("malformed macaroon in %q", macaroonPath),
			Err:    err,
		}
	}

	return &Credentials{
		Endpoint: endpoint,
		TLSCert:  certBytes,
		Macaroon: macBytes,
	}, nil
}

// Dial opens the grpc channel and performs the initial handshake, blocking
// until the connection is ready or ctx expires. The macaroon rides as
// per-call metadata on every subsequent rpc.
func Dial(ctx context.Context, creds *Credentials) (*grpc.ClientConn, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(creds.TLSCert) {
		return nil, &ConfigError{Reason: "no usable certificate in credentials"}
	}

	conn, err := grpc.DialContext(ctx, creds.Endpoint,
		grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{RootCAs: pool})),
		grpc.WithPerRPCCredentials(macaroonCredential{
			token: hex.EncodeToString(creds.Macaroon),
		}),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, &ConfigError{
			Reason: fmt.Sprintf("dial %q", creds.Endpoint),
			Err:    err,
		}
	}

	return conn, nil
}

// macaroonCredential attaches the bearer macaroon to every call using lnd's
// metadata convention: a "macaroon" header holding the hex-encoded bytes.
type macaroonCredential struct {
	token string
}

var _ credentials.PerRPCCredentials = macaroonCredential{}

func (m macaroonCredential) GetRequestMetadata(_ context.Context, _ ...string) (map[string]string, error) {
	return map[string]string{"macaroon": m.token}, nil
}

func (m macaroonCredential) RequireTransportSecurity() bool {
	return true
}
