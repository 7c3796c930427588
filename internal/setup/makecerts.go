// Copyright Vane Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package setup implements first-run scaffolding:
// generating an example configuration and self-signed certificates so a
// fresh install has something to boot with. Certificate generation is
// adapted from the CA/leaf-cert pattern Contour uses for its own internal
// service certs (internal/certgen/makecerts.go), retargeted from
// "contour"/"envoy" gRPC service names to "one leaf cert per configured
// HTTPS hostname".
package setup

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"
)

const keySize = 2048

// NewCA generates a new self-signed CA certificate valid until expiry.
func NewCA(cn string, expiry time.Time) (certPEM, keyPEM []byte, err error) {
	key, err := rsa.GenerateKey(rand.Reader, keySize)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	serial := newSerial(now)
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   cn,
			SerialNumber: serial.String(),
		},
		NotBefore:             now.UTC().AddDate(0, 0, -1),
		NotAfter:              expiry.UTC(),
		SubjectKeyId:          bigIntHash(key.N),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		IsCA:                  true,
		BasicConstraintsValid: true,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, err
	}

	return encodeCert(certDER), encodeKey(key), nil
}

// NewLeafCert generates a leaf certificate for host, signed by the given CA
// keypair, valid until expiry. One of these is generated per configured
// HTTPS domain during first-run when no CERT_SERVER is configured.
func NewLeafCert(caCertPEM, caKeyPEM []byte, host string, expiry time.Time) (certPEM, keyPEM []byte, err error) {
	caKeyPair, err := tlsX509KeyPair(caCertPEM, caKeyPEM)
	if err != nil {
		return nil, nil, err
	}
	caCert, err := x509.ParseCertificate(caKeyPair.CertDER)
	if err != nil {
		return nil, nil, err
	}

	newKey, err := rsa.GenerateKey(rand.Reader, keySize)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot generate key: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: newSerial(now),
		Subject:      pkix.Name{CommonName: host},
		NotBefore:    now.UTC().AddDate(0, 0, -1),
		NotAfter:     expiry.UTC(),
		SubjectKeyId: bigIntHash(newKey.N),
		KeyUsage: x509.KeyUsageDigitalSignature |
			x509.KeyUsageDataEncipherment |
			x509.KeyUsageKeyEncipherment,
		DNSNames: []string{host},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, caCert, &newKey.PublicKey, caKeyPair.Key)
	if err != nil {
		return nil, nil, err
	}

	return encodeCert(certDER), encodeKey(newKey), nil
}

type caKeyPair struct {
	CertDER []byte
	Key     *rsa.PrivateKey
}

func tlsX509KeyPair(certPEM, keyPEM []byte) (caKeyPair, error) {
	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return caKeyPair{}, fmt.Errorf("setup: invalid CA certificate PEM")
	}
	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return caKeyPair{}, fmt.Errorf("setup: invalid CA key PEM")
	}
	key, err := x509.ParsePKCS1PrivateKey(keyBlock.Bytes)
	if err != nil {
		return caKeyPair{}, err
	}
	return caKeyPair{CertDER: certBlock.Bytes, Key: key}, nil
}

func encodeCert(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func encodeKey(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

func newSerial(now time.Time) *big.Int {
	return big.NewInt(int64(now.UnixNano()))
}

func bigIntHash(n *big.Int) []byte {
	return n.Bytes()
}
