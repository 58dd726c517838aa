// Copyright 2026 Blink Labs Software
//
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

package governance

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"

	"github.com/rangkai-protocol/rangkai-gov/database/models"
)

var (
	ErrMissingSignature = errors.New("signature is required")
	ErrMissingPublicKey = errors.New("signer has no registered public key")
	ErrInvalidEncoding  = errors.New("invalid encoding")
	ErrBadSignature     = errors.New("signature does not match")
)

// SignatureVerifier checks a vote signature against the signer's registered key
type SignatureVerifier interface {
	Verify(signer *models.Signer, payload []byte, signature string) error
}

// VotePayload returns the canonical bytes a signer signs when voting
func VotePayload(proposalID, signerID string, approved bool) []byte {
	return []byte(
		proposalID + "|" + signerID + "|" + strconv.FormatBool(approved),
	)
}

// NoopVerifier accepts every vote. The signature is still stored.
type NoopVerifier struct{}

func (NoopVerifier) Verify(*models.Signer, []byte, string) error {
	return nil
}

// Ed25519Verifier requires a base64 ed25519 signature made with the signer's
// base64 encoded public key
type Ed25519Verifier struct{}

func (Ed25519Verifier) Verify(
	signer *models.Signer,
	payload []byte,
	signature string,
) error {
	if strings.TrimSpace(signature) == "" {
		return ErrMissingSignature
	}
	if strings.TrimSpace(signer.PublicKey) == "" {
		return ErrMissingPublicKey
	}
	publicKey, err := base64.StdEncoding.DecodeString(
		strings.TrimSpace(signer.PublicKey),
	)
	if err != nil {
		return ErrInvalidEncoding
	}
	sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return ErrInvalidEncoding
	}
	if len(publicKey) != ed25519.PublicKeySize ||
		len(sig) != ed25519.SignatureSize {
		return ErrInvalidEncoding
	}
	if !ed25519.Verify(ed25519.PublicKey(publicKey), payload, sig) {
		return ErrBadSignature
	}
	return nil
}
