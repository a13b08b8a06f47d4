// internal/app/client/crypto/envelope.go
package crypto

import (
	"payfamily/internal/domain/envelope"
)

// Envelope is the portable form of one encryption.
type Envelope = envelope.Envelope

func newEnvelope(ciphertext, nonce, salt, tag []byte, params KDFParams) *Envelope {
	params = params.withDefaults()
	return envelope.New(envelope.Raw{
		Ciphertext: ciphertext,
		Nonce:      nonce,
		Salt:       salt,
		Tag:        tag,
	}, params.Algorithm, params.Iterations)
}

// envelopeParams returns the derivation parameters env was written with.
func envelopeParams(env *Envelope) KDFParams {
	return KDFParams{Algorithm: env.KDF, Iterations: env.Iterations}.withDefaults()
}

// MarshalEnvelope encodes an envelope as JSON for storage.
func MarshalEnvelope(e *Envelope) (string, error) {
	return envelope.Marshal(e)
}

// ParseEnvelope reads an envelope written by MarshalEnvelope.
func ParseEnvelope(data string) (*Envelope, error) {
	return envelope.Parse(data)
}
