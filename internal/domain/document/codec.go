package document

import (
	"fmt"

	"payfamily/internal/app/client/crypto"
)

// EncryptDocument seals one document under a key derived from secret.
func EncryptDocument(c *crypto.Codec, d *Document, secret []byte) (*crypto.Envelope, error) {
	return c.EncryptValue(d, secret)
}

func DecryptDocument(c *crypto.Codec, env *crypto.Envelope, secret []byte) (*Document, error) {
	var d Document
	if err := c.DecryptValue(env, secret, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// EncryptDocuments seals a whole collection into a single envelope.
func EncryptDocuments(c *crypto.Codec, docs []*Document, secret []byte) (*crypto.Envelope, error) {
	if docs == nil {
		docs = []*Document{}
	}
	return c.EncryptValue(docs, secret)
}

func DecryptDocuments(c *crypto.Codec, env *crypto.Envelope, secret []byte) ([]*Document, error) {
	var docs []*Document
	if err := c.DecryptValue(env, secret, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func sealDocument(c *crypto.Codec, key *crypto.SessionKey, d *Document) (string, error) {
	env, err := c.SealValue(key, d)
	if err != nil {
		return "", err
	}
	return crypto.MarshalEnvelope(env)
}

func openDocument(c *crypto.Codec, key *crypto.SessionKey, data string) (*Document, error) {
	env, err := crypto.ParseEnvelope(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crypto.ErrDecrypt, err)
	}

	var d Document
	if err := c.OpenValue(key, env, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
