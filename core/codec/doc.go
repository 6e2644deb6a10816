// Package codec seals inventory payloads at rest.
//
// A Codec holds one process-wide 256-bit key and encrypts with AES-256-GCM.
// Every call to Seal draws a fresh random nonce; the authentication tag is
// returned separately from the ciphertext so it can be stored in its own column.
// Open fails with apperr.ErrIntegrity whenever the ciphertext, nonce or tag was
// altered, or the key differs from the one used to seal.
//
// Hash computes the SHA-256 digest used for duplicate detection. It is never
// used to authenticate anything.
//
// # Keys
//
// Keys are configured as 32 raw bytes encoded in base64 or hex. A missing or
// wrong-length key fails with apperr.ErrConfiguration:
//
//	c, err := codec.NewFromString(cfg.Encryption.Key)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sealed, _ := c.Seal(plaintext)
//	plain, err := c.Open(sealed)
package codec
