// Package secrets encrypts locally stored values under a key derived from a local unlock
// passcode.
//
// A passcode is stretched with argon2id (DeriveKey) into a 32-byte master key. A Box binds
// a purpose-specific subkey, derived from the master with HKDF-SHA-256, to AES-256-GCM.
// Sealed output is self-contained: the random nonce is prepended to the ciphertext.
//
// # Usage
//
//	salt, _ := secrets.GenerateSalt() // persist next to the encrypted data
//	box, err := secrets.NewPasscodeBox(passcode, salt, secrets.DefaultKDFParams, "items-v1")
//	if err != nil {
//	    // handle error
//	}
//	defer box.Close()
//
//	ct, _ := box.SealString(`{"version":"003"}`)
//	pt, _ := box.OpenString(ct)
//
// # Error Handling
//
// Errors wrap package sentinels such as ErrDecryptionFailed or ErrInvalidCiphertext; match
// them with errors.Is. A wrong passcode surfaces as ErrDecryptionFailed on Open.
package secrets
