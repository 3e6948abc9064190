// password.go - Credential guard for password-protected files.
//
// An uploaded file is protected by at most one password. We store a
// bcrypt hash (never the plaintext) and re-verify it on every download
// request; there is no session that bypasses the gate.
package server

import "golang.org/x/crypto/bcrypt"

// hashPassword hashes a download password for storage. An empty password
// means the file is unprotected and is represented as a nil hash.
func hashPassword(password string) (*string, error) {
	if password == "" {
		return nil, nil
	}
	// bcrypt cost of 12 is a good balance of security and performance
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, err
	}
	s := string(hash)
	return &s, nil
}

// verifyPassword reports whether the plaintext matches the stored hash.
// bcrypt's comparison is constant-time per segment, and a malformed hash
// is simply a non-match; this function never fails.
func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
