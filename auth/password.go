package auth

import (
	"errors"

	"yatra/models"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost matches the cost existing account hashes were created with.
const PasswordCost = 10

// HashPassword returns a salted bcrypt hash of plain.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", &models.ValidationError{Field: "password", Msg: "must be at most 72 bytes"}
		}
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches hash.
func CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// dummyHash is compared against when the account does not exist so that
// unknown emails cost the same bcrypt round as wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("no-such-account"), PasswordCost)
