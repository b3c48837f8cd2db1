package hash

import "golang.org/x/crypto/bcrypt"

const Cost = 10

// HashPassword returns a bcrypt hash with the $2b$ prefix used by the
// existing user records. bcrypt.CompareHashAndPassword accepts both 2a and 2b.
func HashPassword(password string) (string, error) {
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", err
	}
	if len(hashbytes) > 3 && hashbytes[2] == 'a' {
		hashbytes[2] = 'b'
	}

	return string(hashbytes), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
