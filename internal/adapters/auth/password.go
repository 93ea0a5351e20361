package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"experiences/internal/domain"
)

type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Hash(plain string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", &domain.ValidationError{Fields: map[string]string{"password1": "Password is too long."}}
	}
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (Bcrypt) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
