package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch はパスワードがハッシュと一致しないことを表す。
var ErrPasswordMismatch = errors.New("password does not match")

// PasswordHasher はパスワードのハッシュ化と照合のインターフェース。
type PasswordHasher interface {
	// Hash はパスワードのハッシュを返す。
	Hash(password string) (string, error)
	// Compare はハッシュとパスワードを照合する。一致しない場合はErrPasswordMismatchを返す。
	Compare(hash, password string) error
}

// BcryptHasher はbcryptによるPasswordHasherの実装。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher はBcryptHasherを生成する。
// costがbcryptの許容範囲外の場合はbcrypt.DefaultCostを使用する。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash はパスワードのbcryptハッシュを返す。
// 72バイトを超えるパスワードはbcryptが拒否するためエラーとなる。
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare はハッシュとパスワードを照合する。
func (h *BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	if err != nil {
		return fmt.Errorf("failed to compare password: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PasswordHasher = (*BcryptHasher)(nil)
