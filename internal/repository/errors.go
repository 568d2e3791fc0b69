package repository

import "errors"

var (
	// ErrDuplicateEmail means the unique email index rejected a write.
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrDuplicateCode means the unique referral code index rejected a write.
	ErrDuplicateCode = errors.New("referral code already exists")
)
