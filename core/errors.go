package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrOutOfRange        = errors.New("position out of range")
	ErrCorruptStore      = errors.New("corrupt store")
	ErrIO                = errors.New("io failure")
	ErrToolNotFound      = errors.New("tool not found")
	ErrClosed            = errors.New("store closed")
)

type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}
