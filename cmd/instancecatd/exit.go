package main

import (
	"errors"

	"instancecat/internal/app/config"
	"instancecat/internal/domain"
)

const (
	exitCodeConfig   = 2
	exitCodeNotFound = 3
)

type exitError struct {
	code    int
	message string
	silent  bool
}

func (e exitError) Error() string {
	return e.message
}

// classify maps well-known failures to distinct exit codes.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, config.ErrInvalidConfig):
		return exitError{code: exitCodeConfig, message: err.Error()}
	case errors.Is(err, domain.ErrInstanceTypeNotFound):
		return exitError{code: exitCodeNotFound, message: err.Error()}
	default:
		return err
	}
}
