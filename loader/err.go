package loader

import (
	"errors"

	"github.com/olimendsz/mic1/translate"
)

var f = translate.From

var (
	// Program image errors
	ErrProgramSize      = errors.New(f("program size smaller than its initialization block"))
	ErrProgramTruncated = errors.New(f("program image truncated"))
)
