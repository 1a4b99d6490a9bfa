// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

// Package errors re-exports the handful of github.com/pkg/errors helpers
// used throughout the module, so that callers never need to import
// github.com/pkg/errors directly.
package errors

import "github.com/pkg/errors"

// Errorf formats according to a format specifier and returns the string as a
// value that satisfies error, with a stack trace attached.
func Errorf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

// New returns an error with the supplied message and a stack trace.
func New(msg string) error {
	return errors.New(msg)
}

// Wrap annotates err with a message. If err is nil, Wrap returns nil.
func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

// Wrapf annotates err with the format specifier. If err is nil, Wrapf
// returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// Cause returns the underlying cause of the error, if possible.
func Cause(err error) error {
	return errors.Cause(err)
}
