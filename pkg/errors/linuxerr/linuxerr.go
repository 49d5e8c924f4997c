// Copyright 2024 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package linuxerr contains syscall error codes exported as error
// interface pointers. The singletons allow for fast comparison and
// return operations comparable to unix.Errno constants.
package linuxerr

import (
	"golang.org/x/sys/unix"

	"gvisor.dev/kpipe/pkg/errors"
)

// The following errors are semantically identical to Errno of type
// unix.Errno. Since the types are distinct (these are *errors.Error),
// they are not directly comparable; the Errno method recovers the
// number for the host boundary (unix.Errno(EPIPE.Errno()) == unix.EPIPE).
var (
	EPERM     = errors.New(unix.EPERM, "operation not permitted")
	EINTR     = errors.New(unix.EINTR, "interrupted system call")
	EBADF     = errors.New(unix.EBADF, "bad file number")
	EAGAIN    = errors.New(unix.EAGAIN, "try again")
	EBUSY     = errors.New(unix.EBUSY, "device or resource busy")
	EINVAL    = errors.New(unix.EINVAL, "invalid argument")
	EPIPE     = errors.New(unix.EPIPE, "broken pipe")
	ETIMEDOUT = errors.New(unix.ETIMEDOUT, "connection timed out")
	EALREADY  = errors.New(unix.EALREADY, "operation already in progress")
	ECANCELED = errors.New(unix.ECANCELED, "operation canceled")
)

// ToUnix translates an error to the errno expected at the host
// boundary. A nil error maps to errno 0.
func ToUnix(err error) unix.Errno {
	if err == nil {
		return 0
	}
	if e, ok := err.(*errors.Error); ok {
		return e.Errno()
	}
	return unix.EINVAL
}

// Equals compares a linuxerr to a given error.
func Equals(e *errors.Error, err error) bool {
	if err == nil {
		return e == nil
	}
	if e2, ok := err.(*errors.Error); ok {
		return e == e2
	}
	if errno, ok := err.(unix.Errno); ok && e != nil {
		return e.Errno() == errno
	}
	return false
}
