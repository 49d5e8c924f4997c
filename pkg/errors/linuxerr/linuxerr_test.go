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

package linuxerr

import (
	"fmt"
	"testing"

	"golang.org/x/sys/unix"

	"gvisor.dev/kpipe/pkg/errors"
)

func TestErrnoEquivalence(t *testing.T) {
	for _, tc := range []struct {
		err   *errors.Error
		errno unix.Errno
	}{
		{EAGAIN, unix.EAGAIN},
		{EPIPE, unix.EPIPE},
		{ECANCELED, unix.ECANCELED},
		{EALREADY, unix.EALREADY},
		{EINVAL, unix.EINVAL},
		{ETIMEDOUT, unix.ETIMEDOUT},
	} {
		t.Run(fmt.Sprintf("%d", int(tc.errno)), func(t *testing.T) {
			if got := tc.err.Errno(); got != tc.errno {
				t.Errorf("Errno() = %d, want %d", got, tc.errno)
			}
			if got := ToUnix(tc.err); got != tc.errno {
				t.Errorf("ToUnix() = %d, want %d", got, tc.errno)
			}
			if !Equals(tc.err, tc.errno) {
				t.Errorf("Equals(%v, %v) = false, want true", tc.err, tc.errno)
			}
		})
	}
}

func TestToUnixNil(t *testing.T) {
	if got := ToUnix(nil); got != 0 {
		t.Errorf("ToUnix(nil) = %d, want 0", got)
	}
}

func TestIdentityComparison(t *testing.T) {
	var err error = EPIPE
	if err != EPIPE {
		t.Errorf("error lost identity through the error interface")
	}
	if Equals(EPIPE, EAGAIN) {
		t.Errorf("Equals conflated EPIPE and EAGAIN")
	}
}
