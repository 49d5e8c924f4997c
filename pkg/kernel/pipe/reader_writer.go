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

package pipe

import (
	"io"

	"gvisor.dev/kpipe/pkg/errors/linuxerr"
	"gvisor.dev/kpipe/pkg/waitq"
)

// ReaderWriter adapts a Pipe to io.Reader, io.Writer and io.Closer.
// Operations block forever rather than time out, and a short write is
// retried until every byte is accepted, so the adapter satisfies the
// io.Writer contract that the raw Pipe.Write deliberately does not.
type ReaderWriter struct {
	*Pipe
}

// NewReaderWriter returns an io adapter over p.
func NewReaderWriter(p *Pipe) *ReaderWriter {
	return &ReaderWriter{Pipe: p}
}

// Read implements io.Reader.Read. A closed pipe reports io.EOF once its
// buffered bytes are drained.
func (rw *ReaderWriter) Read(dst []byte) (int, error) {
	n, err := rw.Pipe.Read(dst, waitq.Forever)
	if err == linuxerr.EPIPE {
		return n, io.EOF
	}
	return n, err
}

// Write implements io.Writer.Write, re-issuing partial writes until src
// is fully accepted or the pipe fails.
func (rw *ReaderWriter) Write(src []byte) (int, error) {
	var done int
	for done < len(src) {
		n, err := rw.Pipe.Write(src[done:], waitq.Forever)
		done += n
		if err != nil {
			return done, err
		}
	}
	return done, nil
}

// Close implements io.Closer.Close. Closing twice is not an error at
// this layer.
func (rw *ReaderWriter) Close() error {
	if err := rw.Pipe.Close(); err != nil && err != linuxerr.EALREADY {
		return err
	}
	return nil
}
