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

package log

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := &BasicLogger{Level: Info, Emitter: &Writer{Next: &buf}}

	l.Debugf("dropped %d", 1)
	if buf.Len() != 0 {
		t.Errorf("Debug line emitted at Info level: %q", buf.String())
	}

	l.Infof("kept %d", 2)
	l.Warningf("kept %d", 3)
	lines := strings.Count(buf.String(), "\n")
	if lines != 2 {
		t.Errorf("emitted %d lines, want 2: %q", lines, buf.String())
	}
}

func TestWriterFormat(t *testing.T) {
	var buf bytes.Buffer
	w := &Writer{Next: &buf}
	w.Emit(Warning, time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC), "pipe %s", "closed")

	got := buf.String()
	if !strings.HasPrefix(got, "W0304 05:06:07.000000] ") {
		t.Errorf("unexpected line prefix: %q", got)
	}
	if !strings.Contains(got, "pipe closed") {
		t.Errorf("line missing message: %q", got)
	}
}

func TestIsLogging(t *testing.T) {
	l := &BasicLogger{Level: Warning}
	if l.IsLogging(Info) || l.IsLogging(Debug) {
		t.Errorf("Warning-level logger reports verbose levels as enabled")
	}
	if !l.IsLogging(Warning) {
		t.Errorf("Warning-level logger reports Warning as disabled")
	}
}

func TestGlobalRetarget(t *testing.T) {
	old := Log()
	defer func() {
		SetTarget(old.Emitter)
		SetLevel(old.Level)
	}()

	var buf bytes.Buffer
	SetTarget(&Writer{Next: &buf})
	SetLevel(Debug)

	Debugf("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("global Debugf did not reach the new target: %q", buf.String())
	}
}
