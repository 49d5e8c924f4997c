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

package main

import (
	"context"
	"flag"
	"sort"
	"time"

	"github.com/google/subcommands"

	"gvisor.dev/kpipe/pkg/kernel/pipe"
	"gvisor.dev/kpipe/pkg/log"
	"gvisor.dev/kpipe/pkg/waitq"
)

// Latency implements subcommands.Command for the "latency" command.
type Latency struct {
	samples int
}

// Name implements subcommands.Command.Name.
func (*Latency) Name() string {
	return "latency"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Latency) Synopsis() string {
	return "measure reader wake-up latency for single-byte writes"
}

// Usage implements subcommands.Command.Usage.
func (*Latency) Usage() string {
	return `latency [flags]

Blocks a reader on an empty pipe, writes one byte, and measures the time
until the reader returns. Reports percentiles over the sample count.

`
}

// SetFlags implements subcommands.Command.SetFlags.
func (l *Latency) SetFlags(f *flag.FlagSet) {
	f.IntVar(&l.samples, "samples", 10000, "number of wake-ups to measure")
}

// Execute implements subcommands.Command.Execute.
func (l *Latency) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	var p pipe.Pipe
	p.Init(make([]byte, 1))

	woke := make(chan time.Time)
	go func() {
		dst := make([]byte, 1)
		for {
			if _, err := p.Read(dst, waitq.Forever); err != nil {
				close(woke)
				return
			}
			woke <- time.Now()
		}
	}()

	lat := make([]time.Duration, 0, l.samples)
	for i := 0; i < l.samples; i++ {
		// Wait until the previous byte has been consumed. This does not
		// wait for the reader to suspend, so a sample can also time a
		// fast-path read.
		for p.Len() != 0 {
			time.Sleep(time.Microsecond)
		}
		start := time.Now()
		if _, err := p.Write([]byte{0}, waitq.Forever); err != nil {
			log.Warningf("write: %v", err)
			return subcommands.ExitFailure
		}
		end, ok := <-woke
		if !ok {
			log.Warningf("reader exited early")
			return subcommands.ExitFailure
		}
		lat = append(lat, end.Sub(start))
	}
	p.Close()

	sort.Slice(lat, func(i, j int) bool { return lat[i] < lat[j] })
	pct := func(q float64) time.Duration {
		i := int(q * float64(len(lat)-1))
		return lat[i]
	}
	log.Infof("samples=%d p50=%v p90=%v p99=%v max=%v",
		len(lat), pct(0.50), pct(0.90), pct(0.99), lat[len(lat)-1])
	return subcommands.ExitSuccess
}
