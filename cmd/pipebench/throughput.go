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
	"sync/atomic"
	"time"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"

	"gvisor.dev/kpipe/pkg/errors/linuxerr"
	"gvisor.dev/kpipe/pkg/kernel/pipe"
	"gvisor.dev/kpipe/pkg/log"
	"gvisor.dev/kpipe/pkg/waitq"
)

// Throughput implements subcommands.Command for the "throughput" command.
type Throughput struct {
	capacity int
	writers  int
	readers  int
	chunk    int
	duration time.Duration
}

// Name implements subcommands.Command.Name.
func (*Throughput) Name() string {
	return "throughput"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Throughput) Synopsis() string {
	return "measure bytes moved through one pipe under concurrent load"
}

// Usage implements subcommands.Command.Usage.
func (*Throughput) Usage() string {
	return `throughput [flags]

Runs the configured number of producers and consumers against a single
pipe for the given duration and reports aggregate throughput.

`
}

// SetFlags implements subcommands.Command.SetFlags.
func (tp *Throughput) SetFlags(f *flag.FlagSet) {
	f.IntVar(&tp.capacity, "capacity", 1<<16, "pipe capacity in bytes")
	f.IntVar(&tp.writers, "writers", 1, "number of concurrent writers")
	f.IntVar(&tp.readers, "readers", 1, "number of concurrent readers")
	f.IntVar(&tp.chunk, "chunk", 4096, "transfer size per call in bytes")
	f.DurationVar(&tp.duration, "duration", 3*time.Second, "measurement duration")
}

// Execute implements subcommands.Command.Execute.
func (tp *Throughput) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	var p pipe.Pipe
	p.Init(make([]byte, tp.capacity))

	var written, read atomic.Int64
	var g errgroup.Group

	for i := 0; i < tp.writers; i++ {
		g.Go(func() error {
			src := make([]byte, tp.chunk)
			for {
				n, err := p.Write(src, waitq.Forever)
				written.Add(int64(n))
				if err == linuxerr.EPIPE {
					return nil
				}
				if err != nil && err != linuxerr.ECANCELED {
					return err
				}
			}
		})
	}
	for i := 0; i < tp.readers; i++ {
		g.Go(func() error {
			dst := make([]byte, tp.chunk)
			for {
				n, err := p.Read(dst, waitq.Forever)
				read.Add(int64(n))
				if err == linuxerr.EPIPE {
					return nil
				}
				if err != nil && err != linuxerr.ECANCELED {
					return err
				}
			}
		})
	}

	log.Debugf("running %d writers / %d readers over a %d-byte pipe", tp.writers, tp.readers, tp.capacity)
	time.Sleep(tp.duration)
	if err := p.Close(); err != nil {
		log.Warningf("close: %v", err)
		return subcommands.ExitFailure
	}
	if err := g.Wait(); err != nil {
		log.Warningf("worker: %v", err)
		return subcommands.ExitFailure
	}

	secs := tp.duration.Seconds()
	log.Infof("wrote %d bytes, read %d bytes in %v", written.Load(), read.Load(), tp.duration)
	log.Infof("throughput: %.1f MB/s in, %.1f MB/s out",
		float64(written.Load())/secs/(1<<20), float64(read.Load())/secs/(1<<20))
	return subcommands.ExitSuccess
}
