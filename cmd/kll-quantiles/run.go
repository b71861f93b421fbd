/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/sketchlab/kllsketch/kll"
	"github.com/sketchlab/kllsketch/memory"
)

// checkEvery is the number of lines read between context checks.
const checkEvery = 4096

type runner struct {
	cfg    config
	logger log.Logger
	stdin  io.Reader
	stdout io.Writer
}

// run builds one sketch per input file in parallel, merges them together with
// the serialized sketches of cfg.Merge, then reports and optionally persists
// the result.
func (r *runner) run(ctx context.Context, inputs []string) error {
	sketches := make([]*kll.Sketch[float64], len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, path := range inputs {
		g.Go(func() error {
			s, err := r.newSketch(nil)
			if err != nil {
				return err
			}
			if err := r.ingest(ctx, path, s); err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			level.Debug(r.logger).Log("msg", "ingested file", "file", path, "items", s.TotalCount(), "retained", s.NumRetained())
			sketches[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var arena *memory.Arena[float64]
	if r.cfg.Arena {
		arena = memory.NewArena[float64](0, nil)
	}
	result, err := r.newSketch(arena)
	if err != nil {
		return err
	}
	result.Merge(sketches...)
	for _, path := range r.cfg.Merge {
		buf, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := result.MergeDeserialized(buf); err != nil {
			return fmt.Errorf("merging %s: %w", path, err)
		}
		level.Debug(r.logger).Log("msg", "merged sketch", "file", path, "bytes", humanize.Bytes(uint64(len(buf))))
	}
	level.Info(r.logger).Log("msg", "merged", "inputs", len(inputs)+len(r.cfg.Merge), "items", result.TotalCount(), "retained", result.NumRetained())
	if arena != nil {
		level.Info(r.logger).Log("msg", "sketch footprint", "in_use", humanize.Bytes(uint64(arena.InUseBytes())), "retained", humanize.Bytes(uint64(arena.RetainedBytes())))
	}

	if err := r.report(result); err != nil {
		return err
	}
	if r.cfg.Out != "" {
		if err := writeSketch(r.cfg.Out, result); err != nil {
			return fmt.Errorf("writing %s: %w", r.cfg.Out, err)
		}
		level.Info(r.logger).Log("msg", "wrote sketch", "file", r.cfg.Out)
	}
	return nil
}

func (r *runner) newSketch(arena *memory.Arena[float64]) (*kll.Sketch[float64], error) {
	var opts []kll.Option
	if r.cfg.Seed >= 0 {
		opts = append(opts, kll.WithSeed(uint64(r.cfg.Seed)))
	}
	if arena != nil {
		opts = append(opts, kll.WithAllocator[float64](arena))
	}
	return kll.NewSketch[float64](r.cfg.K, opts...)
}

// ingest inserts every number of the file, one per line. Blank lines and
// lines starting with # are skipped.
func (r *runner) ingest(ctx context.Context, path string, s *kll.Sketch[float64]) error {
	var in io.Reader
	if path == "-" {
		in = r.stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		if line%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		s.Insert(v)
	}
	return scanner.Err()
}

func (r *runner) report(s *kll.Sketch[float64]) error {
	fmt.Fprintf(r.stdout, "n\t%d\n", s.TotalCount())
	fmt.Fprintf(r.stdout, "retained\t%d\n", s.NumRetained())
	fmt.Fprintf(r.stdout, "rank_error\t%.4f\n", s.NormalizedRankError(false))
	if s.IsEmpty() {
		return nil
	}
	values, err := s.EstimateQuantiles(r.cfg.Quantiles)
	if err != nil {
		return err
	}
	for i, q := range r.cfg.Quantiles {
		fmt.Fprintf(r.stdout, "q%s\t%s\n", strconv.FormatFloat(q, 'g', -1, 64), strconv.FormatFloat(values[i], 'g', -1, 64))
	}
	return nil
}

func writeSketch(path string, s *kll.Sketch[float64]) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
