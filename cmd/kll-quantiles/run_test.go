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
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchlab/kllsketch/kll"
)

func writeNumbers(t *testing.T, dir, name string, from, to int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("# generated\n\n")
	for i := from; i < to; i++ {
		fmt.Fprintf(&b, "%d\n", i)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestParseConfig(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("k: 64\nseed: 3\nquantiles: [0.5, 0.9]\nworkers: 2\nlog_level: debug\n"), 0o644))
	epsilonFile := filepath.Join(dir, "epsilon.yaml")
	require.NoError(t, os.WriteFile(epsilonFile, []byte("epsilon: 0.05\n"), 0o644))
	epsilonK, err := kll.KFromEpsilon(0.05)
	require.NoError(t, err)

	for _, tc := range []struct {
		name    string
		args    []string
		check   func(t *testing.T, cfg config, inputs []string)
		wantErr string
	}{
		{
			name: "defaults",
			args: []string{"a.txt"},
			check: func(t *testing.T, cfg config, inputs []string) {
				assert.Equal(t, kll.DefaultK, cfg.K)
				assert.Equal(t, int64(-1), cfg.Seed)
				assert.Equal(t, floatList{0, 0.25, 0.5, 0.75, 0.9, 0.99, 1}, cfg.Quantiles)
				assert.Equal(t, []string{"a.txt"}, inputs)
			},
		},
		{
			name: "flags",
			args: []string{"-k", "32", "-quantiles", "0.1, 0.2", "-merge", "x.kll,y.kll", "-arena"},
			check: func(t *testing.T, cfg config, inputs []string) {
				assert.Equal(t, uint32(32), cfg.K)
				assert.Equal(t, floatList{0.1, 0.2}, cfg.Quantiles)
				assert.Equal(t, fileList{"x.kll", "y.kll"}, cfg.Merge)
				assert.True(t, cfg.Arena)
				assert.Empty(t, inputs)
			},
		},
		{
			name: "config file",
			args: []string{"-config.file", configFile, "a.txt"},
			check: func(t *testing.T, cfg config, inputs []string) {
				assert.Equal(t, uint32(64), cfg.K)
				assert.Equal(t, int64(3), cfg.Seed)
				assert.Equal(t, floatList{0.5, 0.9}, cfg.Quantiles)
				assert.Equal(t, 2, cfg.Workers)
				assert.Equal(t, "debug", cfg.LogLevel)
			},
		},
		{
			name: "flags override config file",
			args: []string{"-config.file", configFile, "-k", "128", "-quantiles", "0.99", "a.txt"},
			check: func(t *testing.T, cfg config, inputs []string) {
				assert.Equal(t, uint32(128), cfg.K)
				assert.Equal(t, int64(3), cfg.Seed)
				assert.Equal(t, floatList{0.99}, cfg.Quantiles)
			},
		},
		{
			name: "epsilon",
			args: []string{"-epsilon", "0.0133", "a.txt"},
			check: func(t *testing.T, cfg config, inputs []string) {
				assert.Equal(t, kll.DefaultK, cfg.K)
			},
		},
		{
			name: "epsilon from config file",
			args: []string{"-config.file", epsilonFile, "a.txt"},
			check: func(t *testing.T, cfg config, inputs []string) {
				assert.Equal(t, epsilonK, cfg.K)
			},
		},
		{
			name: "k flag overrides epsilon from config file",
			args: []string{"-config.file", epsilonFile, "-k", "100", "a.txt"},
			check: func(t *testing.T, cfg config, inputs []string) {
				assert.Equal(t, uint32(100), cfg.K)
				assert.Zero(t, cfg.Epsilon)
			},
		},
		{
			name: "epsilon flag wins over k flag",
			args: []string{"-k", "100", "-epsilon", "0.05", "a.txt"},
			check: func(t *testing.T, cfg config, inputs []string) {
				assert.Equal(t, epsilonK, cfg.K)
			},
		},
		{
			name: "stdin once",
			args: []string{"-", "a.txt"},
			check: func(t *testing.T, cfg config, inputs []string) {
				assert.Equal(t, []string{"-", "a.txt"}, inputs)
			},
		},
		{name: "no inputs", args: nil, wantErr: "no input files"},
		{name: "stdin twice", args: []string{"-", "a.txt", "-"}, wantErr: "stdin (-) can only be read once"},
		{name: "nan quantile", args: []string{"-quantiles", "0.5,NaN", "a.txt"}, wantErr: "quantile must be between"},
		{name: "bad k", args: []string{"-k", "4", "a.txt"}, wantErr: "k must be between"},
		{name: "bad quantile", args: []string{"-quantiles", "1.5", "a.txt"}, wantErr: "quantile must be between"},
		{name: "bad workers", args: []string{"-workers", "0", "a.txt"}, wantErr: "workers must be positive"},
		{name: "bad log level", args: []string{"-log.level", "trace", "a.txt"}, wantErr: "unknown log level"},
		{name: "missing config file", args: []string{"-config.file", filepath.Join(dir, "nope.yaml"), "a.txt"}, wantErr: "reading"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg, inputs, err := parseConfig(tc.args, io.Discard)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			tc.check(t, cfg, inputs)
		})
	}
}

func newTestRunner(cfg config) (*runner, *bytes.Buffer, *bytes.Buffer) {
	var stdout, logs bytes.Buffer
	return &runner{
		cfg:    cfg,
		logger: log.NewLogfmtLogger(&logs),
		stdin:  strings.NewReader(""),
		stdout: &stdout,
	}, &stdout, &logs
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	a := writeNumbers(t, dir, "a.txt", 0, 1000)
	b := writeNumbers(t, dir, "b.txt", 1000, 2000)
	out := filepath.Join(dir, "result.kll")

	cfg := defaultConfig()
	cfg.Seed = 0
	cfg.Quantiles = floatList{0, 1}
	cfg.Out = out
	cfg.Arena = true
	r, stdout, logs := newTestRunner(cfg)
	require.NoError(t, r.run(context.Background(), []string{a, b}))

	assert.Contains(t, stdout.String(), "n\t2000\n")
	assert.Contains(t, stdout.String(), "q0\t0\n")
	assert.Contains(t, stdout.String(), "q1\t1999\n")
	assert.Contains(t, logs.String(), "sketch footprint")

	buf, err := os.ReadFile(out)
	require.NoError(t, err)
	s, err := kll.Deserialize[float64](buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), s.TotalCount())
	median, err := s.EstimateQuantile(0.5)
	require.NoError(t, err)
	assert.InDelta(t, 1000, median, 2000*s.NormalizedRankError(false))

	// a second run folds the persisted sketch into new input
	c := writeNumbers(t, dir, "c.txt", 2000, 3000)
	cfg = defaultConfig()
	cfg.Merge = fileList{out}
	cfg.Quantiles = floatList{1}
	r, stdout, _ = newTestRunner(cfg)
	require.NoError(t, r.run(context.Background(), []string{c}))
	assert.Contains(t, stdout.String(), "n\t3000\n")
	assert.Contains(t, stdout.String(), "q1\t2999\n")
}

func TestRun_MergeOnly(t *testing.T) {
	dir := t.TempDir()
	s, err := kll.FromRepeatedValue(42.0, 10, kll.DefaultK)
	require.NoError(t, err)
	data, err := s.ToSlice()
	require.NoError(t, err)
	path := filepath.Join(dir, "repeated.kll")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg := defaultConfig()
	cfg.Merge = fileList{path, path}
	cfg.Quantiles = floatList{0.5}
	r, stdout, _ := newTestRunner(cfg)
	require.NoError(t, r.run(context.Background(), nil))
	assert.Contains(t, stdout.String(), "n\t20\n")
	assert.Contains(t, stdout.String(), "q0.5\t42\n")
}

func TestRun_Stdin(t *testing.T) {
	cfg := defaultConfig()
	cfg.Quantiles = floatList{0.5}
	r, stdout, _ := newTestRunner(cfg)
	r.stdin = strings.NewReader("3\n1\n2\n")
	require.NoError(t, r.run(context.Background(), []string{"-"}))
	assert.Contains(t, stdout.String(), "n\t3\n")
	assert.Contains(t, stdout.String(), "q0.5\t2\n")
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("1\nabc\n"), 0o644))
	garbage := filepath.Join(dir, "garbage.kll")
	require.NoError(t, os.WriteFile(garbage, []byte("not a sketch"), 0o644))
	good := writeNumbers(t, dir, "good.txt", 0, 10)

	r, _, _ := newTestRunner(defaultConfig())
	err := r.run(context.Background(), []string{bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	err = r.run(context.Background(), []string{filepath.Join(dir, "missing.txt")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading")

	cfg := defaultConfig()
	cfg.Merge = fileList{garbage}
	r, _, _ = newTestRunner(cfg)
	err = r.run(context.Background(), []string{good})
	require.ErrorIs(t, err, kll.ErrFormat)
	assert.Contains(t, err.Error(), "merging")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	big := writeNumbers(t, dir, "big.txt", 0, 3*checkEvery)
	r, _, _ = newTestRunner(defaultConfig())
	require.ErrorIs(t, r.run(ctx, []string{big}), context.Canceled)
}

func TestRun_EmptyInput(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	r, stdout, _ := newTestRunner(defaultConfig())
	require.NoError(t, r.run(context.Background(), []string{empty}))
	assert.Contains(t, stdout.String(), "n\t0\n")
	assert.NotContains(t, stdout.String(), "q0.5")
}
