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
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sketchlab/kllsketch/kll"
)

// config is read from an optional YAML file. Flags given on the command line
// take precedence over the file.
type config struct {
	K         uint32    `yaml:"k"`
	Epsilon   float64   `yaml:"epsilon"`
	Seed      int64     `yaml:"seed"`
	Workers   int       `yaml:"workers"`
	Arena     bool      `yaml:"arena"`
	Quantiles floatList `yaml:"quantiles"`
	Merge     fileList  `yaml:"merge"`
	Out       string    `yaml:"out"`
	LogLevel  string    `yaml:"log_level"`
}

func defaultConfig() config {
	return config{
		K:         kll.DefaultK,
		Seed:      -1,
		Workers:   4,
		Quantiles: floatList{0, 0.25, 0.5, 0.75, 0.9, 0.99, 1},
		LogLevel:  "info",
	}
}

func (c *config) registerFlags(fs *flag.FlagSet) {
	fs.Func("k", "Sketch width, between 8 and 65535", func(s string) error {
		k, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return err
		}
		c.K = uint32(k)
		return nil
	})
	fs.Float64Var(&c.Epsilon, "epsilon", c.Epsilon, "Target rank error; overrides -k when set")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Seed for the compaction coin flips, -1 for a random seed")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Number of input files read in parallel")
	fs.BoolVar(&c.Arena, "arena", c.Arena, "Keep level buffers in an arena and report its footprint")
	fs.Var(&c.Quantiles, "quantiles", "Comma separated normalized ranks to report")
	fs.Var(&c.Merge, "merge", "Comma separated serialized sketches to merge into the result")
	fs.StringVar(&c.Out, "out", c.Out, "Write the serialized result sketch to this file")
	fs.StringVar(&c.LogLevel, "log.level", c.LogLevel, "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error]")
}

func (c *config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", c.Workers)
	}
	if c.Epsilon != 0 {
		k, err := kll.KFromEpsilon(c.Epsilon)
		if err != nil {
			return err
		}
		c.K = k
	}
	if c.K < kll.MinK || c.K > kll.MaxK {
		return fmt.Errorf("k must be between %d and %d: %d", kll.MinK, kll.MaxK, c.K)
	}
	for _, q := range c.Quantiles {
		if !(q >= 0 && q <= 1) {
			return fmt.Errorf("quantile must be between 0 and 1: %v", q)
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// parseConfig resolves the configuration from args and returns it together
// with the input files.
func parseConfig(args []string, stderr io.Writer) (config, []string, error) {
	cfg := defaultConfig()
	fs := flag.NewFlagSet("kll-quantiles", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: kll-quantiles [flags] [file ...]\n\nEach file holds one number per line; - reads stdin.\n\n")
		fs.PrintDefaults()
	}
	configFile := fs.String("config.file", "", "YAML file with default values for the flags")
	cfg.registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return cfg, nil, err
	}

	if *configFile != "" {
		buf, err := os.ReadFile(*configFile)
		if err != nil {
			return cfg, nil, fmt.Errorf("reading %s: %w", *configFile, err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return cfg, nil, fmt.Errorf("parsing %s: %w", *configFile, err)
		}
		// parse again so that explicit flags win over the file
		if err := fs.Parse(args); err != nil {
			return cfg, nil, err
		}
	}
	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	if explicit["k"] && !explicit["epsilon"] {
		// an explicit -k beats an epsilon from the file
		cfg.Epsilon = 0
	}
	if err := cfg.validate(); err != nil {
		return cfg, nil, err
	}
	if fs.NArg() == 0 && len(cfg.Merge) == 0 {
		fs.Usage()
		return cfg, nil, errors.New("no input files")
	}
	stdin := 0
	for _, arg := range fs.Args() {
		if arg == "-" {
			stdin++
		}
	}
	if stdin > 1 {
		return cfg, nil, errors.New("stdin (-) can only be read once")
	}
	return cfg, fs.Args(), nil
}

// floatList is a flag.Value holding comma separated numbers. Set replaces
// the whole list.
type floatList []float64

func (l *floatList) String() string {
	parts := make([]string, len(*l))
	for i, f := range *l {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (l *floatList) Set(s string) error {
	var out floatList
	for _, part := range strings.Split(s, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return err
		}
		out = append(out, f)
	}
	*l = out
	return nil
}

// fileList is a flag.Value holding comma separated paths. Set replaces the
// whole list.
type fileList []string

func (l *fileList) String() string {
	return strings.Join(*l, ",")
}

func (l *fileList) Set(s string) error {
	var out fileList
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*l = out
	return nil
}
