package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File is the on-disk launcher configuration.
//
//	root: /opt/trex/v3.06
//	python: python3.11
//	bench:
//	  target_rate: 200000
//	  steps: 20
//	extra_env:
//	  PYTHONUNBUFFERED: "1"
//	attributes:
//	  - host=env["HOSTNAME"]
type File struct {
	Root       string            `yaml:"root"`
	Python     string            `yaml:"python"`
	Module     string            `yaml:"module"`
	Bench      BenchSection      `yaml:"bench"`
	ExtraEnv   map[string]string `yaml:"extra_env"`
	Attributes []string          `yaml:"attributes"`

	path string
}

// BenchSection mirrors the benchmark flags.
type BenchSection struct {
	TargetRate int    `yaml:"target_rate"`
	BaseRate   int    `yaml:"base_rate"`
	Steps      int    `yaml:"steps"`
	Duration   int    `yaml:"duration"`
	Server     string `yaml:"server"`
}

// LoadFile reads a launcher file. Unknown keys are rejected. A relative
// root is resolved against the directory holding the file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read launcher file: %w", err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse launcher file %s: %w", path, err)
	}

	if f.Root != "" && !filepath.IsAbs(f.Root) {
		f.Root = filepath.Join(filepath.Dir(path), f.Root)
	}
	f.path = path

	return &f, nil
}
