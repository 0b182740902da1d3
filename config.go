package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/shenwei356/xopen"
	"gopkg.in/yaml.v3"

	"github.com/Altius/stampipes/programs/true_barcodes/internal/consensus"
)

const (
	defaultAnchor       = "GTACTGCGGCCGCTACCTA"
	defaultAnchorOffset = 32
	defaultPrefixLength = 30
	defaultOutput       = "true_barcodes_output.txt"

	// maxAnchorMismatches bounds the anchor expansion, which grows as
	// C(len, d) * 4^d.
	maxAnchorMismatches = 3
)

const (
	modeParallel   = "parallel"
	modeSequential = "sequential"
)

var errInvalidConfig = errors.New("invalid config")

// Config describes one clustering run
type Config struct {
	Inputs           []string `json:"inputs" yaml:"inputs"`                       // FASTQ/FASTA files, gzip allowed
	Cells            int      `json:"cells" yaml:"cells"`                         // Expected number of true barcodes
	Anchor           string   `json:"anchor" yaml:"anchor"`                       // Known sequence marking barcode reads
	AnchorOffset     int      `json:"anchor_offset" yaml:"anchor_offset"`         // Read position where the anchor starts
	AnchorMismatches int      `json:"anchor_mismatches" yaml:"anchor_mismatches"` // Substitutions tolerated in the anchor
	PrefixLength     int      `json:"prefix_length" yaml:"prefix_length"`         // Barcode length taken from the read start
	Threads          int      `json:"threads" yaml:"threads"`                     // 0 means all CPUs
	Mode             string   `json:"mode" yaml:"mode"`                           // parallel or sequential
	Output           string   `json:"output" yaml:"output"`                       // One true barcode per line
	Report           string   `json:"report" yaml:"report"`                       // Optional TSV with counts and confidence
	MetricsFile      string   `json:"metrics_file" yaml:"metrics_file"`           // Optional Prometheus text dump
}

func defaultConfig() *Config {
	return &Config{
		Cells:        consensus.DefaultExpected,
		Anchor:       defaultAnchor,
		AnchorOffset: defaultAnchorOffset,
		PrefixLength: defaultPrefixLength,
		Mode:         modeParallel,
		Output:       defaultOutput,
	}
}

// readConfigFile loads filename over the defaults. Files ending in .yaml or
// .yml are YAML, anything else is JSON.
func readConfigFile(filename string) (*Config, error) {
	r, err := xopen.Ropen(filename)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(strings.ToLower(filename), ".gz")
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return configFromYAML(data)
	default:
		return configFromJSON(data)
	}
}

func configFromJSON(data []byte) (*Config, error) {
	c := defaultConfig()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse json config: %w", err)
	}
	return c, nil
}

func configFromYAML(data []byte) (*Config, error) {
	c := defaultConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse yaml config: %w", err)
	}
	return c, nil
}

// validate normalizes case and checks every field.
func (c *Config) validate() error {
	c.Anchor = strings.ToUpper(c.Anchor)
	c.Mode = strings.ToLower(c.Mode)

	switch {
	case len(c.Inputs) == 0:
		return fmt.Errorf("%w: at least one input file is required", errInvalidConfig)
	case c.Cells <= 0:
		return fmt.Errorf("%w: cells must be > 0, got %d", errInvalidConfig, c.Cells)
	case c.Anchor == "":
		return fmt.Errorf("%w: anchor must not be empty", errInvalidConfig)
	case strings.Trim(c.Anchor, nucleotides) != "":
		return fmt.Errorf("%w: anchor %q has symbols outside %s", errInvalidConfig, c.Anchor, nucleotides)
	case c.AnchorOffset < 0:
		return fmt.Errorf("%w: anchor offset must be >= 0, got %d", errInvalidConfig, c.AnchorOffset)
	case c.AnchorMismatches < 0 || c.AnchorMismatches > maxAnchorMismatches:
		return fmt.Errorf("%w: anchor mismatches must be in [0, %d], got %d", errInvalidConfig, maxAnchorMismatches, c.AnchorMismatches)
	case c.PrefixLength <= 0:
		return fmt.Errorf("%w: prefix length must be > 0, got %d", errInvalidConfig, c.PrefixLength)
	case c.Threads < 0:
		return fmt.Errorf("%w: threads must be >= 0, got %d", errInvalidConfig, c.Threads)
	case c.Mode != modeParallel && c.Mode != modeSequential:
		return fmt.Errorf("%w: mode must be %s or %s, got %q", errInvalidConfig, modeParallel, modeSequential, c.Mode)
	case c.Output == "":
		return fmt.Errorf("%w: output must not be empty", errInvalidConfig)
	case c.MetricsFile == stdoutName:
		return fmt.Errorf("%w: metrics file must be a path, not stdout", errInvalidConfig)
	}

	seen := make(map[string]string)
	for name, path := range map[string]string{"output": c.Output, "report": c.Report, "metrics file": c.MetricsFile} {
		if path == "" || path == stdoutName {
			continue
		}
		key := filepath.Clean(path)
		if other, dup := seen[key]; dup {
			return fmt.Errorf("%w: %s and %s both write %s", errInvalidConfig, other, name, path)
		}
		seen[key] = name
	}
	return nil
}
