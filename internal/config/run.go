package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInputNotFound is returned when the -input file does not exist.
var ErrInputNotFound = errors.New("input file not found")

// CLIArgs are the command-line values. Empty strings and zero limits mean
// "not set"; Mock stays a string so that "false" can override a default.
type CLIArgs struct {
	Region   string
	Endpoint string
	Mock     string
	Out      string
	CSV      string
	Limit    int
}

// InputFile is the optional run-input document (JSON or YAML).
type InputFile struct {
	Region string `yaml:"region"`
	Limit  int    `yaml:"limit"`
}

// RunSettings is the fully resolved input of one scraper run.
type RunSettings struct {
	Region    string
	Endpoint  string
	MockPath  string
	JSONLPath string
	CSVPath   string
	Limit     int
	Mock      bool
}

// LoadInputFile reads a run-input file. YAML is a superset of JSON, so both
// formats are accepted.
func LoadInputFile(path string) (*InputFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}

		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	var in InputFile
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("failed to parse input file: %w", err)
	}

	return &in, nil
}

// Resolve merges flags, the input file, the plain environment variables
// REGION, LIMIT, TTMUSIC_ENDPOINT, MOCK and MOCK_PATH, and the loaded config.
// Precedence is flag > input file > environment > config. Mock defaults to
// true when no endpoint is known.
func Resolve(cfg *Config, cli CLIArgs, in *InputFile, getenv func(string) string) RunSettings {
	if in == nil {
		in = &InputFile{}
	}

	if getenv == nil {
		getenv = os.Getenv
	}

	region := firstNonEmpty(cli.Region, in.Region, getenv("REGION"), cfg.Source.Region, "US")

	// Only zero means unset; a negative limit passes through and yields no items.
	limit := cfg.Source.Limit
	switch {
	case cli.Limit != 0:
		limit = cli.Limit
	case in.Limit != 0:
		limit = in.Limit
	default:
		if n, err := strconv.Atoi(strings.TrimSpace(getenv("LIMIT"))); err == nil && n != 0 {
			limit = n
		}
	}

	endpoint := firstNonEmpty(cli.Endpoint, getenv("TTMUSIC_ENDPOINT"), cfg.Source.Endpoint)

	mockDefault := endpoint == ""
	if cfg.Source.Mock != nil {
		mockDefault = *cfg.Source.Mock
	}

	mock := CoalesceBool(cli.Mock, CoalesceBool(getenv("MOCK"), mockDefault))

	return RunSettings{
		Region:    strings.ToUpper(region),
		Limit:     limit,
		Endpoint:  endpoint,
		Mock:      mock,
		MockPath:  firstNonEmpty(getenv("MOCK_PATH"), cfg.Source.MockPath),
		JSONLPath: firstNonEmpty(cli.Out, cfg.Output.JSONLPath),
		CSVPath:   firstNonEmpty(cli.CSV, cfg.Output.CSVPath),
	}
}

// CoalesceBool parses a loose boolean; blank input returns def.
func CoalesceBool(value string, def bool) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}

	switch strings.ToLower(value) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	return ""
}
