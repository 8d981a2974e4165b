// Package metadata writes and verifies the manifest that sits next to a JSONL
// output file and records how that file was produced.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Suffix is appended to the JSONL path to name its manifest.
const Suffix = ".meta.yaml"

// Version is the manifest format version.
const Version = "1"

// Manifest verification errors.
var (
	ErrNoManifest   = errors.New("no manifest found")
	ErrNoHashFound  = errors.New("no hash found in manifest")
	ErrHashMismatch = errors.New("hash mismatch")
)

// Manifest describes a single scraper run.
type Manifest struct {
	ScrapedAt      time.Time `yaml:"scraped_at"`
	RunID          string    `yaml:"run_id"`
	Region         string    `yaml:"region"`
	Source         string    `yaml:"source"`
	FallbackReason string    `yaml:"fallback_reason,omitempty"`
	SHA256         string    `yaml:"sha256"`
	Version        string    `yaml:"version"`
	Retrieved      int       `yaml:"retrieved"`
	Normalized     int       `yaml:"normalized"`
	Failed         int       `yaml:"failed"`
	Mock           bool      `yaml:"mock"`
}

// PathFor returns the manifest path for a JSONL file.
func PathFor(jsonlPath string) string {
	return jsonlPath + Suffix
}

// HashFile computes the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Write hashes jsonlPath, stores the hash in m and writes the manifest next
// to it. It returns the manifest path.
func Write(jsonlPath string, m *Manifest) (string, error) {
	hash, err := HashFile(jsonlPath)
	if err != nil {
		return "", err
	}

	m.SHA256 = hash
	if m.Version == "" {
		m.Version = Version
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}

	path := PathFor(jsonlPath)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	return path, nil
}

// Read loads the manifest belonging to jsonlPath.
func Read(jsonlPath string) (*Manifest, error) {
	data, err := os.ReadFile(PathFor(jsonlPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoManifest, PathFor(jsonlPath))
		}

		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &m, nil
}

// Verify checks that jsonlPath still matches the hash in its manifest.
func Verify(jsonlPath string) (bool, error) {
	m, err := Read(jsonlPath)
	if err != nil {
		return false, err
	}

	if strings.TrimSpace(m.SHA256) == "" {
		return false, ErrNoHashFound
	}

	calculated, err := HashFile(jsonlPath)
	if err != nil {
		return false, err
	}

	if calculated != m.SHA256 {
		return false, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, m.SHA256, calculated)
	}

	return true, nil
}
