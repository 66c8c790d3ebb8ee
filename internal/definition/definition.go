// Package definition is the read-only catalogue of packet names. A Repository
// value is an immutable snapshot; With returns a new snapshot, so one value can
// be shared by every session without locking.
package definition

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

type Definition struct {
	Build    uint16 `yaml:"build" toml:"build"`
	Locale   byte   `yaml:"locale" toml:"locale"`
	Outbound bool   `yaml:"outbound" toml:"outbound"`
	Opcode   uint16 `yaml:"opcode" toml:"opcode"`
	Name     string `yaml:"name" toml:"name"`
	Ignore   bool   `yaml:"ignore" toml:"ignore"`
}

func (d Definition) String() string {
	return fmt.Sprintf("Locale: %d; Version: %d; Opcode: %04X; Name: %s; Outbound: %t; Ignored: %t",
		d.Locale, d.Build, d.Opcode, d.Name, d.Outbound, d.Ignore)
}

type key struct {
	build    uint16
	locale   byte
	outbound bool
	opcode   uint16
}

func keyOf(d Definition) key {
	return key{build: d.Build, locale: d.Locale, outbound: d.Outbound, opcode: d.Opcode}
}

type Repository struct {
	defs map[key]Definition
}

type document struct {
	Definitions []Definition `yaml:"definitions" toml:"definitions"`
}

// New builds a repository. Later definitions replace earlier ones with the same key.
func New(defs ...Definition) *Repository {
	r := &Repository{defs: make(map[key]Definition, len(defs))}
	for _, d := range defs {
		r.defs[keyOf(d)] = d
	}
	return r
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) definitions file.
func Load(path string) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("definitions %s: %w", path, err)
	}
	return r, nil
}

func Parse(data []byte, format string) (*Repository, error) {
	var doc document
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case "toml":
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported definitions format %q", format)
	}
	return New(doc.Definitions...), nil
}

// Lookup is safe on a nil repository.
func (r *Repository) Lookup(build uint16, locale byte, outbound bool, opcode uint16) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	d, ok := r.defs[key{build: build, locale: locale, outbound: outbound, opcode: opcode}]
	return d, ok
}

func (r *Repository) Name(build uint16, locale byte, outbound bool, opcode uint16) string {
	d, _ := r.Lookup(build, locale, outbound, opcode)
	return d.Name
}

// With returns a snapshot that also contains d.
func (r *Repository) With(d Definition) *Repository {
	next := &Repository{defs: make(map[key]Definition, r.Len()+1)}
	if r != nil {
		for k, v := range r.defs {
			next.defs[k] = v
		}
	}
	next.defs[keyOf(d)] = d
	return next
}

func (r *Repository) Len() int {
	if r == nil {
		return 0
	}
	return len(r.defs)
}
