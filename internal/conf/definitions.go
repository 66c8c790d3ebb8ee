package conf

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Definitions struct {
	Path        string `yaml:"path"`
	ShowIgnored bool   `yaml:"show_ignored"`
}

func (d *Definitions) validate() []error {
	var errors []error

	if d.Path == "" {
		return errors
	}
	switch strings.ToLower(filepath.Ext(d.Path)) {
	case ".yaml", ".yml", ".toml":
	default:
		errors = append(errors, fmt.Errorf("definitions path must end in .yaml, .yml or .toml: '%s'", d.Path))
	}

	return errors
}
