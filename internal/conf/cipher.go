package conf

import (
	"fmt"
	"mapletap/internal/cipher"
	"slices"
)

type Cipher struct {
	Provider string `yaml:"provider"`
}

func (c *Cipher) setDefaults() {
	if c.Provider == "" {
		c.Provider = "clear"
	}
}

func (c *Cipher) validate() []error {
	var errors []error

	if providers := cipher.Providers(); !slices.Contains(providers, c.Provider) {
		errors = append(errors, fmt.Errorf("cipher provider must be one of: %v", providers))
	}

	return errors
}
