package conf

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

type Conf struct {
	Log         Log         `yaml:"log"`
	Capture     Capture     `yaml:"capture"`
	Session     Session     `yaml:"session"`
	Cipher      Cipher      `yaml:"cipher"`
	Definitions Definitions `yaml:"definitions"`
}

func LoadFromFile(path string) (*Conf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var conf Conf

	if err := yaml.Unmarshal(data, &conf); err != nil {
		return &conf, err
	}

	return &conf, nil
}

// Finalize fills defaults and validates. Call it after command line overrides
// have been applied.
func (c *Conf) Finalize() error {
	c.setDefaults()
	return c.validate()
}

func (c *Conf) setDefaults() {
	c.Log.setDefaults()
	c.Capture.setDefaults()
	c.Session.setDefaults()
	c.Cipher.setDefaults()
}

func (c *Conf) validate() error {
	var allErrors []error

	allErrors = append(allErrors, c.Log.validate()...)
	allErrors = append(allErrors, c.Capture.validate()...)
	allErrors = append(allErrors, c.Session.validate()...)
	allErrors = append(allErrors, c.Cipher.validate()...)
	allErrors = append(allErrors, c.Definitions.validate()...)

	return writeErr(allErrors)
}

func writeErr(allErrors []error) error {
	if len(allErrors) > 0 {
		var messages []string
		for _, err := range allErrors {
			messages = append(messages, err.Error())
		}
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(messages, "\n  - "))
	}
	return nil
}
