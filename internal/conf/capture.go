package conf

import (
	"fmt"
	"mapletap/internal/capture"
)

type Capture struct {
	File     string   `yaml:"file"`
	Ports    []int    `yaml:"ports"`
	Networks []string `yaml:"networks"`
}

func (c *Capture) setDefaults() {}

func (c *Capture) validate() []error {
	var errors []error

	if c.File == "" {
		errors = append(errors, fmt.Errorf("capture file is required"))
	}
	for _, p := range c.Ports {
		if p < 1 || p > 65535 {
			errors = append(errors, fmt.Errorf("capture port %d must be between 1-65535", p))
		}
	}
	if err := (capture.Filter{Networks: c.Networks}).Validate(); err != nil {
		errors = append(errors, fmt.Errorf("capture networks: %v", err))
	}

	return errors
}

func (c *Capture) Filter() capture.Filter {
	return capture.Filter{Ports: c.Ports, Networks: c.Networks}
}
