package commands

import (
	"fmt"

	"github.com/xymaxim/vpick/internal/config"
)

type SampleConfig struct{}

func (c *SampleConfig) Run() error {
	fmt.Print(config.SampleConfig())
	return nil
}
