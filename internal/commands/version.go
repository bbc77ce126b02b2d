package commands

import (
	"fmt"

	versionpkg "github.com/xymaxim/vpick/internal/version"
)

type Version struct {
	Short bool `help:"Show only the version number" short:"s"`
}

func (c *Version) Run() error {
	info := versionpkg.Read()
	if c.Short {
		fmt.Println(info.Short())
	} else {
		fmt.Println(info.String())
	}

	return nil
}
