// Command entityctl gives command-line access to innovation hub entities.
package main

import (
	"os"

	"github.com/innovationhub/store/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
