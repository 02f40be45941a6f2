package main

import (
	"os"

	"github.com/aligator/fatstream/internal/cli"
	"github.com/aligator/fatstream/internal/log"
	"github.com/spf13/afero"
)

func main() {
	rootCmd := cli.NewRootCommand(afero.NewOsFs())

	if err := rootCmd.Execute(); err != nil {
		log.Error("command failed", log.Fields{
			log.FieldError: err.Error(),
		})
		os.Exit(1)
	}
}
