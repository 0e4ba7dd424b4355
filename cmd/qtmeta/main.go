// Package main provides the qtmeta CLI application.
package main

import (
	"log"
	"os"

	"github.com/clean-dependency-project/qtmeta/internal/cli"
)

func main() {
	app := cli.NewApp()

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
