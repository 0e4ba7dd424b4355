package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/clean-dependency-project/qtmeta/internal/schema"
)

// newURLCommand builds the URL rule evaluation command.
func newURLCommand() *cli.Command {
	return &cli.Command{
		Name:      "url",
		Usage:     "Evaluate URL rules from a schema catalog",
		ArgsUsage: "[product] [variant] [values...]",
		Description: "With no arguments, lists the catalog's products. With a product,\n" +
			"lists its variants. With a product, variant, and one value per declared\n" +
			"argument, prints the resulting URLs. The value 'all' at any position\n" +
			"expands to every allowed value for that argument.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "schema",
				Aliases:  []string{"s"},
				Usage:    "path to the schema catalog file",
				Required: true,
				EnvVars:  []string{"QTMETA_SCHEMA"},
			},
		},
		Action: urlAction,
	}
}

func urlAction(c *cli.Context) error {
	data, err := os.ReadFile(c.String("schema"))
	if err != nil {
		return fmt.Errorf("failed to read schema catalog: %w", err)
	}
	catalog, err := schema.Load(data)
	if err != nil {
		return err
	}

	switch c.NArg() {
	case 0:
		for _, name := range catalog.Products() {
			fmt.Fprintln(c.App.Writer, name)
		}
		return nil
	case 1:
		variants, err := catalog.Variants(c.Args().Get(0))
		if err != nil {
			return err
		}
		for _, name := range variants {
			fmt.Fprintln(c.App.Writer, name)
		}
		return nil
	}

	s, err := catalog.Schema(c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}

	urls, err := s.ExpandAll(c.Args().Slice()[2:])
	if err != nil {
		return err
	}
	for url, evalErr := range urls {
		if evalErr != nil {
			return evalErr
		}
		fmt.Fprintln(c.App.Writer, url)
	}
	return nil
}
