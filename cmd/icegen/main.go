// icegen reads a Slice unit descriptor and emits the generated Go proxy,
// servant, and marshalling code for it. It is expected to be invoked by
// the build, one unit per package.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"github.com/icebridge-project/icebridge/internal/gen"
	"github.com/icebridge-project/icebridge/internal/slice"
	"github.com/icebridge-project/icebridge/pkg/icelog"
)

func main() {
	app := cli.NewApp()
	app.Name = "icegen"
	app.Usage = "generate Go proxies and servants from a Slice unit descriptor"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "unit",
			Usage: "path to the Slice unit descriptor (YAML)",
		},
		cli.StringFlag{
			Name:  "out",
			Usage: "output .go file path (default: <unit-basename>_gen.go next to --unit)",
		},
		cli.StringFlag{
			Name:  "package",
			Usage: "generated package name (default: the unit's module name, lowercased)",
		},
		cli.BoolFlag{
			Name:  "v",
			Usage: "verbose logging",
		},
	}
	app.Action = generate

	if err := app.Run(os.Args); err != nil {
		icelog.Fatalln(err)
	}
}

func generate(c *cli.Context) error {
	if c.Bool("v") {
		icelog.AddStderr(icelog.DEBUG)
	} else {
		icelog.AddStderr(icelog.INFO)
	}

	unitPath := c.String("unit")
	if unitPath == "" {
		return cli.NewExitError("icegen: -unit is required", 1)
	}

	icelog.Debug("loading unit: %v", unitPath)
	u, err := slice.Load(unitPath)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("icegen: %v", err), 1)
	}

	pkgName := c.String("package")
	if pkgName == "" {
		pkgName = strings.ToLower(u.Module)
	}

	icelog.Debug("generating package %v from module %q", pkgName, u.Module)
	src, err := gen.Generate(u, pkgName)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("icegen: %v", err), 1)
	}

	outPath := c.String("out")
	if outPath == "" {
		base := strings.TrimSuffix(filepath.Base(unitPath), filepath.Ext(unitPath))
		outPath = filepath.Join(filepath.Dir(unitPath), base+"_gen.go")
	}

	if err := os.WriteFile(outPath, src, 0644); err != nil {
		return cli.NewExitError(fmt.Sprintf("icegen: write %s: %v", outPath, err), 1)
	}
	icelog.Info("wrote %v", outPath)
	return nil
}
