package schemacli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	appbase "github.com/warptools/ledgerview/app/base"
	"github.com/warptools/ledgerview/app/base/util"
	"github.com/warptools/ledgerview/lvapi"
	"github.com/warptools/ledgerview/pkg/pointer"
)

func init() {
	appbase.App.Commands = append(appbase.App.Commands, schemaCmdDef)
}

var schemaCmdDef = &cli.Command{
	Name:  "schema",
	Usage: "Work with field schema files",
	Subcommands: []*cli.Command{
		{
			Name:      "check",
			Usage:     "Check field schema file(s) for syntax and sanity",
			UsageText: "ledgerview schema check FILE...",
			Action:    util.Standard(cmdSchemaCheck),
		},
	},
}

// Errors:
//
//   - ledgerview-error-invalid -- when no files are given
//   - ledgerview-error-io -- when a file cannot be read
//   - ledgerview-error-serialization -- when a file is not a field schema
//   - ledgerview-error-storage-pointer -- when a schema has field names that differ only in case
func cmdSchemaCheck(c *cli.Context) error {
	if !c.Args().Present() {
		return lvapi.ErrorInvalid("no input files provided")
	}
	for _, filename := range c.Args().Slice() {
		schema, err := util.LoadSchema(filename)
		if err != nil {
			return err
		}
		if err := pointer.ValidateSchema(schema); err != nil {
			return err
		}
		if !c.Bool("quiet") {
			fmt.Fprintf(c.App.Writer, "%s: ok (%d fields)\n", filename, schema.Len())
		}
	}
	return nil
}
