package appbase

import (
	"io"

	"github.com/urfave/cli/v2"

	_ "github.com/warptools/ledgerview/app/base/helpgen"
)

const VERSION = "v0.1.0"

var App = &cli.App{
	Name:    "ledgerview",
	Version: VERSION,
	Usage:   "inspect and publish the documents behind ledger records",

	Reader:    unwiredReader{},
	Writer:    unwiredWriter{},
	ErrWriter: unwiredWriter{},

	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			EnvVars: []string{"LEDGERVIEW_DEBUG"},
		},
		&cli.BoolFlag{
			Name: "quiet",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Enable JSON API output",
		},
		&cli.StringFlag{
			Name:      "trace.file",
			Usage:     "Enable tracing and emit output to file",
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:  "trace.http.enable",
			Usage: "Enable remote tracing over http",
		},
		&cli.BoolFlag{
			Name:  "trace.http.insecure",
			Usage: "Allows insecure http",
		},
		&cli.StringFlag{
			Name:  "trace.http.endpoint",
			Usage: "Sets an endpoint for remote open-telemetry tracing collection",
		},
	},

	// The commands slice is updated by each package that contains commands.
	// Import the parent of this package to get that all done for you!
	Commands: []*cli.Command{},

	ExitErrHandler: func(c *cli.Context, err error) {
		if err == nil {
			return
		}
		ReportError(c.App.ErrWriter, c.Bool("json"), err)
	},
}

func init() {
	// "-v" belongs to --verbose, so the version flag has no short alias.
	cli.VersionFlag = &cli.BoolFlag{
		Name:               "version",
		Usage:              "print the version",
		DisableDefaultText: true,
	}
}

// unwiredReader and unwiredWriter hold App's stdio until a main or a test wires real streams.
type unwiredReader struct{}

func (unwiredReader) Read(p []byte) (int, error) {
	return 0, io.EOF
}

type unwiredWriter struct{}

func (unwiredWriter) Write(data []byte) (int, error) {
	panic("ledgerview: App.Writer and App.ErrWriter must be set before App.Run")
}
