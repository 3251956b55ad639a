package putcli

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/fluent/qp"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"github.com/urfave/cli/v2"

	appbase "github.com/warptools/ledgerview/app/base"
	"github.com/warptools/ledgerview/app/base/util"
	"github.com/warptools/ledgerview/lvapi"
	"github.com/warptools/ledgerview/pkg/adapter"
	"github.com/warptools/ledgerview/pkg/logging"
)

func init() {
	appbase.App.Commands = append(appbase.App.Commands, putCmdDef)
}

var putCmdDef = &cli.Command{
	Name:      "put",
	Usage:     "Upload a document and print its uri",
	UsageText: "ledgerview put [--scheme SCHEME] [--update URI] FILE",
	Description: heredoc.Doc(`
		Put stores the document in FILE with the backend for --scheme,
		and prints the uri it can be resolved from.

		With --update, the document replaces the one at URI instead,
		and the backend is chosen by URI's scheme.
		Content-addressed backends give the new document a new uri.

		Files ending in .cbor are read as DAG-CBOR, .dag-json as DAG-JSON,
		and anything else as JSON.
	`),
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "scheme",
			Usage: "Backend to upload to",
			Value: adapter.S3Scheme,
		},
		&cli.StringFlag{
			Name:  "update",
			Usage: "Replace the document at this uri",
		},
	},
	Action: util.Standard(cmdPut),
}

// Errors:
//
//   - ledgerview-error-invalid -- when no file is given
//   - ledgerview-error-io -- when the file cannot be read
//   - ledgerview-error-serialization -- when the file does not parse
//   - ledgerview-error-offchain-data-runtime -- when the backend is missing or read-only
func cmdPut(c *cli.Context) error {
	if c.NArg() != 1 {
		return lvapi.ErrorInvalid("put takes exactly one file")
	}
	doc, err := util.LoadDocument(c.Args().First())
	if err != nil {
		return err
	}
	reg, err := util.Registry(c)
	if err != nil {
		return err
	}

	var uri string
	if target := c.String("update"); target != "" {
		backend, err := reg.ForURI(target)
		if err != nil {
			return err
		}
		uri, err = backend.Update(c.Context, target, doc)
		if err != nil {
			return err
		}
	} else {
		backend, err := reg.GetAdapter(c.String("scheme"))
		if err != nil {
			return err
		}
		uri, err = backend.Upload(c.Context, doc)
		if err != nil {
			return err
		}
	}
	logging.Ctx(c.Context).Info("put", "stored %s", c.Args().First())

	if c.Bool("json") {
		n, err := qp.BuildMap(basicnode.Prototype.Any, 1, func(ma datamodel.MapAssembler) {
			qp.MapEntry(ma, "uri", qp.String(uri))
		})
		if err != nil {
			return lvapi.ErrorInternal("failed to build output", err)
		}
		serial, err := adapter.EncodeJSON(n)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(c.App.Writer, "%s\n", serial)
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s\n", uri)
	return err
}
