package resolvecli

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/urfave/cli/v2"

	appbase "github.com/warptools/ledgerview/app/base"
	"github.com/warptools/ledgerview/app/base/render"
	"github.com/warptools/ledgerview/app/base/util"
	"github.com/warptools/ledgerview/lvapi"
	"github.com/warptools/ledgerview/pkg/adapter"
	"github.com/warptools/ledgerview/pkg/pointer"
)

func init() {
	appbase.App.Commands = append(appbase.App.Commands, resolveCmdDef)
}

var resolveCmdDef = &cli.Command{
	Name:      "resolve",
	Usage:     "Download a document and the documents it points to",
	UsageText: "ledgerview resolve [--schema FILE] [--fields PATH,...] [--depth N] [--tree [--html]] URI",
	Description: heredoc.Doc(`
		Resolve downloads the document at URI and prints it.

		With a schema, fields it declares as pointers are followed,
		and the documents behind them are printed in their place.
		--fields limits which pointers are followed, as dot-separated paths;
		--depth limits how many levels deep pointers are followed, and wins over --fields.
	`),
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:      "schema",
			Usage:     "Field schema file describing the document",
			TakesFile: true,
		},
		&cli.StringSliceFlag{
			Name:  "fields",
			Usage: "Only follow these pointer fields",
		},
		&cli.IntFlag{
			Name:        "depth",
			Usage:       "Follow pointers at most this many levels deep; negative is unlimited",
			Value:       -1,
			DefaultText: "unlimited",
		},
		&cli.BoolFlag{
			Name:  "tree",
			Usage: "Print an outline instead of JSON",
		},
		&cli.BoolFlag{
			Name:  "html",
			Usage: "With --tree, print the outline as an HTML fragment",
		},
	},
	Action: util.Standard(cmdResolve),
}

// Errors:
//
//   - ledgerview-error-invalid -- when no uri is given
//   - ledgerview-error-io -- when the schema file cannot be read
//   - ledgerview-error-serialization -- when the schema file does not parse
//   - ledgerview-error-storage-pointer -- when a document cannot be downloaded or does not fit the schema
//   - ledgerview-error-offchain-data-runtime -- when a uri's scheme has no backend
func cmdResolve(c *cli.Context) error {
	if c.NArg() != 1 {
		return lvapi.ErrorInvalid("resolve takes exactly one uri")
	}
	schema, err := util.LoadSchema(c.String("schema"))
	if err != nil {
		return err
	}
	reg, err := util.Registry(c)
	if err != nil {
		return err
	}
	p, err := pointer.New(reg, c.Args().First(), schema)
	if err != nil {
		return err
	}

	opts := []pointer.PlainOption{pointer.WithDepth(c.Int("depth"))}
	if c.IsSet("fields") {
		opts = append(opts, pointer.WithResolvedFields(c.StringSlice("fields")...))
	}
	n, err := p.ToPlainObject(c.Context, opts...)
	if err != nil {
		return err
	}

	if c.Bool("tree") && !c.Bool("json") {
		var sb strings.Builder
		outline(&sb, n)
		mode := render.Mode_Auto
		if c.Bool("html") {
			mode = render.Mode_HTML
		}
		return render.Markdown([]byte(sb.String()), c.App.Writer, mode)
	}
	serial, err := adapter.EncodeJSON(n)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		_, err = fmt.Fprintf(c.App.Writer, "%s\n", serial)
		return err
	}
	return render.JSON(serial, c.App.Writer, render.Mode_Auto)
}

// outline writes a resolved pointer as a markdown heading and nested list.
func outline(sb *strings.Builder, n datamodel.Node) {
	ref, contents := splitResolved(n)
	fmt.Fprintf(sb, "# %s\n\n", ref)
	outlineEntries(sb, contents, 0)
}

func outlineEntries(sb *strings.Builder, m datamodel.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	itr := m.MapIterator()
	for !itr.Done() {
		k, v, err := itr.Next()
		if err != nil {
			return
		}
		key, _ := k.AsString()
		if ref, contents := splitResolved(v); contents != nil {
			fmt.Fprintf(sb, "%s- **%s** → `%s`\n", indent, key, ref)
			outlineEntries(sb, contents, depth+1)
			continue
		}
		if v.Kind() == datamodel.Kind_Map {
			fmt.Fprintf(sb, "%s- **%s**\n", indent, key)
			outlineEntries(sb, v, depth+1)
			continue
		}
		serial, err := adapter.EncodeJSON(v)
		if err != nil {
			serial = []byte("?")
		}
		fmt.Fprintf(sb, "%s- **%s**: `%s`\n", indent, key, serial)
	}
}

// splitResolved recognizes the {"ref", "contents"} shape of a resolved pointer.
// contents is nil for anything else.
func splitResolved(n datamodel.Node) (string, datamodel.Node) {
	if n.Kind() != datamodel.Kind_Map || n.Length() != 2 {
		return "", nil
	}
	refNode, err := n.LookupByString("ref")
	if err != nil {
		return "", nil
	}
	ref, err := refNode.AsString()
	if err != nil {
		return "", nil
	}
	contents, err := n.LookupByString("contents")
	if err != nil || contents.Kind() != datamodel.Kind_Map {
		return "", nil
	}
	return ref, contents
}
