/*
Package helpgen replaces the help text generators of `urfave/cli` at package init time.

Help is produced from templates that emit markdown,
which is then rendered for the terminal by package render when stdout is one.
*/
package helpgen

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/MakeNowJust/heredoc"
	"github.com/urfave/cli/v2"

	"github.com/warptools/ledgerview/app/base/render"
)

// Mode is how help is rendered.  Tests set it to render.Mode_Plain.
var Mode = render.Mode_Auto

// printHelpCustom is the entrypoint for `urfave/cli`'s customization.
func printHelpCustom(out io.Writer, tmpl string, data interface{}, customFuncs map[string]interface{}) {
	funcMap := template.FuncMap{
		"join": strings.Join,
		"trim": strings.TrimSpace,
	}
	for key, value := range customFuncs {
		funcMap[key] = value
	}

	var buf bytes.Buffer
	t := template.Must(template.New("help").Funcs(funcMap).Parse(tmpl))
	template.Must(t.New("visibleCommandTemplate").Parse(visibleCommandTemplate))
	template.Must(t.New("visibleFlagTemplate").Parse(visibleFlagTemplate))
	if err := t.Execute(&buf, data); err != nil {
		panic(err)
	}
	_ = render.Markdown(buf.Bytes(), out, Mode)
}

func init() {
	cli.HelpPrinterCustom = printHelpCustom
	cli.AppHelpTemplate = appHelpTemplate
	cli.CommandHelpTemplate = commandHelpTemplate
	cli.SubcommandHelpTemplate = subcommandHelpTemplate
	cli.FlagStringer = flagStringer
}

var visibleCommandTemplate = heredoc.Doc(`
	{{- range .VisibleCommands}}
	### {{join .Names ", "}}
	{{.Usage}}
	{{end}}
`)

var visibleFlagTemplate = heredoc.Doc(`
	{{- range $i, $e := .VisibleFlags}}
	{{$e.String}}
	{{end}}
`)

var appHelpTemplate = heredoc.Doc(`
	## NAME
	{{.Name}}{{if .Usage}} - {{.Usage}}{{end}}

	{{- if .UsageText}}

	## USAGE
	{{.UsageText}}
	{{- end}}

	{{- if .Description}}

	## DESCRIPTION
	{{.Description}}
	{{- end}}

	{{- if .VisibleCommands}}

	## COMMANDS
	{{template "visibleCommandTemplate" .}}
	{{- end}}

	{{- if .VisibleFlags}}

	## GLOBAL OPTIONS
	{{template "visibleFlagTemplate" .}}
	{{- end}}
`)

var commandHelpTemplate = heredoc.Doc(`
	## NAME
	{{.HelpName}}{{if .Usage}} - {{.Usage}}{{end}}

	## USAGE
	{{if .UsageText}}{{trim .UsageText}}{{else}}{{.HelpName}}{{if .VisibleFlags}} [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}

	{{- if .Description}}

	## DESCRIPTION
	{{trim .Description}}
	{{- end}}

	{{- if .VisibleFlags}}

	## OPTIONS
	{{template "visibleFlagTemplate" .}}
	{{- end}}
`)

var subcommandHelpTemplate = heredoc.Doc(`
	## NAME
	{{.HelpName}}{{if .Usage}} - {{.Usage}}{{end}}

	## USAGE
	{{if .UsageText}}{{trim .UsageText}}{{else}}{{.HelpName}} command [command options] [arguments...]{{end}}

	{{- if .Description}}

	## DESCRIPTION
	{{trim .Description}}
	{{- end}}

	## COMMANDS
	{{template "visibleCommandTemplate" .}}
`)

// flagStringer formats one flag as a markdown heading followed by its usage.
func flagStringer(f cli.Flag) string {
	df, ok := f.(cli.DocGenerationFlag)
	if !ok {
		return fmt.Sprintf("#### %s\n", strings.Join(f.Names(), ", "))
	}

	placeholder := ""
	if df.TakesValue() {
		placeholder = "VALUE"
	}
	var names []string
	for _, name := range df.Names() {
		prefix := "--"
		if len(name) == 1 {
			prefix = "-"
		}
		if placeholder != "" {
			name += "=<" + placeholder + ">"
		}
		names = append(names, prefix+name)
	}

	usage := df.GetUsage()
	if bf, isBool := f.(*cli.BoolFlag); !isBool || !bf.DisableDefaultText {
		if s := df.GetDefaultText(); s != "" {
			usage += fmt.Sprintf("\n\n(default: **%s**)", s)
		}
	}
	result := fmt.Sprintf("#### %s\n\n%s\n", strings.Join(names, ", "), strings.TrimSpace(usage))
	if envVars := df.GetEnvVars(); len(envVars) > 0 {
		result += fmt.Sprintf("\n(env var: $**%s**)", strings.Join(envVars, ", $"))
	}
	return result
}
