package appbase

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/serum-errors/go-serum"

	"github.com/warptools/ledgerview/lvapi"
)

// ReportError writes a failed command's error to wr.
//
// In JSON mode it is one line, `{"error": ...}`, with the error in serum's serial form.
// Otherwise the message comes first, then the code and each detail on its own line,
// and a note when the failure is worth retrying.
// Errors without a code are reported as ledgerview-error-unknown.
func ReportError(wr io.Writer, jsonMode bool, err error) {
	serr, ok := err.(serum.ErrorInterface)
	if !ok {
		serr = lvapi.ErrorUnknown("command failed", err).(serum.ErrorInterface)
	}

	if jsonMode {
		serial, merr := json.Marshal(struct {
			Error serum.ErrorInterface `json:"error"`
		}{serr})
		if merr != nil {
			fmt.Fprintf(wr, "{\"error\":{\"code\":%q,\"message\":%q}}\n", serr.Code(), serr.Error())
			return
		}
		fmt.Fprintf(wr, "%s\n", serial)
		return
	}

	fmt.Fprintf(wr, "%s %s\n", color.New(color.FgRed, color.Bold).Sprint("error:"), serum.Message(serr))
	faint := color.New(color.Faint)
	fmt.Fprintf(wr, "  %s %s\n", faint.Sprint("code:"), serr.Code())
	for _, d := range serum.Details(serr) {
		fmt.Fprintf(wr, "  %s %s\n", faint.Sprint(d[0]+":"), d[1])
	}
	if lvapi.IsRetryable(serr) {
		fmt.Fprintln(wr, "  this may succeed if retried")
	}
}
