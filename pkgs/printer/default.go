package printer

import (
	"context"
	"os"
)

// ConsolePrinter is the process-wide printer. main replaces it with one bound
// to the deferred stdout writer.
var ConsolePrinter = New(os.Stdout)

func Ctx(ctx context.Context) *Printer {
	return ConsolePrinter.Ctx(ctx)
}
