package printer

import (
	"bytes"
	"context"
	"io"
	"sync"
)

type ctxkey string

const writerKey = ctxkey("writerKey")

// WithWriter returns a context whose printers write to writer.
func WithWriter(ctx context.Context, writer io.Writer) context.Context {
	return context.WithValue(ctx, writerKey, writer)
}

// GetWriter returns the writer stored by WithWriter.
func GetWriter(ctx context.Context) (io.Writer, bool) {
	w, ok := ctx.Value(writerKey).(io.Writer)
	return w, ok
}

// DeferredWriter buffers everything written to it until Flush. The CLI uses
// it so styled output lands after log lines written to stderr.
type DeferredWriter struct {
	mu     sync.Mutex
	buff   bytes.Buffer
	writer io.Writer
}

func NewDeferredWriter(w io.Writer) *DeferredWriter {
	return &DeferredWriter{writer: w}
}

func (dw *DeferredWriter) Write(p []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.buff.Write(p)
}

// Flush writes the buffered output and empties the buffer.
func (dw *DeferredWriter) Flush() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	_, err := dw.buff.WriteTo(dw.writer)
	return err
}
