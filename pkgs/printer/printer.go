// Package printer writes styled, human readable output for the CLI.
package printer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hay-kot/qgen/pkgs/styles"
)

type Printer struct {
	writer io.Writer
	base   styles.RenderFunc
	light  styles.RenderFunc
}

func New(w io.Writer) *Printer {
	return &Printer{
		writer: w,
		base:   styles.Bold,
		light:  styles.Subtle,
	}
}

// Ctx returns a copy of the printer that writes to the context writer when
// one is set.
func (p *Printer) Ctx(ctx context.Context) *Printer {
	cp := *p
	if w, ok := GetWriter(ctx); ok {
		cp.writer = w
	}
	return &cp
}

// WithBase returns a copy of the printer using style for titles.
func (p *Printer) WithBase(style styles.RenderFunc) *Printer {
	cp := *p
	cp.base = style
	return &cp
}

// WithLight returns a copy of the printer using style for secondary text.
func (p *Printer) WithLight(style styles.RenderFunc) *Printer {
	cp := *p
	cp.light = style
	return &cp
}

func (p *Printer) write(s string) {
	_, _ = io.WriteString(p.writer, s)
}

// Print writes s as is.
func (p *Printer) Print(s string) {
	p.write(s)
}

func (p *Printer) FatalError(err error) {
	p.LineBreak()
	p.write(styles.ErrorBox("Error", err.Error()))
	p.LineBreak()
}

func (p *Printer) Title(title string) {
	p.write(p.base(title) + "\n")
}

type StatusListItem struct {
	Ok     bool
	Status string
}

// StatusList prints items with a check or cross depending on Ok.
func (p *Printer) StatusList(title string, items []StatusListItem) {
	var sb strings.Builder
	sb.WriteString(p.base(title) + "\n")

	for _, item := range items {
		if item.Ok {
			sb.WriteString(styles.Success(styles.Check) + " " + item.Status + "\n")
			continue
		}
		sb.WriteString(styles.Padding(styles.Error(styles.Cross)) + " " + item.Status + "\n")
	}

	p.write(sb.String())
}

type Tree struct {
	Text     string
	Children []Tree
}

// ListTree prints each tree with its children indented beneath it.
func (p *Printer) ListTree(title string, list []Tree) {
	var sb strings.Builder
	sb.WriteString(p.base(title) + "\n")
	for _, t := range list {
		writeTree(&sb, t, 1, p.light)
	}
	p.write(sb.String())
}

func writeTree(sb *strings.Builder, t Tree, depth int, light styles.RenderFunc) {
	indent := strings.Repeat("  ", depth-1)
	if depth == 1 {
		sb.WriteString(indent + " " + styles.Folder + " " + t.Text + "\n")
	} else {
		sb.WriteString(indent + light(styles.Dot) + " " + t.Text + "\n")
	}

	for _, c := range t.Children {
		writeTree(sb, c, depth+1, light)
	}
}

func (p *Printer) List(title string, items []string) {
	var sb strings.Builder
	sb.WriteString(p.base(title) + "\n")
	for _, item := range items {
		sb.WriteString(p.light(styles.Dot) + " " + item + "\n")
	}
	p.write(sb.String())
}

func (p *Printer) LineBreak() {
	p.write("\n")
}

type KeyValueError struct {
	Key    string
	Errors []string
}

// KeyValueValidationError prints validation errors grouped under their key.
func (p *Printer) KeyValueValidationError(title string, errors []KeyValueError) {
	var sb strings.Builder
	sb.WriteString(styles.Error(styles.Cross+" "+title) + "\n")

	for _, e := range errors {
		key := e.Key
		if key == "" {
			key = "(root)"
		}
		sb.WriteString(fmt.Sprintf("  %s\n", styles.Bold(key)))
		for _, msg := range e.Errors {
			sb.WriteString(p.light(styles.Dot) + " " + msg + "\n")
		}
	}

	p.write(sb.String())
}
