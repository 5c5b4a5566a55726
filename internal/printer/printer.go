// Package printer writes human-facing CLI output.
package printer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hay-kot/criterio"
)

// ANSI color codes (Tokyo Night palette)
const (
	ColorReset     = "\033[0m"
	ColorRed       = "\033[38;2;215;95;107m"  // #d75f6b
	ColorGreen     = "\033[38;2;158;206;106m" // #9ece6a
	ColorYellow    = "\033[38;2;224;175;104m" // #e0af68
	ColorGray      = "\033[38;2;86;95;137m"   // #565f89
	ColorBold      = "\033[1m"
	ColorUnderline = "\033[4m"
)

// Symbols
const (
	Check = "✔"
	Cross = "✘"
	Dot   = "•"
)

type ctxKey struct{}

// Printer writes styled lines to a writer. Write errors are ignored.
type Printer struct {
	w io.Writer
}

func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// NewContext returns a context carrying p.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the printer stored in ctx, or one writing to stderr.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stderr)
}

func paint(color, text string) string {
	return color + text + ColorReset
}

func (p *Printer) line(parts ...string) {
	_, _ = io.WriteString(p.w, strings.Join(parts, "")+"\n")
}

// FatalError prints err in a boxed block. It does not exit.
// criterio field errors are listed one per line.
func (p *Printer) FatalError(err error) {
	if err == nil {
		return
	}

	bar := paint(ColorRed, "│")

	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		p.line(paint(ColorRed, "╭ Error"))
		p.line(bar, " ", paint(ColorGray, err.Error()))
		p.line(paint(ColorRed, "╵"))
		return
	}

	p.line(paint(ColorRed, "╭ Validation Error"))

	// whatever wraps the field errors, e.g. "load config: "
	msg := err.Error()
	if idx := strings.Index(msg, fieldErrs.Error()); idx > 0 {
		p.line(bar, " ", paint(ColorGray, strings.TrimSuffix(msg[:idx], ": ")))
		p.line(bar)
	}

	for _, fe := range fieldErrs {
		field := ""
		if fe.Field != "" {
			field = paint(ColorGray, fe.Field+": ")
		}
		p.line(bar, " ", paint(ColorRed, Cross), " ", field, fe.Err.Error())
	}

	p.line(paint(ColorRed, "╵"))
}

func (p *Printer) Errorf(format string, args ...any) {
	p.line(paint(ColorRed, Cross+" "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Successf(format string, args ...any) {
	p.line(paint(ColorGreen, Check+" "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Infof(format string, args ...any) {
	p.line(paint(ColorGray, Dot+" "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Warnf(format string, args ...any) {
	p.line(paint(ColorYellow, Dot+" "+fmt.Sprintf(format, args...)))
}

// Printf prints an uncolored line.
func (p *Printer) Printf(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

// Section prints a bold, underlined header.
func (p *Printer) Section(title string) {
	p.line(ColorBold, ColorUnderline, title, ColorReset)
}

func (p *Printer) CheckItem(label, detail string) { p.item(ColorGreen, Check, label, detail) }
func (p *Printer) WarnItem(label, detail string)  { p.item(ColorYellow, Dot, label, detail) }
func (p *Printer) FailItem(label, detail string)  { p.item(ColorRed, Cross, label, detail) }

func (p *Printer) item(color, symbol, label, detail string) {
	if detail != "" {
		detail = ": " + detail
	}
	p.line("  ", paint(color, symbol), " ", label, detail)
}

// KeyValue prints an indented key and value with a dim annotation.
func (p *Printer) KeyValue(key, value, note string) {
	if note != "" {
		note = " " + paint(ColorGray, "("+note+")")
	}
	p.line("  ", key, " = ", value, note)
}
