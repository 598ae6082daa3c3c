package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/twinfer/plistreader/pkg/manifest"
)

// printer writes documents to out as they are decoded. Fatal errors carry no
// filename and are left to the caller, which receives them from Run.
type printer struct {
	out    io.Writer
	errOut io.Writer
	source string
	multi  bool
	failed int
}

func newPrinter(out, errOut io.Writer, source string, multi bool) *printer {
	return &printer{out: out, errOut: errOut, source: source, multi: multi}
}

func (p *printer) header(filename string) string {
	switch {
	case filename == "":
		return p.source
	case p.multi:
		return p.source + ":" + filename
	}
	return filename
}

func (p *printer) OnDocument(content any, filename string) {
	if filename != "" || p.multi {
		fmt.Fprintf(p.out, "==> %s <==\n", p.header(filename))
	}
	var text string
	switch c := content.(type) {
	case string:
		text = c
	case []byte:
		p.out.Write(c)
		return
	default:
		text = fmt.Sprintf("%v", content)
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	io.WriteString(p.out, text)
}

func (p *printer) OnError(err error, filename string) {
	if filename == "" {
		return
	}
	p.failed++
	fmt.Fprintf(p.errOut, "%s: %v\n", p.header(filename), err)
}

func (p *printer) OnComplete(results []manifest.Result) {
	fmt.Fprintf(p.errOut, "%s: decoded %d of %d documents\n", p.source, len(results), len(results)+p.failed)
}
