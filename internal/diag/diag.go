// Package diag defines the typed diagnostic errors produced by every stage
// of the compiler pipeline. Each stage still returns plain []error (matching
// the teacher's accumulate-and-continue style), but the concrete values are
// one of the kinds below so callers can type-switch when they need to (the
// CLI front-end uses this to colorize by severity/kind).
package diag

import (
	"fmt"
	"strings"

	"github.com/hassan/munic/internal/lexer"
)

// Kind identifies which pipeline stage raised a diagnostic.
type Kind int

const (
	KindLex Kind = iota
	KindParse
	KindImport
	KindName
	KindType
	KindAliasCycle
	KindMono
	KindEmit
)

func (k Kind) String() string {
	switch k {
	case KindLex:
		return "lex error"
	case KindParse:
		return "parse error"
	case KindImport:
		return "import error"
	case KindName:
		return "name error"
	case KindType:
		return "type error"
	case KindAliasCycle:
		return "alias cycle"
	case KindMono:
		return "monomorphization diverges"
	case KindEmit:
		return "emit error"
	default:
		return "error"
	}
}

// Diagnostic is the common shape every error kind below embeds: a kind, a
// message, and the span(s) of source it concerns.
//
// DESIGN CHOICE: a single concrete struct with a Kind field, rather than one
// type per kind with duplicated String()/Error() methods, because every kind
// has the exact same rendering rules (kind, message, spans) and the teacher's
// own error values (plain fmt.Errorf strings) never needed more than that.
// Constructors below still give each kind its own name and its own argument
// shape, matching spec.md's taxonomy, so callers can't mix them up by
// accident.
type Diagnostic struct {
	Kind    Kind
	Message string
	Spans   []lexer.Span
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(d.Kind.String())
	b.WriteString(": ")
	b.WriteString(d.Message)
	for i, sp := range d.Spans {
		if i == 0 {
			b.WriteString(" (")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(sp.String())
	}
	if len(d.Spans) > 0 {
		b.WriteString(")")
	}
	return b.String()
}

// LexError reports an unterminated literal/comment or an unrecognized
// character, per spec.md §4.1.
func LexError(span lexer.Span, format string, args ...any) error {
	return &Diagnostic{Kind: KindLex, Message: fmt.Sprintf(format, args...), Spans: []lexer.Span{span}}
}

// ParseError reports a syntax error, per spec.md §4.2.
func ParseError(span lexer.Span, format string, args ...any) error {
	return &Diagnostic{Kind: KindParse, Message: fmt.Sprintf(format, args...), Spans: []lexer.Span{span}}
}

// ImportError reports a missing file, an unreadable file, or a host-import
// conflict, per spec.md §4.3.
func ImportError(span lexer.Span, format string, args ...any) error {
	return &Diagnostic{Kind: KindImport, Message: fmt.Sprintf(format, args...), Spans: []lexer.Span{span}}
}

// NameError reports an undefined reference or a redeclaration, per spec.md
// §4.4.
func NameError(span lexer.Span, format string, args ...any) error {
	return &Diagnostic{Kind: KindName, Message: fmt.Sprintf(format, args...), Spans: []lexer.Span{span}}
}

// TypeError reports a type mismatch, an arity mismatch, or use of a
// rejected type (float), per spec.md §4.4 and §9.
func TypeError(span lexer.Span, format string, args ...any) error {
	return &Diagnostic{Kind: KindType, Message: fmt.Sprintf(format, args...), Spans: []lexer.Span{span}}
}

// AliasCycle reports a cycle in an alias's expansion chain, per spec.md
// §4.4.
func AliasCycle(spans []lexer.Span, format string, args ...any) error {
	return &Diagnostic{Kind: KindAliasCycle, Message: fmt.Sprintf(format, args...), Spans: spans}
}

// MonomorphizationDiverges reports that the monomorphization worklist
// exceeded the configured depth bound, per spec.md §4.5.
func MonomorphizationDiverges(span lexer.Span, format string, args ...any) error {
	return &Diagnostic{Kind: KindMono, Message: fmt.Sprintf(format, args...), Spans: []lexer.Span{span}}
}

// EmitError reports a failure while assembling the WASM module (e.g. a
// section that overflowed an index space), per spec.md §4.7.
func EmitError(format string, args ...any) error {
	return &Diagnostic{Kind: KindEmit, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a *Diagnostic of the given kind, so callers
// (e.g. the CLI exit-code logic) can classify an accumulated []error without
// string matching.
func Is(err error, kind Kind) bool {
	d, ok := err.(*Diagnostic)
	return ok && d.Kind == kind
}
