// Package importer implements spec.md §4.3: inlining file imports,
// recording host-function imports, and always prepending the implicit
// standard library to the top-level module.
//
// DESIGN CHOICE: grounded on the teacher's own pipeline shape (a driver
// that reads source, builds a lexer, feeds it to the parser) rather than
// any single teacher package — the teacher's compiler never spans more
// than one file, so file-import inlining has no teacher analogue. The
// canonical-path visited-set that makes re-import idempotent instead of
// an error is the same pattern evanw-esbuild's bundler uses to short-
// circuit a module graph it has already resolved.
package importer

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/hassan/munic/internal/ast"
	"github.com/hassan/munic/internal/diag"
	"github.com/hassan/munic/internal/lexer"
	"github.com/hassan/munic/internal/parser"
)

//go:embed stdlib/prelude.mun
var preludeSource string

// preludeFilename is the synthetic filename the prelude's diagnostics and
// positions report, distinct from any real file path.
const preludeFilename = "<prelude>"

// Module is the flattened result of import resolution: every declaration
// reachable from the entry file (including the implicit prelude and every
// transitively file-imported declaration), in merge order, plus the
// deduplicated set of host-function imports.
type Module struct {
	Decls []ast.Decl
	Hosts []*ast.HostImportDecl
}

// hostKey identifies a host import by the pair spec.md §4.3 keys it on.
type hostKey struct {
	Module string
	Name   string
}

// Importer resolves one entry file into a flattened Module, inlining file
// imports and merging host imports.
//
// DESIGN CHOICE: one Importer per compilation, not a package-level
// function, because the visited-set and host-import table must be shared
// across the whole recursive walk — the same reason the teacher's own
// semantic.Analyzer is a struct with accumulated state rather than a free
// function.
type Importer struct {
	visited  map[string]bool // canonical absolute path -> true
	hostSeen map[hostKey]*ast.HostImportDecl
	hostKeys []hostKey // first-seen order, since hostSeen is a map
	decls    []ast.Decl
	errs     []error
}

// New creates an Importer ready to resolve one compilation's entry file.
func New() *Importer {
	return &Importer{
		visited:  make(map[string]bool),
		hostSeen: make(map[hostKey]*ast.HostImportDecl),
	}
}

// Resolve parses entryPath and every file it transitively imports,
// prepends the implicit standard library, and returns the flattened
// module. Errors accumulate across every file visited rather than
// aborting at the first one (spec.md §7's propagation policy).
func (im *Importer) Resolve(entryPath string) (*Module, []error) {
	im.inlinePrelude()

	abs, err := filepath.Abs(entryPath)
	if err != nil {
		im.errs = append(im.errs, diag.ImportError(lexer.Span{}, "cannot resolve path %q: %v", entryPath, err))
		return nil, im.errs
	}
	im.inlineFile(abs, lexer.Span{})

	if len(im.errs) > 0 {
		return nil, im.errs
	}
	return &Module{Decls: im.decls, Hosts: im.hostDecls()}, nil
}

// inlinePrelude parses the embedded standard library exactly like any
// other source file, but never through the file-import visited-set (it
// has no real path, and it is prepended to every compilation unit
// exactly once).
func (im *Importer) inlinePrelude() {
	lex := lexer.New(preludeSource, preludeFilename)
	p := parser.New(lex)
	file, errs := p.ParseFile(preludeFilename)
	if len(errs) > 0 {
		im.errs = append(im.errs, errs...)
		return
	}
	im.mergeFile(file)
}

// inlineFile parses path, recursively inlines its own file imports, then
// merges its declarations. importSpan is the span of the import statement
// that requested path (used for error reporting); the zero Span for the
// entry file, which has no importer of its own.
func (im *Importer) inlineFile(path string, importSpan lexer.Span) {
	if im.visited[path] {
		// spec.md §4.3: "revisiting returns empty (idempotent inclusion)".
		return
	}
	im.visited[path] = true

	source, err := os.ReadFile(path)
	if err != nil {
		im.errs = append(im.errs, diag.ImportError(importSpan, "cannot read imported file %q: %v", path, err))
		return
	}

	lex := lexer.New(string(source), path)
	p := parser.New(lex)
	file, errs := p.ParseFile(path)
	if len(errs) > 0 {
		im.errs = append(im.errs, errs...)
		return
	}

	dir := filepath.Dir(path)
	for _, imp := range file.Imports {
		target := imp.Path
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		target, err := filepath.Abs(target)
		if err != nil {
			im.errs = append(im.errs, diag.ImportError(spanOf(imp), "cannot resolve import path %q: %v", imp.Path, err))
			continue
		}
		im.inlineFile(target, spanOf(imp))
	}

	im.mergeFile(file)
}

// mergeFile merges one parsed file's host imports and non-import
// declarations into the module under construction, in file order.
func (im *Importer) mergeFile(file *ast.File) {
	for _, host := range file.Hosts {
		im.mergeHost(host)
	}
	im.decls = append(im.decls, file.Decls...)
}

// mergeHost records a host-function import, merging identical repeats and
// failing with ImportError on a conflicting re-declaration of the same
// (module, name) pair (spec.md §4.3).
func (im *Importer) mergeHost(host *ast.HostImportDecl) {
	key := hostKey{Module: host.Module, Name: host.Name}
	existing, ok := im.hostSeen[key]
	if !ok {
		im.hostSeen[key] = host
		im.hostKeys = append(im.hostKeys, key)
		return
	}
	if !hostSignaturesEqual(existing, host) {
		im.errs = append(im.errs, diag.ImportError(
			spanOf(host),
			"host import %s.%s redeclared with a conflicting signature (first declared at %s)",
			host.Module, host.Name, existing.Pos().String(),
		))
	}
}

// hostDecls returns the deduplicated host imports in first-seen order.
func (im *Importer) hostDecls() []*ast.HostImportDecl {
	out := make([]*ast.HostImportDecl, 0, len(im.hostKeys))
	for _, key := range im.hostKeys {
		out = append(out, im.hostSeen[key])
	}
	return out
}

func hostSignaturesEqual(a, b *ast.HostImportDecl) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !syntacticTypeEqual(a.Params[i], b.Params[i]) {
			return false
		}
	}
	return syntacticTypeEqual(a.Return, b.Return)
}

func syntacticTypeEqual(a, b ast.SyntacticType) bool {
	switch at := a.(type) {
	case *ast.NamedType:
		bt, ok := b.(*ast.NamedType)
		if !ok || at.Name != bt.Name || len(at.Args) != len(bt.Args) {
			return false
		}
		for i := range at.Args {
			if !syntacticTypeEqual(at.Args[i], bt.Args[i]) {
				return false
			}
		}
		return true
	case *ast.ArrayType:
		bt, ok := b.(*ast.ArrayType)
		return ok && syntacticTypeEqual(at.Elem, bt.Elem)
	case *ast.VoidType:
		_, ok := b.(*ast.VoidType)
		return ok
	default:
		return false
	}
}

// spanOf builds the Pos-to-End span diagnostics use for a node that
// carries only a Pos/End pair, not a dedicated Span field.
func spanOf(n ast.Node) lexer.Span {
	return lexer.Span{Start: n.Pos(), End: n.End()}
}
