package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hassan/munic/internal/ast"
	"github.com/hassan/munic/internal/diag"
)

func declNames(decls []ast.Decl) map[string]bool {
	out := make(map[string]bool)
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			out[d.Name] = true
		case *ast.StructDecl:
			out[d.Name] = true
		case *ast.AliasDecl:
			out[d.Name] = true
		}
	}
	return out
}

func TestImporter_PrependsPrelude(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.mun")
	if err := os.WriteFile(entry, []byte("void main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	im := New()
	mod, errs := im.Resolve(entry)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	names := declNames(mod.Decls)
	for _, want := range []string{"vec", "string", "print", "main"} {
		if !names[want] {
			t.Errorf("expected merged declarations to include %q, got %v", want, names)
		}
	}

	foundWriteChr := false
	for _, h := range mod.Hosts {
		if h.Module == "env" && h.Name == "write_chr" {
			foundWriteChr = true
		}
	}
	if !foundWriteChr {
		t.Error("expected the prelude's env.write_chr host import to be recorded")
	}
}

func TestImporter_InlinesFileImportRelativeToImportingFile(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "lib")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	libPath := filepath.Join(sub, "helpers.mun")
	if err := os.WriteFile(libPath, []byte("int triple(int x) { return x * 3; }\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	entry := filepath.Join(dir, "main.mun")
	entrySrc := "import <lib/helpers.mun>;\nvoid main() {}\n"
	if err := os.WriteFile(entry, []byte(entrySrc), 0o644); err != nil {
		t.Fatal(err)
	}

	im := New()
	mod, errs := im.Resolve(entry)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	names := declNames(mod.Decls)
	if !names["triple"] {
		t.Errorf("expected imported function triple to be merged, got %v", names)
	}
}

func TestImporter_RevisitingFileIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	aPath := filepath.Join(dir, "a.mun")
	bPath := filepath.Join(dir, "b.mun")
	cPath := filepath.Join(dir, "c.mun")

	if err := os.WriteFile(aPath, []byte("import <c.mun>;\nint fromA() { return 1; }\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bPath, []byte("import <c.mun>;\nint fromB() { return 2; }\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cPath, []byte("int shared() { return 0; }\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	entry := filepath.Join(dir, "main.mun")
	entrySrc := "import <a.mun>;\nimport <b.mun>;\nvoid main() {}\n"
	if err := os.WriteFile(entry, []byte(entrySrc), 0o644); err != nil {
		t.Fatal(err)
	}

	im := New()
	mod, errs := im.Resolve(entry)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	count := 0
	for _, d := range mod.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok && fd.Name == "shared" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected c.mun's shared() to be merged exactly once despite two importers, got %d", count)
	}
}

func TestImporter_ConflictingHostSignatureFails(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.mun")
	src := "import env.write_chr(char) -> void;\nvoid main() {}\n"
	if err := os.WriteFile(entry, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	im := New()
	_, errs := im.Resolve(entry)
	if len(errs) == 0 {
		t.Fatal("expected an error for a host import conflicting with the prelude's env.write_chr(int)")
	}
	found := false
	for _, err := range errs {
		if diag.Is(err, diag.KindImport) {
			found = true
		}
	}
	if !found {
		t.Errorf("expected at least one ImportError, got %v", errs)
	}
}

func TestImporter_MissingFileImportFails(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.mun")
	src := "import <does-not-exist.mun>;\nvoid main() {}\n"
	if err := os.WriteFile(entry, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	im := New()
	_, errs := im.Resolve(entry)
	if len(errs) == 0 {
		t.Fatal("expected an error for a missing imported file")
	}
}
