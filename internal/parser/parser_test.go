package parser

import (
	"testing"

	"github.com/hassan/munic/internal/ast"
	"github.com/hassan/munic/internal/lexer"
)

func parseSource(t *testing.T, src string) (*ast.File, []error) {
	t.Helper()
	p := New(lexer.New(src, "test.mun"))
	return p.ParseFile("test.mun")
}

func requireNoErrors(t *testing.T, errs []error) {
	t.Helper()
	for _, e := range errs {
		t.Errorf("unexpected parse error: %v", e)
	}
}

func TestParser_FunctionDecl(t *testing.T) {
	file, errs := parseSource(t, `int add(int a, int b) { return a + b; }`)
	requireNoErrors(t, errs)
	if len(file.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(file.Decls))
	}
	fn, ok := file.Decls[0].(*ast.FuncDecl)
	if !ok {
		t.Fatalf("expected *ast.FuncDecl, got %T", file.Decls[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Errorf("unexpected func shape: %+v", fn)
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected 1 statement in body, got %d", len(fn.Body.Stmts))
	}
	ret, ok := fn.Body.Stmts[0].(*ast.Return)
	if !ok {
		t.Fatalf("expected *ast.Return, got %T", fn.Body.Stmts[0])
	}
	bin, ok := ret.Value.(*ast.Binary)
	if !ok || bin.Op != ast.OpAdd {
		t.Errorf("expected a+b binary add, got %#v", ret.Value)
	}
}

func TestParser_StructDeclWithCtorAndMethod(t *testing.T) {
	src := `
structure Point {
	int x;
	int y;
	Point(int x, int y) { this.x = x; this.y = y; }
	int sum() { return this.x + this.y; }
	static Point origin() { return Point(0, 0); }
}`
	file, errs := parseSource(t, src)
	requireNoErrors(t, errs)
	if len(file.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(file.Decls))
	}
	sd, ok := file.Decls[0].(*ast.StructDecl)
	if !ok {
		t.Fatalf("expected *ast.StructDecl, got %T", file.Decls[0])
	}
	if len(sd.Fields) != 2 {
		t.Errorf("expected 2 fields, got %d", len(sd.Fields))
	}
	if sd.Constructor == nil || !sd.Constructor.IsConstructor {
		t.Fatalf("expected a constructor")
	}
	if len(sd.Methods) != 1 {
		t.Errorf("expected 1 method, got %d", len(sd.Methods))
	}
	if len(sd.Statics) != 1 || !sd.Statics[0].IsStatic {
		t.Errorf("expected 1 static method")
	}
}

func TestParser_GenericStructAndAlias(t *testing.T) {
	src := `
structure Box<T> {
	T value;
}
alias IntBox = Box<int>;`
	file, errs := parseSource(t, src)
	requireNoErrors(t, errs)
	if len(file.Decls) != 2 {
		t.Fatalf("expected 2 decls, got %d", len(file.Decls))
	}
	sd := file.Decls[0].(*ast.StructDecl)
	if len(sd.TypeParams) != 1 || sd.TypeParams[0].Name != "T" {
		t.Errorf("unexpected type params: %+v", sd.TypeParams)
	}
	ad := file.Decls[1].(*ast.AliasDecl)
	named, ok := ad.Body.(*ast.NamedType)
	if !ok || named.Name != "Box" || len(named.Args) != 1 {
		t.Errorf("unexpected alias body: %#v", ad.Body)
	}
}

func TestParser_GenericVsComparisonDisambiguation(t *testing.T) {
	// `a < b` is a comparison; the result should be a Binary with OpLt, not
	// a mis-parsed generic-call attempt.
	file, errs := parseSource(t, `boolean cmp(int a, int b) { return a < b; }`)
	requireNoErrors(t, errs)
	fn := file.Decls[0].(*ast.FuncDecl)
	ret := fn.Body.Stmts[0].(*ast.Return)
	bin, ok := ret.Value.(*ast.Binary)
	if !ok || bin.Op != ast.OpLt {
		t.Fatalf("expected a < b comparison, got %#v", ret.Value)
	}
}

func TestParser_ConstructorCallWithTypeArgs(t *testing.T) {
	file, errs := parseSource(t, `void main() { Box<int> b; b = Box<int>(5); }`)
	requireNoErrors(t, errs)
	fn := file.Decls[0].(*ast.FuncDecl)
	if len(fn.Body.Stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(fn.Body.Stmts))
	}
	assign := fn.Body.Stmts[1].(*ast.Assign)
	call, ok := assign.Value.(*ast.ConstructorCall)
	if !ok {
		t.Fatalf("expected *ast.ConstructorCall, got %#v", assign.Value)
	}
	if call.Struct != "Box" || len(call.TypeArgs) != 1 || len(call.Args) != 1 {
		t.Errorf("unexpected constructor call shape: %+v", call)
	}
}

func TestParser_StaticMethodCall(t *testing.T) {
	file, errs := parseSource(t, `void main() { Box<int> b; b = Box<int>.origin(); }`)
	requireNoErrors(t, errs)
	fn := file.Decls[0].(*ast.FuncDecl)
	assign := fn.Body.Stmts[1].(*ast.Assign)
	call, ok := assign.Value.(*ast.StaticMethodCall)
	if !ok || call.Struct != "Box" || call.Method != "origin" {
		t.Fatalf("expected Box<int>.origin() static call, got %#v", assign.Value)
	}
}

func TestParser_VarDeclVsAssignDisambiguation(t *testing.T) {
	file, errs := parseSource(t, `void main() { int x = 1; x = 2; }`)
	requireNoErrors(t, errs)
	fn := file.Decls[0].(*ast.FuncDecl)
	if _, ok := fn.Body.Stmts[0].(*ast.VarDeclStmt); !ok {
		t.Errorf("expected VarDeclStmt, got %T", fn.Body.Stmts[0])
	}
	if _, ok := fn.Body.Stmts[1].(*ast.Assign); !ok {
		t.Errorf("expected Assign, got %T", fn.Body.Stmts[1])
	}
}

func TestParser_CompoundAssignmentDesugars(t *testing.T) {
	file, errs := parseSource(t, `void main() { int s = 0; s += 1; }`)
	requireNoErrors(t, errs)
	fn := file.Decls[0].(*ast.FuncDecl)
	assign, ok := fn.Body.Stmts[1].(*ast.Assign)
	if !ok {
		t.Fatalf("expected Assign, got %T", fn.Body.Stmts[1])
	}
	bin, ok := assign.Value.(*ast.Binary)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("expected s += 1 to desugar to s + 1, got %#v", assign.Value)
	}
}

func TestParser_ControlFlowForms(t *testing.T) {
	src := `
void main() {
	int s = 0;
	for (int i = 0; i < 10; i += 1) { s += i; }
	while (s > 0) { s -= 1; }
	until (s == 0) { s += 1; }
	do { s += 1; } while (s < 5);
	if (s == 5) { s = 0; } else { s = 1; }
}`
	file, errs := parseSource(t, src)
	requireNoErrors(t, errs)
	fn := file.Decls[0].(*ast.FuncDecl)
	wantKinds := []ast.Stmt{
		&ast.VarDeclStmt{}, &ast.For{}, &ast.While{}, &ast.Until{}, &ast.DoWhile{}, &ast.If{},
	}
	if len(fn.Body.Stmts) != len(wantKinds) {
		t.Fatalf("expected %d statements, got %d", len(wantKinds), len(fn.Body.Stmts))
	}
	for i, want := range wantKinds {
		got := fn.Body.Stmts[i]
		if typeNameOf(got) != typeNameOf(want) {
			t.Errorf("stmt %d: expected %T, got %T", i, want, got)
		}
	}
}

func typeNameOf(s ast.Stmt) string {
	switch s.(type) {
	case *ast.VarDeclStmt:
		return "VarDeclStmt"
	case *ast.For:
		return "For"
	case *ast.While:
		return "While"
	case *ast.Until:
		return "Until"
	case *ast.DoWhile:
		return "DoWhile"
	case *ast.If:
		return "If"
	default:
		return "other"
	}
}

func TestParser_CastExpression(t *testing.T) {
	file, errs := parseSource(t, `void main() { int x = (int) 5; }`)
	requireNoErrors(t, errs)
	fn := file.Decls[0].(*ast.FuncDecl)
	decl := fn.Body.Stmts[0].(*ast.VarDeclStmt)
	cast, ok := decl.Init.(*ast.Cast)
	if !ok {
		t.Fatalf("expected *ast.Cast, got %#v", decl.Init)
	}
	named, ok := cast.Target.(*ast.NamedType)
	if !ok || named.Name != "int" {
		t.Errorf("unexpected cast target: %#v", cast.Target)
	}
}

func TestParser_ParenGroupingNotMistakenForCast(t *testing.T) {
	file, errs := parseSource(t, `int id(int x) { return (x + 1); }`)
	requireNoErrors(t, errs)
	fn := file.Decls[0].(*ast.FuncDecl)
	ret := fn.Body.Stmts[0].(*ast.Return)
	if _, ok := ret.Value.(*ast.Binary); !ok {
		t.Fatalf("expected the parens to just group a Binary, got %#v", ret.Value)
	}
}

func TestParser_ArrayTypeAndLiteral(t *testing.T) {
	file, errs := parseSource(t, `void main() { array<int> xs = [1, 2, 3]; }`)
	requireNoErrors(t, errs)
	fn := file.Decls[0].(*ast.FuncDecl)
	decl := fn.Body.Stmts[0].(*ast.VarDeclStmt)
	arrType, ok := decl.Type.(*ast.ArrayType)
	if !ok {
		t.Fatalf("expected *ast.ArrayType, got %#v", decl.Type)
	}
	if named, ok := arrType.Elem.(*ast.NamedType); !ok || named.Name != "int" {
		t.Errorf("unexpected array element type: %#v", arrType.Elem)
	}
	lit, ok := decl.Init.(*ast.ArrayLiteral)
	if !ok || len(lit.Elements) != 3 {
		t.Fatalf("expected 3-element array literal, got %#v", decl.Init)
	}
}

func TestParser_FileImport(t *testing.T) {
	file, errs := parseSource(t, `import <utils/vec.mun>;`)
	requireNoErrors(t, errs)
	if len(file.Imports) != 1 {
		t.Fatalf("expected 1 file import, got %d", len(file.Imports))
	}
	if file.Imports[0].Path != "utils/vec.mun" {
		t.Errorf("expected path %q, got %q", "utils/vec.mun", file.Imports[0].Path)
	}
}

func TestParser_HostImport(t *testing.T) {
	file, errs := parseSource(t, `import env.write_int(int) -> void;`)
	requireNoErrors(t, errs)
	if len(file.Hosts) != 1 {
		t.Fatalf("expected 1 host import, got %d", len(file.Hosts))
	}
	host := file.Hosts[0]
	if host.Module != "env" || host.Name != "write_int" || len(host.Params) != 1 {
		t.Errorf("unexpected host import shape: %+v", host)
	}
	if _, ok := host.Return.(*ast.VoidType); !ok {
		t.Errorf("expected void return type, got %#v", host.Return)
	}
}

func TestParser_StringAndCharAndBoolAndNullLiterals(t *testing.T) {
	file, errs := parseSource(t, `void main() { string s = "hi\n"; char c = 'a'; boolean b = true; Point p = null; }`)
	requireNoErrors(t, errs)
	fn := file.Decls[0].(*ast.FuncDecl)

	str := fn.Body.Stmts[0].(*ast.VarDeclStmt).Init.(*ast.StringLiteral)
	if str.Value != "hi\n" {
		t.Errorf("expected unescaped %q, got %q", "hi\n", str.Value)
	}
	ch := fn.Body.Stmts[1].(*ast.VarDeclStmt).Init.(*ast.CharLiteral)
	if ch.Value != 'a' {
		t.Errorf("expected char 'a', got %q", ch.Value)
	}
	boolLit := fn.Body.Stmts[2].(*ast.VarDeclStmt).Init.(*ast.BooleanLiteral)
	if !boolLit.Value {
		t.Errorf("expected true")
	}
	if _, ok := fn.Body.Stmts[3].(*ast.VarDeclStmt).Init.(*ast.NullLiteral); !ok {
		t.Errorf("expected null literal")
	}
}

func TestParser_UnclosedBlockRecordsErrorAndRecovers(t *testing.T) {
	_, errs := parseSource(t, `int broken( { return 1; } int ok() { return 2; }`)
	if len(errs) == 0 {
		t.Fatalf("expected at least one parse error for malformed parameter list")
	}
}

func TestParser_ThisInsideMethod(t *testing.T) {
	src := `
structure Counter {
	int n;
	Counter(int n) { this.n = n; }
	int get() { return this.n; }
}`
	file, errs := parseSource(t, src)
	requireNoErrors(t, errs)
	sd := file.Decls[0].(*ast.StructDecl)
	ret := sd.Methods[0].Body.Stmts[0].(*ast.Return)
	fa, ok := ret.Value.(*ast.FieldAccess)
	if !ok {
		t.Fatalf("expected FieldAccess, got %#v", ret.Value)
	}
	id, ok := fa.Receiver.(*ast.Identifier)
	if !ok || id.Name != "this" {
		t.Errorf("expected 'this' receiver, got %#v", fa.Receiver)
	}
}
