package ast

import "github.com/hassan/munic/internal/lexer"

// Parameter is one entry of a function/method/constructor's parameter
// list: a syntactic type and a name.
type Parameter struct {
	Name string
	Type SyntacticType
	Pos  lexer.Position
}

// FuncDecl is a top-level function, a structure method, or a structure
// constructor/static method — spec.md's grammar gives all four the same
// shape (return type, name, params, block), distinguished by the fields
// below rather than by separate node types, matching the teacher's
// preference for one declaration node per grammar production rather than
// per semantic role.
type FuncDecl struct {
	BaseNode
	Name       string
	ReturnType SyntacticType // nil for a constructor
	Params     []*Parameter
	Body       *Block

	// IsConstructor is true when Name equals the enclosing StructDecl's
	// name and ReturnType is nil (spec.md §4.2 ctor production).
	IsConstructor bool

	// IsStatic is true for a structure's static method: no implicit
	// `this` parameter is bound during resolution.
	IsStatic bool

	// Receiver is set by the parser when this FuncDecl is parsed as a
	// struct_member rather than a top_decl; nil for a free function.
	Receiver *StructDecl
}

func (d *FuncDecl) declNode() {}
func (d *FuncDecl) stmtNode() {}
func (d *FuncDecl) Accept(v Visitor) error { return v.VisitFuncDecl(d) }

// StructDecl is a `structure Name<T1,...> { ... }` declaration: an ordered
// field list, an ordered method list, an optional constructor, and a set
// of static methods (spec.md §3).
type StructDecl struct {
	BaseNode
	Name        string
	TypeParams  []*TypeParam
	Fields      []*Field
	Methods     []*FuncDecl
	Constructor *FuncDecl // nil if the structure has no constructor
	Statics     []*FuncDecl
}

func (d *StructDecl) declNode()            {}
func (d *StructDecl) stmtNode()            {}
func (d *StructDecl) Accept(v Visitor) error { return v.VisitStructDecl(d) }

// Field is one `type ident ;` entry of a structure body.
type Field struct {
	Name string
	Type SyntacticType
	Pos  lexer.Position
}

// AliasDecl is `alias Name<T1,...> = Type;`. Aliases are transparent after
// resolution (spec.md §3/§4.4): internal/resolve substitutes the body and
// the alias itself never reaches internal/ir.
type AliasDecl struct {
	BaseNode
	Name       string
	TypeParams []*TypeParam
	Body       SyntacticType
}

func (d *AliasDecl) declNode()            {}
func (d *AliasDecl) stmtNode()            {}
func (d *AliasDecl) Accept(v Visitor) error { return v.VisitAliasDecl(d) }

// HostImportDecl is `import module.name(arg_types) -> ret_type;`,
// recording a host-function symbol (spec.md §4.3).
type HostImportDecl struct {
	BaseNode
	Module  string
	Name    string
	Params  []SyntacticType
	Return  SyntacticType
}

func (d *HostImportDecl) declNode()            {}
func (d *HostImportDecl) stmtNode()            {}
func (d *HostImportDecl) Accept(v Visitor) error { return v.VisitHostImportDecl(d) }

// FileImportDecl is `import <path.mun>;`, resolved relative to the
// importing file by internal/importer (spec.md §4.3).
type FileImportDecl struct {
	BaseNode
	Path string
}

func (d *FileImportDecl) declNode()            {}
func (d *FileImportDecl) stmtNode()            {}
func (d *FileImportDecl) Accept(v Visitor) error { return v.VisitFileImportDecl(d) }
