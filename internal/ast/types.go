package ast

import "github.com/hassan/munic/internal/lexer"

// NamedType is an identifier optionally followed by a type-argument list:
// `int`, `boolean`, `MyStruct`, `vec<int>`, `Pair<int, char>`.
type NamedType struct {
	BaseNode
	Name string
	Args []SyntacticType // nil for a non-generic reference
}

func (t *NamedType) typeNode() {}

// ArrayType is `array<T>`.
type ArrayType struct {
	BaseNode
	Elem SyntacticType
}

func (t *ArrayType) typeNode() {}

// VoidType is `void`, valid only as a function return type.
type VoidType struct {
	BaseNode
}

func (t *VoidType) typeNode() {}

// TypeParam is one entry of a struct_decl/alias_decl's type_params list
// (`<T, U>`). It carries only a name: Muni has no bounded generics.
type TypeParam struct {
	Name string
	Pos  lexer.Position
}
