package typelayout

import "fmt"

// CyclicDependencyError reports a set of type IDs whose sizes depend on
// each other with no Name indirection to break the cycle.
type CyclicDependencyError struct {
	IDs []TypeID
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic type dependency among %v", e.IDs)
}

// UndefinedTypeNameError reports a Name description that never resolved
// into the Named table.
type UndefinedTypeNameError struct {
	NameSpace string
	Ident     string
}

func (e *UndefinedTypeNameError) Error() string {
	return fmt.Sprintf("undefined %s name %q", e.NameSpace, e.Ident)
}

// UndefinedTypeIDError reports a FieldDesc/Pointee/Element referencing a
// TypeID that has no corresponding Desc.
type UndefinedTypeIDError struct {
	ID TypeID
}

func (e *UndefinedTypeIDError) Error() string {
	return fmt.Sprintf("undefined type id %q", e.ID)
}

// UnknownSizeError reports a Size() call against a type whose size was
// never resolved (void, or an unbounded array).
type UnknownSizeError struct {
	Type string
}

func (e *UnknownSizeError) Error() string {
	return fmt.Sprintf("size of %s is not known", e.Type)
}

// UndefinedGlobalError reports a Global() lookup for a name not present
// in the Descriptions.
type UndefinedGlobalError struct {
	Name string
}

func (e *UndefinedGlobalError) Error() string {
	return fmt.Sprintf("undefined global %q", e.Name)
}

// UndefinedConstantError reports a Constant() lookup for a name not
// present in the Descriptions.
type UndefinedConstantError struct {
	Name string
}

func (e *UndefinedConstantError) Error() string {
	return fmt.Sprintf("undefined constant %q", e.Name)
}
