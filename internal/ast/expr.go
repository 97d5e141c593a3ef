package ast

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// Expr is the data of an expression node. Children are ExprIDs.
type Expr interface {
	isExpr()
}

// IdentExpr represents an identifier reference.
type IdentExpr struct {
	Name string
	Ref  Ref // Resolved symbol reference
}

// ThisExpr represents `this`.
type ThisExpr struct{}

// LiteralKind distinguishes literal forms.
type LiteralKind uint8

const (
	LitNumber LiteralKind = iota
	LitString
	LitBoolean
	LitNull
	LitTemplate // template literal without substitutions
)

// LiteralExpr represents a literal value.
type LiteralExpr struct {
	Kind   LiteralKind
	Value  string  // Cooked string contents, or raw number text
	Number float64 // For LitNumber
	Bool   bool    // For LitBoolean
}

// ArrayExpr represents [a, b, c]. Holes are NoExpr.
type ArrayExpr struct {
	Items []ExprID
}

// PropertyKind distinguishes object literal members.
type PropertyKind uint8

const (
	PropertyInit      PropertyKind = iota // key: value
	PropertyShorthand                     // key (value is an identifier)
	PropertyMethod                        // key() {}
)

// Property is an object literal member or a class method.
type Property struct {
	Kind     PropertyKind
	Key      string // For non-computed keys
	KeyExpr  ExprID // For computed keys
	Computed bool
	Value    ExprID
}

// ObjectExpr represents {a: 1, b}.
type ObjectExpr struct {
	Properties []Property
}

// Arg is a function parameter.
type Arg struct {
	Name string
	Ref  Ref
	Loc  Loc
}

// Fn is the shared part of function declarations and expressions.
type Fn struct {
	Name    string // Empty for anonymous functions
	NameRef Ref
	Args    []Arg
	Body    []Stmt
}

// FunctionExpr represents a function expression.
type FunctionExpr struct {
	Fn Fn
}

// ArrowExpr represents (a) => body. Expression bodies are stored as a single
// ReturnStmt with ExprBody set.
type ArrowExpr struct {
	Args     []Arg
	Body     []Stmt
	ExprBody bool
}

// Class is the shared part of class declarations and expressions.
type Class struct {
	Name    string
	NameRef Ref
	Extends ExprID
	Methods []Property // Values are FunctionExprs
}

// ClassExpr represents a class expression.
type ClassExpr struct {
	Class Class
}

// TaggedTemplateExpr represents tag`text`.
type TaggedTemplateExpr struct {
	Tag   ExprID
	Value string
}

// BindExpr represents object::callee, or ::object.method when Object is
// NoExpr.
type BindExpr struct {
	Object ExprID
	Callee ExprID
}

// MemberExpr represents object.name or object[index].
type MemberExpr struct {
	Object   ExprID
	Name     string // For non-computed access
	NameLoc  Loc
	Index    ExprID // For computed access
	Computed bool
}

// HelperKind marks calls to the runtime support library produced by the
// transform.
type HelperKind uint8

const (
	HelperNone HelperKind = iota
	HelperEquals
	HelperStrictEquals
	HelperFreeze
	HelperPersistentSet
)

// CallExpr represents target(args).
type CallExpr struct {
	Target ExprID
	Args   []ExprID
	Helper HelperKind
}

// NewExpr represents new target(args).
type NewExpr struct {
	Target ExprID
	Args   []ExprID
}

// UnaryExpr represents a prefix operator, including the freeze operator.
type UnaryExpr struct {
	Op    OpCode
	Value ExprID
}

// UpdateExpr represents ++x, x++, --x and x--.
type UpdateExpr struct {
	Op    OpCode
	Value ExprID
}

// BinaryExpr represents arithmetic, bitwise, relational and equality
// operators.
type BinaryExpr struct {
	Op    OpCode
	Left  ExprID
	Right ExprID
}

// LogicalExpr represents &&, || and ??.
type LogicalExpr struct {
	Op    OpCode
	Left  ExprID
	Right ExprID
}

// ConditionalExpr represents test ? yes : no.
type ConditionalExpr struct {
	Test ExprID
	Yes  ExprID
	No   ExprID
}

// AssignExpr represents target = value and compound assignments.
type AssignExpr struct {
	Op     OpCode
	Target ExprID
	Value  ExprID
}

// SequenceExpr represents a, b, c.
type SequenceExpr struct {
	Exprs []ExprID
}

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	Value ExprID
}

func (*IdentExpr) isExpr()          {}
func (*ThisExpr) isExpr()           {}
func (*LiteralExpr) isExpr()        {}
func (*ArrayExpr) isExpr()          {}
func (*ObjectExpr) isExpr()         {}
func (*FunctionExpr) isExpr()       {}
func (*ArrowExpr) isExpr()          {}
func (*ClassExpr) isExpr()          {}
func (*TaggedTemplateExpr) isExpr() {}
func (*BindExpr) isExpr()           {}
func (*MemberExpr) isExpr()         {}
func (*CallExpr) isExpr()           {}
func (*NewExpr) isExpr()            {}
func (*UnaryExpr) isExpr()          {}
func (*UpdateExpr) isExpr()         {}
func (*BinaryExpr) isExpr()         {}
func (*LogicalExpr) isExpr()        {}
func (*ConditionalExpr) isExpr()    {}
func (*AssignExpr) isExpr()         {}
func (*SequenceExpr) isExpr()       {}
func (*ParenExpr) isExpr()          {}

// ----------------------------------------------------------------------------
// Operators
// ----------------------------------------------------------------------------

// OpCode identifies an operator.
type OpCode uint8

const (
	// Prefix
	UnPos OpCode = iota
	UnNeg
	UnCpl
	UnNot
	UnVoid
	UnTypeof
	UnDelete
	UnFreeze

	// Update
	UnPreDec
	UnPreInc
	UnPostDec
	UnPostInc

	// Binary
	BinAdd
	BinSub
	BinMul
	BinDiv
	BinRem
	BinPow
	BinLt
	BinLe
	BinGt
	BinGe
	BinIn
	BinInstanceof
	BinShl
	BinShr
	BinUShr
	BinLooseEq
	BinLooseNe
	BinStrictEq
	BinStrictNe
	BinBitwiseOr
	BinBitwiseAnd
	BinBitwiseXor

	// Logical
	BinNullishCoalescing
	BinLogicalOr
	BinLogicalAnd

	// Assignment
	BinAssign
	BinAddAssign
	BinSubAssign
	BinMulAssign
	BinDivAssign
	BinRemAssign
	BinPowAssign
	BinShlAssign
	BinShrAssign
	BinUShrAssign
	BinBitwiseOrAssign
	BinBitwiseAndAssign
	BinBitwiseXorAssign
	BinNullishCoalescingAssign
	BinLogicalOrAssign
	BinLogicalAndAssign
)

// L is an operator precedence level, lowest first.
type L uint8

const (
	LLowest L = iota
	LComma
	LAssign
	LConditional
	LNullishCoalescing
	LLogicalOr
	LLogicalAnd
	LBitwiseOr
	LBitwiseXor
	LBitwiseAnd
	LEquals
	LCompare
	LShift
	LAdd
	LMultiply
	LExponentiation
	LPrefix
	LPostfix
	LNew
	LCall
	LMember
)

// OpTableEntry describes an operator.
type OpTableEntry struct {
	Text      string
	Level     L
	IsKeyword bool

	// Compound is the operator a compound assignment applies, e.g. BinAdd for
	// BinAddAssign.
	Compound OpCode
}

// OpTable is indexed by OpCode.
var OpTable = [...]OpTableEntry{
	UnPos:    {Text: "+", Level: LPrefix},
	UnNeg:    {Text: "-", Level: LPrefix},
	UnCpl:    {Text: "~", Level: LPrefix},
	UnNot:    {Text: "!", Level: LPrefix},
	UnVoid:   {Text: "void", Level: LPrefix, IsKeyword: true},
	UnTypeof: {Text: "typeof", Level: LPrefix, IsKeyword: true},
	UnDelete: {Text: "delete", Level: LPrefix, IsKeyword: true},
	UnFreeze: {Text: "#", Level: LPrefix},

	UnPreDec:  {Text: "--", Level: LPrefix},
	UnPreInc:  {Text: "++", Level: LPrefix},
	UnPostDec: {Text: "--", Level: LPostfix},
	UnPostInc: {Text: "++", Level: LPostfix},

	BinAdd:        {Text: "+", Level: LAdd},
	BinSub:        {Text: "-", Level: LAdd},
	BinMul:        {Text: "*", Level: LMultiply},
	BinDiv:        {Text: "/", Level: LMultiply},
	BinRem:        {Text: "%", Level: LMultiply},
	BinPow:        {Text: "**", Level: LExponentiation},
	BinLt:         {Text: "<", Level: LCompare},
	BinLe:         {Text: "<=", Level: LCompare},
	BinGt:         {Text: ">", Level: LCompare},
	BinGe:         {Text: ">=", Level: LCompare},
	BinIn:         {Text: "in", Level: LCompare, IsKeyword: true},
	BinInstanceof: {Text: "instanceof", Level: LCompare, IsKeyword: true},
	BinShl:        {Text: "<<", Level: LShift},
	BinShr:        {Text: ">>", Level: LShift},
	BinUShr:       {Text: ">>>", Level: LShift},
	BinLooseEq:    {Text: "==", Level: LEquals},
	BinLooseNe:    {Text: "!=", Level: LEquals},
	BinStrictEq:   {Text: "===", Level: LEquals},
	BinStrictNe:   {Text: "!==", Level: LEquals},
	BinBitwiseOr:  {Text: "|", Level: LBitwiseOr},
	BinBitwiseAnd: {Text: "&", Level: LBitwiseAnd},
	BinBitwiseXor: {Text: "^", Level: LBitwiseXor},

	BinNullishCoalescing: {Text: "??", Level: LNullishCoalescing},
	BinLogicalOr:         {Text: "||", Level: LLogicalOr},
	BinLogicalAnd:        {Text: "&&", Level: LLogicalAnd},

	BinAssign:                  {Text: "=", Level: LAssign},
	BinAddAssign:               {Text: "+=", Level: LAssign, Compound: BinAdd},
	BinSubAssign:               {Text: "-=", Level: LAssign, Compound: BinSub},
	BinMulAssign:               {Text: "*=", Level: LAssign, Compound: BinMul},
	BinDivAssign:               {Text: "/=", Level: LAssign, Compound: BinDiv},
	BinRemAssign:               {Text: "%=", Level: LAssign, Compound: BinRem},
	BinPowAssign:               {Text: "**=", Level: LAssign, Compound: BinPow},
	BinShlAssign:               {Text: "<<=", Level: LAssign, Compound: BinShl},
	BinShrAssign:               {Text: ">>=", Level: LAssign, Compound: BinShr},
	BinUShrAssign:              {Text: ">>>=", Level: LAssign, Compound: BinUShr},
	BinBitwiseOrAssign:         {Text: "|=", Level: LAssign, Compound: BinBitwiseOr},
	BinBitwiseAndAssign:        {Text: "&=", Level: LAssign, Compound: BinBitwiseAnd},
	BinBitwiseXorAssign:        {Text: "^=", Level: LAssign, Compound: BinBitwiseXor},
	BinNullishCoalescingAssign: {Text: "??=", Level: LAssign, Compound: BinNullishCoalescing},
	BinLogicalOrAssign:         {Text: "||=", Level: LAssign, Compound: BinLogicalOr},
	BinLogicalAndAssign:        {Text: "&&=", Level: LAssign, Compound: BinLogicalAnd},
}

// String returns the operator text.
func (op OpCode) String() string {
	if int(op) < len(OpTable) {
		return OpTable[op].Text
	}
	return "?"
}

// IsLogical reports whether op is &&, || or ??.
func (op OpCode) IsLogical() bool {
	return op >= BinNullishCoalescing && op <= BinLogicalAnd
}

// IsCompoundAssign reports whether op is an assignment other than '='.
func (op OpCode) IsCompoundAssign() bool {
	return op > BinAssign && op <= BinLogicalAndAssign
}

// IsEquality reports whether op is ==, !=, === or !==.
func (op OpCode) IsEquality() bool {
	return op >= BinLooseEq && op <= BinStrictNe
}
