package ast

// ----------------------------------------------------------------------------
// Purity
// ----------------------------------------------------------------------------

// IsPure reports whether evaluating id has no side effects and yields the
// same result when evaluated again right away. Identifiers, `this` and
// literals are pure, as is a parenthesized pure expression. Everything else
// is treated as impure.
func (t *Tree) IsPure(id ExprID) bool {
	switch e := t.Expr(id).(type) {
	case *IdentExpr, *ThisExpr:
		return true
	case *LiteralExpr:
		return true
	case *ParenExpr:
		return t.IsPure(e.Value)
	}
	return false
}

// Unparen strips any parentheses around id.
func (t *Tree) Unparen(id ExprID) ExprID {
	for {
		p, ok := t.Expr(id).(*ParenExpr)
		if !ok {
			return id
		}
		id = p.Value
	}
}

// IsLVal reports whether id can be the target of an assignment: an
// identifier or a member expression, possibly parenthesized.
func (t *Tree) IsLVal(id ExprID) bool {
	switch t.Expr(t.Unparen(id)).(type) {
	case *IdentExpr, *MemberExpr:
		return true
	}
	return false
}

// HasMemberWrite reports whether evaluating id assigns to or updates a
// member expression. Function and class bodies are not entered, since
// creating them runs nothing.
func (t *Tree) HasMemberWrite(id ExprID) bool {
	if !id.IsValid() {
		return false
	}
	switch e := t.Expr(id).(type) {
	case *AssignExpr:
		if _, ok := t.Expr(t.Unparen(e.Target)).(*MemberExpr); ok {
			return true
		}
		return t.HasMemberWrite(e.Target) || t.HasMemberWrite(e.Value)
	case *UpdateExpr:
		if _, ok := t.Expr(t.Unparen(e.Value)).(*MemberExpr); ok {
			return true
		}
		return false
	case *ArrayExpr:
		return t.anyMemberWrite(e.Items)
	case *ObjectExpr:
		for _, prop := range e.Properties {
			if prop.Computed && t.HasMemberWrite(prop.KeyExpr) {
				return true
			}
			if t.HasMemberWrite(prop.Value) {
				return true
			}
		}
	case *ClassExpr:
		return t.HasMemberWrite(e.Class.Extends)
	case *TaggedTemplateExpr:
		return t.HasMemberWrite(e.Tag)
	case *BindExpr:
		return t.HasMemberWrite(e.Object) || t.HasMemberWrite(e.Callee)
	case *MemberExpr:
		return t.HasMemberWrite(e.Object) || (e.Computed && t.HasMemberWrite(e.Index))
	case *CallExpr:
		return t.HasMemberWrite(e.Target) || t.anyMemberWrite(e.Args)
	case *NewExpr:
		return t.HasMemberWrite(e.Target) || t.anyMemberWrite(e.Args)
	case *UnaryExpr:
		return t.HasMemberWrite(e.Value)
	case *BinaryExpr:
		return t.HasMemberWrite(e.Left) || t.HasMemberWrite(e.Right)
	case *LogicalExpr:
		return t.HasMemberWrite(e.Left) || t.HasMemberWrite(e.Right)
	case *ConditionalExpr:
		return t.HasMemberWrite(e.Test) || t.HasMemberWrite(e.Yes) || t.HasMemberWrite(e.No)
	case *SequenceExpr:
		return t.anyMemberWrite(e.Exprs)
	case *ParenExpr:
		return t.HasMemberWrite(e.Value)
	}
	return false
}

func (t *Tree) anyMemberWrite(ids []ExprID) bool {
	for _, id := range ids {
		if t.HasMemberWrite(id) {
			return true
		}
	}
	return false
}
