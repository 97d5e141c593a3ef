package transform

import (
	"github.com/golang/glog"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/diagnostic"
)

// ----------------------------------------------------------------------------
// Member Writes
// ----------------------------------------------------------------------------

// memberWrite holds the pieces of the persistent form of "object.key = ...":
//
//	target = persistentSet(read, key, value)
//
// target is the object as it is assigned to, with hoisted subexpressions
// stored into their temporaries inline. read is the same object read back
// through those temporaries.
type memberWrite struct {
	loc    ast.Loc
	target ast.ExprID
	read   ast.ExprID

	// The property: a name, or a computed key expression
	name     string
	computed bool
	key      ast.ExprID

	// keyRead reads a computed key a second time, when the property value is
	// read as well as written
	keyRead ast.ExprID

	// hoists are the "_t = expr" stores of the impure parts of target.
	// baseHoisted is set when the object's own base is among them; the
	// write then stays on the member and is not carried up further.
	hoists      []ast.ExprID
	baseHoisted bool

	// pre is evaluated, in order, before the write
	pre []ast.ExprID
}

// planWrite decides whether a write to the member at memberID goes through
// persistentSet. The object must be an identifier or a member access that
// might hold a value object. Writes through a const binding are left alone,
// unless the binding is known to hold a value object: that write can never
// succeed and is reported.
//
// readsProperty is set for compound assignments and updates, which read
// the current property value before writing.
func (p *pass) planWrite(memberID ast.ExprID, readsProperty bool) (*memberWrite, bool) {
	member, ok := p.tree.Expr(memberID).(*ast.MemberExpr)
	if !ok {
		return nil, false
	}
	objectID := p.tree.Unparen(member.Object)

	switch object := p.tree.Expr(objectID).(type) {
	case *ast.IdentExpr:
		class := Classify(p.tree, objectID)
		if class == NotValue {
			return nil, false
		}
		if sym := p.tree.Symbol(object.Ref); sym != nil && sym.Kind == ast.SymbolConst {
			if class == IsValue {
				start := int(p.tree.Loc(objectID).Start)
				p.diags.AddError(diagnostic.CodeConstantValueAssignment, start, start+len(object.Name),
					"Assignment to a value object that is constant")
			}
			return nil, false
		}

	case *ast.MemberExpr:
		if Classify(p.tree, objectID) == NotValue {
			return nil, false
		}

	default:
		return nil, false
	}

	w := &memberWrite{
		loc:      p.tree.Loc(memberID),
		name:     member.Name,
		computed: member.Computed,
	}
	p.splitObject(w, objectID)

	if member.Computed {
		w.key = member.Index
		if readsProperty {
			if p.tree.IsPure(member.Index) {
				w.keyRead = p.clone(member.Index)
			} else {
				// The key is evaluated once, into a temporary both uses share
				ref := p.temp(member.Index)
				w.key = p.assign(w.loc, p.ident(w.loc, ref), member.Index)
				w.keyRead = p.ident(w.loc, ref)
			}
		}
	} else {
		w.key = p.str(member.NameLoc, member.Name)
	}
	return w, true
}

// splitObject fills in the assignment and read forms of the object. An
// identifier is used as is. A member access has its base and computed key
// hoisted into temporaries when they are not pure, so each evaluates once.
func (p *pass) splitObject(w *memberWrite, objectID ast.ExprID) {
	object, ok := p.tree.Expr(objectID).(*ast.MemberExpr)
	if !ok {
		w.target = objectID
		w.read = p.clone(objectID)
		return
	}

	loc := p.tree.Loc(objectID)
	targetBase, readBase := object.Object, ast.NoExpr
	if !p.tree.IsPure(object.Object) {
		ref := p.temp(object.Object)
		targetBase = p.assign(loc, p.ident(loc, ref), object.Object)
		readBase = p.ident(loc, ref)
		w.hoists = append(w.hoists, targetBase)
		w.baseHoisted = true
	}

	targetIndex, readIndex := object.Index, ast.NoExpr
	if object.Computed && !p.tree.IsPure(object.Index) {
		ref := p.temp(object.Index)
		targetIndex = p.assign(loc, p.ident(loc, ref), object.Index)
		readIndex = p.ident(loc, ref)
		w.hoists = append(w.hoists, targetIndex)
	}

	if !readBase.IsValid() && !readIndex.IsValid() {
		w.target = objectID
		w.read = p.clone(objectID)
		return
	}

	if !readBase.IsValid() {
		readBase = p.clone(object.Object)
	}
	if object.Computed && !readIndex.IsValid() {
		readIndex = p.clone(object.Index)
	}
	w.target = p.add(loc, &ast.MemberExpr{Object: targetBase, Name: object.Name, NameLoc: object.NameLoc, Index: targetIndex, Computed: object.Computed})
	w.read = p.add(loc, &ast.MemberExpr{Object: readBase, Name: object.Name, NameLoc: object.NameLoc, Index: readIndex, Computed: object.Computed})
}

// readProperty builds "read.key", the current value of the written
// property. It may be called once per write.
func (p *pass) readProperty(w *memberWrite) ast.ExprID {
	object := p.clone(w.read)
	if w.computed {
		return p.add(w.loc, &ast.MemberExpr{Object: object, Index: w.keyRead, Computed: true})
	}
	return p.add(w.loc, &ast.MemberExpr{Object: object, Name: w.name})
}

// writesOperand reports whether evaluating the key or a hoisted part of
// the target writes a member. Such a write may replace the object, so the
// object must be read after it.
func (p *pass) writesOperand(w *memberWrite) bool {
	if w.computed && p.tree.HasMemberWrite(w.key) {
		return true
	}
	for _, h := range w.hoists {
		if p.tree.HasMemberWrite(h) {
			return true
		}
	}
	return false
}

// hoistOperands moves the hoisted parts of the target and an impure key
// out of the write and into pre, so they run before anything pre gets
// next. The target is then read back through its temporaries.
func (p *pass) hoistOperands(w *memberWrite) {
	if len(w.hoists) > 0 {
		w.pre = append(w.pre, w.hoists...)
		w.target = p.clone(w.read)
	}
	if w.computed && !p.tree.IsPure(w.key) {
		if w.keyRead.IsValid() {
			// Already stored into a temporary by planWrite
			w.pre = append(w.pre, w.key)
			w.key = p.clone(w.keyRead)
		} else {
			ref := p.temp(w.key)
			w.pre = append(w.pre, p.assign(w.loc, p.ident(w.loc, ref), w.key))
			w.key = p.ident(w.loc, ref)
		}
	}
}

// emitWrite stores "target = persistentSet(read, key, value)" at id, after
// the expressions in w.pre. When the target is itself a member of a
// possible value object, the generated assignment is rewritten in turn, so
// the new object is stored all the way up to a variable. result, when
// valid, is a temporary holding the value of the whole expression.
func (p *pass) emitWrite(id ast.ExprID, w *memberWrite, value ast.ExprID, result ast.Ref) {
	call := p.helperCall(w.loc, ast.HelperPersistentSet, w.read, w.key, value)
	write := &ast.AssignExpr{Op: ast.BinAssign, Target: w.target, Value: call}

	if ident, ok := p.tree.Expr(w.target).(*ast.IdentExpr); ok {
		if sym := p.tree.Symbol(ident.Ref); sym != nil {
			sym.Flags |= ast.IsReassigned
		}
	}

	writeID := id
	if len(w.pre) > 0 || result.IsValid() {
		writeID = p.add(w.loc, write)
		exprs := append(append([]ast.ExprID{}, w.pre...), writeID)
		if result.IsValid() {
			exprs = append(exprs, p.ident(w.loc, result))
		}
		p.tree.Replace(id, &ast.SequenceExpr{Exprs: exprs})
	} else {
		p.tree.Replace(id, write)
	}

	if w.baseHoisted {
		return
	}
	if _, ok := p.tree.Expr(p.tree.Unparen(w.target)).(*ast.MemberExpr); ok {
		p.rewriteAssign(writeID, write, false)
	}
}

// ----------------------------------------------------------------------------
// Assignments
// ----------------------------------------------------------------------------

// rewriteAssign rewrites "object.key op= right". used reports whether the
// value of the assignment is needed; if so it is captured in a temporary
// and the rewritten expression yields it.
func (p *pass) rewriteAssign(id ast.ExprID, e *ast.AssignExpr, used bool) {
	targetID := p.tree.Unparen(e.Target)
	if _, ok := p.tree.Expr(targetID).(*ast.MemberExpr); !ok {
		return
	}

	w, ok := p.planWrite(targetID, e.Op != ast.BinAssign)
	if !ok {
		return
	}

	value := e.Value
	if e.Op != ast.BinAssign {
		compound := ast.OpTable[e.Op].Compound
		current := p.readProperty(w)
		if compound.IsLogical() {
			value = p.add(w.loc, &ast.LogicalExpr{Op: compound, Left: current, Right: e.Value})
		} else {
			value = p.add(w.loc, &ast.BinaryExpr{Op: compound, Left: current, Right: e.Value})
		}
	}

	// A write inside the operands may replace the object; evaluate them
	// first and read the object afterwards
	first := p.tree.HasMemberWrite(e.Value) || p.writesOperand(w)
	if first {
		p.hoistOperands(w)
	}

	result := ast.InvalidRef()
	if used || first {
		result = p.temp(e.Value)
		value = p.assign(w.loc, p.ident(w.loc, result), value)
	}
	if first {
		w.pre = append(w.pre, value)
		value = p.ident(w.loc, result)
		if !used {
			result = ast.InvalidRef()
		}
	}

	p.emitWrite(id, w, value, result)
	p.stats.Assignments++
	glog.V(2).Infof("member %s at offset %d rewritten through %s", e.Op, w.loc.Start, p.names.PersistentSet)
}

// ----------------------------------------------------------------------------
// Updates
// ----------------------------------------------------------------------------

// rewriteUpdate rewrites "object.key++" and the other update forms as a
// write of the incremented value. The current value is converted to a
// number first, as the operators do. A postfix update whose value is used
// yields the number read before the write.
func (p *pass) rewriteUpdate(id ast.ExprID, e *ast.UpdateExpr, used bool) {
	targetID := p.tree.Unparen(e.Value)
	if _, ok := p.tree.Expr(targetID).(*ast.MemberExpr); !ok {
		return
	}

	w, ok := p.planWrite(targetID, true)
	if !ok {
		return
	}
	if p.writesOperand(w) {
		p.hoistOperands(w)
	}

	op := ast.BinAdd
	if e.Op == ast.UnPreDec || e.Op == ast.UnPostDec {
		op = ast.BinSub
	}
	postfix := e.Op == ast.UnPostInc || e.Op == ast.UnPostDec

	current := p.add(w.loc, &ast.UnaryExpr{Op: ast.UnPos, Value: p.readProperty(w)})
	result := ast.InvalidRef()
	if used {
		result = p.temp(targetID)
		if postfix {
			current = p.assign(w.loc, p.ident(w.loc, result), current)
		}
	}

	one := p.add(w.loc, &ast.LiteralExpr{Kind: ast.LitNumber, Value: "1", Number: 1})
	value := p.add(w.loc, &ast.BinaryExpr{Op: op, Left: current, Right: one})
	if used && !postfix {
		value = p.assign(w.loc, p.ident(w.loc, result), value)
	}

	p.emitWrite(id, w, value, result)
	p.stats.Updates++
	glog.V(2).Infof("member %s at offset %d rewritten through %s", e.Op, w.loc.Start, p.names.PersistentSet)
}
