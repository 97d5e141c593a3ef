package parser

import (
	"errors"
	"strconv"

	"github.com/HugoDaniel/valtypes/internal/ast"
	"github.com/HugoDaniel/valtypes/internal/lexer"
	"github.com/HugoDaniel/valtypes/internal/value"
)

// ----------------------------------------------------------------------------
// Operator Tables
// ----------------------------------------------------------------------------

var prefixOps = map[lexer.TokenKind]ast.OpCode{
	lexer.TokPlus:   ast.UnPos,
	lexer.TokMinus:  ast.UnNeg,
	lexer.TokTilde:  ast.UnCpl,
	lexer.TokBang:   ast.UnNot,
	lexer.TokVoid:   ast.UnVoid,
	lexer.TokTypeof: ast.UnTypeof,
	lexer.TokDelete: ast.UnDelete,
	lexer.TokHash:   ast.UnFreeze,
}

var binaryOps = map[lexer.TokenKind]ast.OpCode{
	lexer.TokPlus:             ast.BinAdd,
	lexer.TokMinus:            ast.BinSub,
	lexer.TokStar:             ast.BinMul,
	lexer.TokSlash:            ast.BinDiv,
	lexer.TokPercent:          ast.BinRem,
	lexer.TokStarStar:         ast.BinPow,
	lexer.TokLt:               ast.BinLt,
	lexer.TokLtEq:             ast.BinLe,
	lexer.TokGt:               ast.BinGt,
	lexer.TokGtEq:             ast.BinGe,
	lexer.TokIn:               ast.BinIn,
	lexer.TokInstanceof:       ast.BinInstanceof,
	lexer.TokLtLt:             ast.BinShl,
	lexer.TokGtGt:             ast.BinShr,
	lexer.TokGtGtGt:           ast.BinUShr,
	lexer.TokEqEq:             ast.BinLooseEq,
	lexer.TokBangEq:           ast.BinLooseNe,
	lexer.TokEqEqEq:           ast.BinStrictEq,
	lexer.TokBangEqEq:         ast.BinStrictNe,
	lexer.TokPipe:             ast.BinBitwiseOr,
	lexer.TokAmp:              ast.BinBitwiseAnd,
	lexer.TokCaret:            ast.BinBitwiseXor,
	lexer.TokQuestionQuestion: ast.BinNullishCoalescing,
	lexer.TokPipePipe:         ast.BinLogicalOr,
	lexer.TokAmpAmp:           ast.BinLogicalAnd,
}

var assignOps = map[lexer.TokenKind]ast.OpCode{
	lexer.TokEq:                 ast.BinAssign,
	lexer.TokPlusEq:             ast.BinAddAssign,
	lexer.TokMinusEq:            ast.BinSubAssign,
	lexer.TokStarEq:             ast.BinMulAssign,
	lexer.TokStarStarEq:         ast.BinPowAssign,
	lexer.TokSlashEq:            ast.BinDivAssign,
	lexer.TokPercentEq:          ast.BinRemAssign,
	lexer.TokAmpEq:              ast.BinBitwiseAndAssign,
	lexer.TokPipeEq:             ast.BinBitwiseOrAssign,
	lexer.TokCaretEq:            ast.BinBitwiseXorAssign,
	lexer.TokLtLtEq:             ast.BinShlAssign,
	lexer.TokGtGtEq:             ast.BinShrAssign,
	lexer.TokGtGtGtEq:           ast.BinUShrAssign,
	lexer.TokAmpAmpEq:           ast.BinLogicalAndAssign,
	lexer.TokPipePipeEq:         ast.BinLogicalOrAssign,
	lexer.TokQuestionQuestionEq: ast.BinNullishCoalescingAssign,
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// parseExpr parses an expression whose operators all bind tighter than
// level.
func (p *Parser) parseExpr(level ast.L) ast.ExprID {
	left := p.parsePrefix()
	if p.failed() {
		return left
	}
	return p.parseSuffix(left, level)
}

func (p *Parser) parsePrefix() ast.ExprID {
	tok := p.current()
	loc := locOf(tok)

	switch tok.Kind {
	case lexer.TokNumber:
		p.advance()
		n, ok := parseNumber(tok.Value)
		if !ok {
			p.errorAt(tok.Start, "invalid number "+strconv.Quote(tok.Value))
		}
		return p.tree.Add(loc, &ast.LiteralExpr{Kind: ast.LitNumber, Value: tok.Value, Number: n})

	case lexer.TokString:
		p.advance()
		return p.tree.Add(loc, &ast.LiteralExpr{Kind: ast.LitString, Value: tok.Value})

	case lexer.TokTemplate:
		p.advance()
		return p.tree.Add(loc, &ast.LiteralExpr{Kind: ast.LitTemplate, Value: tok.Value})

	case lexer.TokTrue, lexer.TokFalse:
		p.advance()
		return p.tree.Add(loc, &ast.LiteralExpr{Kind: ast.LitBoolean, Value: tok.Value, Bool: tok.Kind == lexer.TokTrue})

	case lexer.TokNull:
		p.advance()
		return p.tree.Add(loc, &ast.LiteralExpr{Kind: ast.LitNull, Value: "null"})

	case lexer.TokThis:
		p.advance()
		return p.tree.Add(loc, &ast.ThisExpr{})

	case lexer.TokIdent:
		p.advance()
		if next := p.current(); next.Kind == lexer.TokArrow && !next.NewlineBefore {
			return p.parseArrowBody(loc, []lexer.Token{tok})
		}
		// Note: ref binding happens in visit pass
		return p.tree.Add(loc, &ast.IdentExpr{Name: tok.Value, Ref: ast.InvalidRef()})

	case lexer.TokLParen:
		if p.isArrowAhead() {
			p.advance()
			names := p.parseParamNames()
			if _, ok := p.expect(lexer.TokRParen); !ok {
				return ast.NoExpr
			}
			return p.parseArrowBody(loc, names)
		}
		p.advance()
		inner := p.parseExpr(ast.LLowest)
		p.expect(lexer.TokRParen)
		return p.tree.Add(loc, &ast.ParenExpr{Value: inner})

	case lexer.TokLBracket:
		return p.parseArrayLiteral()

	case lexer.TokLBrace:
		return p.parseObjectLiteral()

	case lexer.TokFunction:
		p.advance()
		name, nameLoc := "", loc
		if p.current().Kind == lexer.TokIdent {
			nameTok := p.advance()
			name, nameLoc = nameTok.Value, locOf(nameTok)
		}
		fn := p.parseFn(name, nameLoc, ast.InvalidRef(), true)
		return p.tree.Add(loc, &ast.FunctionExpr{Fn: fn})

	case lexer.TokClass:
		p.advance()
		name := ""
		if p.current().Kind == lexer.TokIdent {
			name = p.advance().Value
		}
		class := p.parseClassBody(name, ast.InvalidRef())
		return p.tree.Add(loc, &ast.ClassExpr{Class: class})

	case lexer.TokNew:
		p.advance()
		target := p.parseExpr(ast.LMember)
		var args []ast.ExprID
		if p.match(lexer.TokLParen) {
			args = p.parseArgs()
		}
		return p.tree.Add(loc, &ast.NewExpr{Target: target, Args: args})

	case lexer.TokColonColon:
		p.advance()
		callee := p.parseExpr(ast.LMember)
		if _, ok := p.tree.Expr(p.tree.Unparen(callee)).(*ast.MemberExpr); !ok {
			p.errorAt(tok.Start, "binding should be performed on a member expression")
		}
		return p.tree.Add(loc, &ast.BindExpr{Object: ast.NoExpr, Callee: callee})

	case lexer.TokPlusPlus, lexer.TokMinusMinus:
		p.advance()
		target := p.parseExpr(ast.LPrefix)
		if !p.tree.IsLVal(target) {
			p.errorAt(tok.Start, "invalid update target")
		}
		op := ast.UnPreInc
		if tok.Kind == lexer.TokMinusMinus {
			op = ast.UnPreDec
		}
		return p.tree.Add(loc, &ast.UpdateExpr{Op: op, Value: target})

	default:
		if op, ok := prefixOps[tok.Kind]; ok {
			p.advance()
			operand := p.parseExpr(ast.LPrefix - 1)
			return p.tree.Add(loc, &ast.UnaryExpr{Op: op, Value: operand})
		}
		p.unexpected()
		return ast.NoExpr
	}
}

func (p *Parser) parseSuffix(left ast.ExprID, level ast.L) ast.ExprID {
	for !p.failed() {
		tok := p.current()
		loc := p.tree.Loc(left)

		switch tok.Kind {
		case lexer.TokDot:
			p.advance()
			name := p.current()
			if name.Kind != lexer.TokIdent && !isKeyword(name.Kind) {
				p.unexpected()
				return left
			}
			p.advance()
			left = p.tree.Add(loc, &ast.MemberExpr{Object: left, Name: name.Value, NameLoc: locOf(name)})

		case lexer.TokLBracket:
			p.advance()
			index := p.parseExpr(ast.LLowest)
			p.expect(lexer.TokRBracket)
			left = p.tree.Add(loc, &ast.MemberExpr{Object: left, Index: index, Computed: true})

		case lexer.TokLParen:
			if level >= ast.LCall {
				return left
			}
			p.advance()
			args := p.parseArgs()
			left = p.tree.Add(loc, &ast.CallExpr{Target: left, Args: args})

		case lexer.TokTemplate:
			p.advance()
			left = p.tree.Add(loc, &ast.TaggedTemplateExpr{Tag: left, Value: tok.Value})

		case lexer.TokColonColon:
			if level >= ast.LMember {
				return left
			}
			p.advance()
			callee := p.parseExpr(ast.LMember)
			left = p.tree.Add(loc, &ast.BindExpr{Object: left, Callee: callee})

		case lexer.TokPlusPlus, lexer.TokMinusMinus:
			// A newline before ++ ends the statement
			if tok.NewlineBefore || level >= ast.LPostfix {
				return left
			}
			if !p.tree.IsLVal(left) {
				p.error("invalid update target")
				return left
			}
			p.advance()
			op := ast.UnPostInc
			if tok.Kind == lexer.TokMinusMinus {
				op = ast.UnPostDec
			}
			left = p.tree.Add(loc, &ast.UpdateExpr{Op: op, Value: left})

		case lexer.TokQuestion:
			if level >= ast.LConditional {
				return left
			}
			p.advance()
			yes := p.parseExpr(ast.LComma)
			if _, ok := p.expect(lexer.TokColon); !ok {
				return left
			}
			no := p.parseExpr(ast.LComma)
			left = p.tree.Add(loc, &ast.ConditionalExpr{Test: left, Yes: yes, No: no})

		case lexer.TokComma:
			if level >= ast.LComma {
				return left
			}
			exprs := []ast.ExprID{left}
			for p.match(lexer.TokComma) && !p.failed() {
				exprs = append(exprs, p.parseExpr(ast.LComma))
			}
			left = p.tree.Add(loc, &ast.SequenceExpr{Exprs: exprs})

		default:
			if op, ok := assignOps[tok.Kind]; ok {
				if level >= ast.LAssign {
					return left
				}
				if !p.tree.IsLVal(left) {
					p.error("invalid assignment target")
					return left
				}
				p.advance()
				right := p.parseExpr(ast.LAssign - 1)
				left = p.tree.Add(loc, &ast.AssignExpr{Op: op, Target: left, Value: right})
				continue
			}

			if op, ok := binaryOps[tok.Kind]; ok {
				opLevel := ast.OpTable[op].Level
				if level >= opLevel {
					return left
				}
				p.advance()

				// "**" is right-associative
				rightLevel := opLevel
				if op == ast.BinPow {
					rightLevel--
				}
				right := p.parseExpr(rightLevel)
				if op.IsLogical() {
					left = p.tree.Add(loc, &ast.LogicalExpr{Op: op, Left: left, Right: right})
				} else {
					left = p.tree.Add(loc, &ast.BinaryExpr{Op: op, Left: left, Right: right})
				}
				continue
			}

			return left
		}
	}
	return left
}

// parseArgs parses call arguments after the opening parenthesis.
func (p *Parser) parseArgs() []ast.ExprID {
	var args []ast.ExprID
	for p.current().Kind != lexer.TokRParen && !p.failed() {
		args = append(args, p.parseExpr(ast.LComma))
		if !p.match(lexer.TokComma) {
			break
		}
	}
	p.expect(lexer.TokRParen)
	return args
}

func (p *Parser) parseArrayLiteral() ast.ExprID {
	tok := p.advance()
	arr := &ast.ArrayExpr{}

	for p.current().Kind != lexer.TokRBracket && !p.failed() {
		if p.current().Kind == lexer.TokComma {
			p.advance()
			arr.Items = append(arr.Items, ast.NoExpr)
			continue
		}
		arr.Items = append(arr.Items, p.parseExpr(ast.LComma))
		if !p.match(lexer.TokComma) {
			break
		}
	}

	p.expect(lexer.TokRBracket)
	return p.tree.Add(locOf(tok), arr)
}

func (p *Parser) parseObjectLiteral() ast.ExprID {
	tok := p.advance()
	obj := &ast.ObjectExpr{}

	for p.current().Kind != lexer.TokRBrace && !p.failed() {
		keyTok := p.current()
		prop := ast.Property{}
		if !p.parsePropertyKey(&prop) {
			break
		}

		switch p.current().Kind {
		case lexer.TokColon:
			p.advance()
			prop.Value = p.parseExpr(ast.LComma)

		case lexer.TokLParen:
			prop.Kind = ast.PropertyMethod
			fn := p.parseFn("", locOf(keyTok), ast.InvalidRef(), true)
			prop.Value = p.tree.Add(locOf(keyTok), &ast.FunctionExpr{Fn: fn})

		default:
			if keyTok.Kind != lexer.TokIdent {
				p.unexpected()
				return ast.NoExpr
			}
			prop.Kind = ast.PropertyShorthand
			prop.Value = p.tree.Add(locOf(keyTok), &ast.IdentExpr{Name: keyTok.Value, Ref: ast.InvalidRef()})
		}
		obj.Properties = append(obj.Properties, prop)

		if !p.match(lexer.TokComma) {
			break
		}
	}

	p.expect(lexer.TokRBrace)
	return p.tree.Add(locOf(tok), obj)
}

// parsePropertyKey parses an object literal or class member key.
func (p *Parser) parsePropertyKey(prop *ast.Property) bool {
	tok := p.current()
	switch {
	case tok.Kind == lexer.TokIdent, tok.Kind == lexer.TokString, isKeyword(tok.Kind):
		p.advance()
		prop.Key = tok.Value

	case tok.Kind == lexer.TokNumber:
		p.advance()
		n, _ := parseNumber(tok.Value)
		prop.Key = value.NumberToString(n)

	case tok.Kind == lexer.TokLBracket:
		p.advance()
		prop.Computed = true
		prop.KeyExpr = p.parseExpr(ast.LComma)
		if _, ok := p.expect(lexer.TokRBracket); !ok {
			return false
		}

	default:
		p.unexpected()
		return false
	}
	return true
}

// parseArrowBody parses "=> body" for parameters that were already
// consumed.
func (p *Parser) parseArrowBody(loc ast.Loc, params []lexer.Token) ast.ExprID {
	p.pushScope(ast.ScopeFunction)
	defer p.popScope()

	arrow := &ast.ArrowExpr{Args: p.declareArgs(params)}
	if _, ok := p.expect(lexer.TokArrow); !ok {
		return ast.NoExpr
	}

	if p.current().Kind == lexer.TokLBrace {
		arrow.Body = p.parseFnBody()
	} else {
		bodyTok := p.current()
		p.fnDepth++
		body := p.parseExpr(ast.LComma)
		p.fnDepth--
		arrow.Body = []ast.Stmt{&ast.ReturnStmt{Loc: locOf(bodyTok), Value: body}}
		arrow.ExprBody = true
	}
	return p.tree.Add(loc, arrow)
}

// isArrowAhead reports whether the parenthesis at the current position
// closes into "=>".
func (p *Parser) isArrowAhead() bool {
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].Kind {
		case lexer.TokLParen:
			depth++
		case lexer.TokRParen:
			depth--
			if depth == 0 {
				next := p.peek(i - p.pos + 1)
				return next.Kind == lexer.TokArrow && !next.NewlineBefore
			}
		case lexer.TokEOF, lexer.TokError:
			return false
		}
	}
	return false
}

func isKeyword(kind lexer.TokenKind) bool {
	return kind >= lexer.TokBreak && kind <= lexer.TokWhile
}

func parseNumber(text string) (float64, bool) {
	if len(text) > 2 && text[0] == '0' {
		base := 0
		switch text[1] {
		case 'x', 'X':
			base = 16
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		}
		if base != 0 {
			n, err := strconv.ParseUint(text[2:], base, 64)
			return float64(n), err == nil
		}
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return n, true
}
