// Package lexer provides tokenization for the JavaScript subset valtypes
// compiles.
//
// The lexer converts a source string into a sequence of tokens, handling:
// - Keywords
// - Identifiers (including Unicode letters, '$' and '_')
// - Numeric literals (decimal, hex, binary, octal, exponents)
// - String and no-substitution template literals
// - Operators and punctuation, including the freeze operator '#' and the
//   bind operator '::'
// - Line and block comments
//
// Every token records whether a line terminator precedes it, which the
// parser needs for automatic semicolon insertion.
package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ----------------------------------------------------------------------------
// Token Types
// ----------------------------------------------------------------------------

// TokenKind represents the type of a token.
type TokenKind uint8

const (
	TokError TokenKind = iota
	TokEOF

	// Literals
	TokNumber
	TokString
	TokTemplate

	// Identifiers
	TokIdent

	// Keywords
	TokBreak
	TokClass
	TokConst
	TokContinue
	TokDelete
	TokDo
	TokElse
	TokExtends
	TokFalse
	TokFor
	TokFunction
	TokIf
	TokIn
	TokInstanceof
	TokLet
	TokNew
	TokNull
	TokReturn
	TokThis
	TokTrue
	TokTypeof
	TokVar
	TokVoid
	TokWhile

	// Operators
	TokPlus     // +
	TokMinus    // -
	TokStar     // *
	TokStarStar // **
	TokSlash    // /
	TokPercent  // %
	TokAmp      // &
	TokPipe     // |
	TokCaret    // ^
	TokTilde    // ~
	TokBang     // !
	TokLt       // <
	TokGt       // >
	TokEq       // =
	TokDot      // .
	TokHash     // #
	TokQuestion // ?

	TokPlusPlus         // ++
	TokMinusMinus       // --
	TokAmpAmp           // &&
	TokPipePipe         // ||
	TokQuestionQuestion // ??
	TokLtLt             // <<
	TokGtGt             // >>
	TokGtGtGt           // >>>
	TokLtEq             // <=
	TokGtEq             // >=
	TokEqEq             // ==
	TokEqEqEq           // ===
	TokBangEq           // !=
	TokBangEqEq         // !==
	TokArrow            // =>
	TokColonColon       // ::

	// Assignment operators
	TokPlusEq             // +=
	TokMinusEq            // -=
	TokStarEq             // *=
	TokStarStarEq         // **=
	TokSlashEq            // /=
	TokPercentEq          // %=
	TokAmpEq              // &=
	TokPipeEq             // |=
	TokCaretEq            // ^=
	TokLtLtEq             // <<=
	TokGtGtEq             // >>=
	TokGtGtGtEq           // >>>=
	TokAmpAmpEq           // &&=
	TokPipePipeEq         // ||=
	TokQuestionQuestionEq // ??=

	// Delimiters
	TokLParen    // (
	TokRParen    // )
	TokLBrace    // {
	TokRBrace    // }
	TokLBracket  // [
	TokRBracket  // ]
	TokSemicolon // ;
	TokColon     // :
	TokComma     // ,
)

// String returns the string representation of a token kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) && tokenNames[k] != "" {
		return tokenNames[k]
	}
	return "unknown"
}

var tokenNames = [TokComma + 1]string{
	TokError:    "error",
	TokEOF:      "end of file",
	TokNumber:   "number",
	TokString:   "string",
	TokTemplate: "template",
	TokIdent:    "identifier",
}

func init() {
	for text, kind := range Keywords {
		tokenNames[kind] = text
	}
	for _, op := range operators {
		tokenNames[op.kind] = op.text
	}
	for c := 'a'; c <= 'z'; c++ {
		asciiIdentStart[c] = true
		asciiIdentContinue[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		asciiIdentStart[c] = true
		asciiIdentContinue[c] = true
	}
	for _, c := range "_$" {
		asciiIdentStart[c] = true
		asciiIdentContinue[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		asciiIdentContinue[c] = true
	}
}

// IsAssign reports whether k is '=' or a compound assignment operator.
func (k TokenKind) IsAssign() bool {
	return k == TokEq || (k >= TokPlusEq && k <= TokQuestionQuestionEq)
}

// ----------------------------------------------------------------------------
// Token
// ----------------------------------------------------------------------------

// Token represents a lexical token.
type Token struct {
	Kind  TokenKind
	Start int    // Byte offset in source
	End   int    // Byte offset of end (exclusive)
	Value string // Identifier name, raw number, or cooked string contents

	// NewlineBefore is set when a line terminator separates this token from
	// the previous one.
	NewlineBefore bool
}

// Text returns the source text of the token.
func (t Token) Text(source string) string {
	if t.Start >= 0 && t.End <= len(source) {
		return source[t.Start:t.End]
	}
	return ""
}

// ----------------------------------------------------------------------------
// Keywords and Operators
// ----------------------------------------------------------------------------

// Keywords maps keyword strings to their token kinds.
var Keywords = map[string]TokenKind{
	"break":      TokBreak,
	"class":      TokClass,
	"const":      TokConst,
	"continue":   TokContinue,
	"delete":     TokDelete,
	"do":         TokDo,
	"else":       TokElse,
	"extends":    TokExtends,
	"false":      TokFalse,
	"for":        TokFor,
	"function":   TokFunction,
	"if":         TokIf,
	"in":         TokIn,
	"instanceof": TokInstanceof,
	"let":        TokLet,
	"new":        TokNew,
	"null":       TokNull,
	"return":     TokReturn,
	"this":       TokThis,
	"true":       TokTrue,
	"typeof":     TokTypeof,
	"var":        TokVar,
	"void":       TokVoid,
	"while":      TokWhile,
}

// ReservedWords are names that may not be used as identifiers even though
// the subset has no syntax for them.
var ReservedWords = map[string]bool{
	"await": true, "case": true, "catch": true, "debugger": true,
	"default": true, "enum": true, "export": true, "finally": true,
	"implements": true, "import": true, "interface": true, "package": true,
	"private": true, "protected": true, "public": true, "static": true,
	"super": true, "switch": true, "throw": true, "try": true,
	"with": true, "yield": true,
}

// operators is ordered longest first so the scanner can take the first
// match.
var operators = []struct {
	text string
	kind TokenKind
}{
	{">>>=", TokGtGtGtEq},
	{"===", TokEqEqEq},
	{"!==", TokBangEqEq},
	{"**=", TokStarStarEq},
	{"<<=", TokLtLtEq},
	{">>=", TokGtGtEq},
	{">>>", TokGtGtGt},
	{"&&=", TokAmpAmpEq},
	{"||=", TokPipePipeEq},
	{"??=", TokQuestionQuestionEq},
	{"++", TokPlusPlus},
	{"--", TokMinusMinus},
	{"&&", TokAmpAmp},
	{"||", TokPipePipe},
	{"??", TokQuestionQuestion},
	{"**", TokStarStar},
	{"<<", TokLtLt},
	{">>", TokGtGt},
	{"<=", TokLtEq},
	{">=", TokGtEq},
	{"==", TokEqEq},
	{"!=", TokBangEq},
	{"=>", TokArrow},
	{"::", TokColonColon},
	{"+=", TokPlusEq},
	{"-=", TokMinusEq},
	{"*=", TokStarEq},
	{"/=", TokSlashEq},
	{"%=", TokPercentEq},
	{"&=", TokAmpEq},
	{"|=", TokPipeEq},
	{"^=", TokCaretEq},
	{"+", TokPlus},
	{"-", TokMinus},
	{"*", TokStar},
	{"/", TokSlash},
	{"%", TokPercent},
	{"&", TokAmp},
	{"|", TokPipe},
	{"^", TokCaret},
	{"~", TokTilde},
	{"!", TokBang},
	{"<", TokLt},
	{">", TokGt},
	{"=", TokEq},
	{".", TokDot},
	{"#", TokHash},
	{"?", TokQuestion},
	{"(", TokLParen},
	{")", TokRParen},
	{"{", TokLBrace},
	{"}", TokRBrace},
	{"[", TokLBracket},
	{"]", TokRBracket},
	{";", TokSemicolon},
	{":", TokColon},
	{",", TokComma},
}

// ----------------------------------------------------------------------------
// Lexer
// ----------------------------------------------------------------------------

// Lexer tokenizes source code.
type Lexer struct {
	source  string
	pos     int
	start   int
	newline bool
	tokens  []Token
}

// New creates a new lexer for the given source.
func New(source string) *Lexer {
	return &Lexer{
		source: source,
		tokens: make([]Token, 0, len(source)/4), // Estimate
	}
}

// Tokenize returns all tokens in the source. The last token is TokEOF or
// TokError.
func (l *Lexer) Tokenize() []Token {
	for {
		tok := l.Next()
		l.tokens = append(l.tokens, tok)
		if tok.Kind == TokEOF || tok.Kind == TokError {
			break
		}
	}
	return l.tokens
}

// Next returns the next token.
func (l *Lexer) Next() Token {
	l.newline = false
	l.skipWhitespaceAndComments()

	tok := l.scan()
	tok.NewlineBefore = l.newline
	return tok
}

func (l *Lexer) scan() Token {
	if l.pos >= len(l.source) {
		return Token{Kind: TokEOF, Start: l.pos, End: l.pos}
	}

	l.start = l.pos
	ch := l.source[l.pos]

	if ch < utf8.RuneSelf {
		if asciiIdentStart[ch] {
			return l.scanIdentOrKeyword()
		}
	} else if r, _ := utf8.DecodeRuneInString(l.source[l.pos:]); isIdentStartSlow(r) {
		return l.scanIdentOrKeyword()
	}

	if isDigit(ch) || (ch == '.' && l.pos+1 < len(l.source) && isDigit(l.source[l.pos+1])) {
		return l.scanNumber()
	}

	switch ch {
	case '"', '\'':
		return l.scanString(ch)
	case '`':
		return l.scanTemplate()
	}

	return l.scanOperator()
}

// ----------------------------------------------------------------------------
// Scanning Helpers
// ----------------------------------------------------------------------------

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]

		switch ch {
		case '\n':
			l.newline = true
			l.pos++
			continue
		case ' ', '\t', '\r', '\v', '\f':
			l.pos++
			continue
		}

		if ch == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '/' {
			l.pos += 2
			for l.pos < len(l.source) && l.source[l.pos] != '\n' {
				l.pos++
			}
			continue
		}

		if ch == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '*' {
			end := strings.Index(l.source[l.pos+2:], "*/")
			if end < 0 {
				l.pos = len(l.source)
				return
			}
			if strings.IndexByte(l.source[l.pos:l.pos+2+end], '\n') >= 0 {
				l.newline = true
			}
			l.pos += end + 4
			continue
		}

		if ch >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(l.source[l.pos:])
			if r == '\u2028' || r == '\u2029' {
				l.newline = true
				l.pos += size
				continue
			}
			if unicode.IsSpace(r) {
				l.pos += size
				continue
			}
		}

		break
	}
}

func (l *Lexer) scanIdentOrKeyword() Token {
	start := l.pos

	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch < utf8.RuneSelf {
			if asciiIdentContinue[ch] {
				l.pos++
				continue
			}
			break
		}
		r, size := utf8.DecodeRuneInString(l.source[l.pos:])
		if !isIdentContinueSlow(r) {
			break
		}
		l.pos += size
	}

	text := l.source[start:l.pos]
	if kind, ok := Keywords[text]; ok {
		return Token{Kind: kind, Start: start, End: l.pos, Value: text}
	}
	if ReservedWords[text] {
		return Token{Kind: TokError, Start: start, End: l.pos, Value: "reserved word: " + text}
	}
	return Token{Kind: TokIdent, Start: start, End: l.pos, Value: text}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos

	if l.source[l.pos] == '0' && l.pos+1 < len(l.source) {
		var valid func(byte) bool
		switch l.source[l.pos+1] {
		case 'x', 'X':
			valid = isHexDigit
		case 'b', 'B':
			valid = func(c byte) bool { return c == '0' || c == '1' }
		case 'o', 'O':
			valid = func(c byte) bool { return c >= '0' && c <= '7' }
		}
		if valid != nil {
			l.pos += 2
			digits := l.pos
			for l.pos < len(l.source) && valid(l.source[l.pos]) {
				l.pos++
			}
			if l.pos == digits {
				return Token{Kind: TokError, Start: start, End: l.pos, Value: "missing digits after number prefix"}
			}
			return l.finishNumber(start)
		}
	}

	for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.source) && l.source[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.source) && (l.source[l.pos] == 'e' || l.source[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.source) && (l.source[l.pos] == '+' || l.source[l.pos] == '-') {
			l.pos++
		}
		digits := l.pos
		for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
			l.pos++
		}
		if l.pos == digits {
			return Token{Kind: TokError, Start: start, End: l.pos, Value: "missing exponent"}
		}
	}
	return l.finishNumber(start)
}

func (l *Lexer) finishNumber(start int) Token {
	// "3in" and "1x" are errors, not a number followed by an identifier
	if l.pos < len(l.source) && l.source[l.pos] < utf8.RuneSelf && asciiIdentStart[l.source[l.pos]] {
		return Token{Kind: TokError, Start: start, End: l.pos + 1, Value: "identifier starts immediately after numeric literal"}
	}
	return Token{Kind: TokNumber, Start: start, End: l.pos, Value: l.source[start:l.pos]}
}

func (l *Lexer) scanString(quote byte) Token {
	start := l.pos
	l.pos++
	var b strings.Builder
	for {
		if l.pos >= len(l.source) || l.source[l.pos] == '\n' {
			return Token{Kind: TokError, Start: start, End: l.pos, Value: "unterminated string literal"}
		}
		ch := l.source[l.pos]
		if ch == quote {
			l.pos++
			return Token{Kind: TokString, Start: start, End: l.pos, Value: b.String()}
		}
		if ch == '\\' {
			if msg := l.scanEscape(&b); msg != "" {
				return Token{Kind: TokError, Start: start, End: l.pos, Value: msg}
			}
			continue
		}
		b.WriteByte(ch)
		l.pos++
	}
}

func (l *Lexer) scanTemplate() Token {
	start := l.pos
	l.pos++
	var b strings.Builder
	for {
		if l.pos >= len(l.source) {
			return Token{Kind: TokError, Start: start, End: l.pos, Value: "unterminated template literal"}
		}
		ch := l.source[l.pos]
		switch {
		case ch == '`':
			l.pos++
			return Token{Kind: TokTemplate, Start: start, End: l.pos, Value: b.String()}
		case ch == '$' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '{':
			return Token{Kind: TokError, Start: start, End: l.pos + 2, Value: "template substitutions are not supported"}
		case ch == '\\':
			if msg := l.scanEscape(&b); msg != "" {
				return Token{Kind: TokError, Start: start, End: l.pos, Value: msg}
			}
		default:
			b.WriteByte(ch)
			l.pos++
		}
	}
}

// scanEscape decodes the escape sequence at l.pos (which holds a backslash)
// into b. It returns an error message for malformed escapes.
func (l *Lexer) scanEscape(b *strings.Builder) string {
	l.pos++
	if l.pos >= len(l.source) {
		return "unterminated escape sequence"
	}
	ch := l.source[l.pos]
	l.pos++
	switch ch {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case '\n':
		// line continuation
	case 'x':
		return l.scanHexEscape(b, 2)
	case 'u':
		if l.pos < len(l.source) && l.source[l.pos] == '{' {
			end := strings.IndexByte(l.source[l.pos:], '}')
			if end < 0 {
				return "malformed unicode escape"
			}
			n, err := strconv.ParseUint(l.source[l.pos+1:l.pos+end], 16, 32)
			if err != nil || n > unicode.MaxRune {
				return "malformed unicode escape"
			}
			b.WriteRune(rune(n))
			l.pos += end + 1
			return ""
		}
		return l.scanHexEscape(b, 4)
	default:
		b.WriteByte(ch)
	}
	return ""
}

func (l *Lexer) scanHexEscape(b *strings.Builder, digits int) string {
	if l.pos+digits > len(l.source) {
		return "malformed hexadecimal escape"
	}
	n, err := strconv.ParseUint(l.source[l.pos:l.pos+digits], 16, 32)
	if err != nil {
		return "malformed hexadecimal escape"
	}
	b.WriteRune(rune(n))
	l.pos += digits
	return ""
}

func (l *Lexer) scanOperator() Token {
	start := l.pos
	rest := l.source[l.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op.text) {
			l.pos += len(op.text)
			return Token{Kind: op.kind, Start: start, End: l.pos}
		}
	}
	_, size := utf8.DecodeRuneInString(rest)
	l.pos += size
	return Token{Kind: TokError, Start: start, End: l.pos, Value: "unexpected character"}
}

// ----------------------------------------------------------------------------
// Character Classification
// ----------------------------------------------------------------------------

// ASCII lookup tables for fast character classification (esbuild-style optimization)
var (
	asciiIdentStart    [128]bool
	asciiIdentContinue [128]bool
)

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// isIdentStartSlow handles Unicode identifier start characters.
func isIdentStartSlow(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.Is(unicode.Other_ID_Start, r)
}

// isIdentContinueSlow handles Unicode identifier continuation characters.
func isIdentContinueSlow(r rune) bool {
	return isIdentStartSlow(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) ||
		unicode.Is(unicode.Mc, r) || unicode.Is(unicode.Pc, r) || r == '\u200c' || r == '\u200d'
}

// IsIdentifier reports whether name is a valid identifier that is not a
// keyword or reserved word.
func IsIdentifier(name string) bool {
	if name == "" || Keywords[name] != 0 || ReservedWords[name] {
		return false
	}
	for i, r := range name {
		if i == 0 {
			if !isIdentStartSlow(r) {
				return false
			}
		} else if !isIdentContinueSlow(r) {
			return false
		}
	}
	return true
}
