// pkg/schema/tokens.go
package schema

import (
	"strings"

	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

type tokenKind int

const (
	tokIdent  tokenKind = iota
	tokAssign           // =
	tokString           // quoted literal, text holds the unquoted value
	tokSep              // , or ;
	tokDash             // - (shorthand for skip)
	tokOther
)

type token struct {
	kind tokenKind
	text string
}

// parsly token codes; each maps onto a tokenKind in tokenize.
const (
	whitespaceCode int = iota
	identCode
	assignCode
	sepCode
	dashCode
	stringCode
	unterminatedCode
	anyCode
)

var (
	whitespaceMatcher   = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	identMatcher        = parsly.NewToken(identCode, "Identifier", &identifier{})
	assignMatcher       = parsly.NewToken(assignCode, "Assign", matcher.NewByte('='))
	sepMatcher          = parsly.NewToken(sepCode, "Separator", matcher.NewFragments([]byte(","), []byte(";")))
	dashMatcher         = parsly.NewToken(dashCode, "Dash", matcher.NewByte('-'))
	doubleQuoteMatcher  = parsly.NewToken(stringCode, "String", matcher.NewBlock('"', '"', '\\'))
	singleQuoteMatcher  = parsly.NewToken(stringCode, "String", matcher.NewBlock('\'', '\'', '\\'))
	unterminatedMatcher = parsly.NewToken(unterminatedCode, "Unterminated string", &unterminated{})
	anyMatcher          = parsly.NewToken(anyCode, "Any", &anyByte{})
)

// tokenize splits an annotation into tokens. It never fails: bytes it does
// not understand, and unterminated literals, become tokOther so the
// attribute scan can decide what to do with them.
func tokenize(s string) []token {
	var toks []token
	cursor := parsly.NewCursor("", []byte(s), 0)
	for cursor.Pos < cursor.InputSize {
		matched := cursor.MatchAfterOptional(whitespaceMatcher,
			identMatcher, assignMatcher, sepMatcher, dashMatcher,
			doubleQuoteMatcher, singleQuoteMatcher, unterminatedMatcher, anyMatcher)
		switch matched.Code {
		case parsly.EOF:
			return toks
		case identCode:
			toks = append(toks, token{kind: tokIdent, text: matched.Text(cursor)})
		case assignCode:
			toks = append(toks, token{kind: tokAssign, text: "="})
		case sepCode:
			toks = append(toks, token{kind: tokSep, text: matched.Text(cursor)})
		case dashCode:
			toks = append(toks, token{kind: tokDash, text: "-"})
		case stringCode:
			toks = append(toks, token{kind: tokString, text: unquote(matched.Text(cursor))})
		default:
			toks = append(toks, token{kind: tokOther, text: matched.Text(cursor)})
		}
	}
	return toks
}

// unquote strips the delimiters of a matched literal and resolves
// backslash escapes: a backslash keeps the byte that follows it.
func unquote(lit string) string {
	body := lit[1 : len(lit)-1]
	if !strings.Contains(body, `\`) {
		return body
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String()
}

// identifier matches a letter or underscore followed by letters, digits
// and underscores. Bytes above 0x7f are accepted so UTF-8 names stay whole.
type identifier struct{}

func (m *identifier) Match(cursor *parsly.Cursor) (matched int) {
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		c := cursor.Input[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= 0x80:
		case c >= '0' && c <= '9' && matched > 0:
		default:
			return matched
		}
		matched++
	}
	return matched
}

// unterminated matches a quote that the block matchers could not close; it
// swallows the rest of the input.
type unterminated struct{}

func (m *unterminated) Match(cursor *parsly.Cursor) (matched int) {
	if cursor.Pos < cursor.InputSize {
		if c := cursor.Input[cursor.Pos]; c == '"' || c == '\'' {
			return cursor.InputSize - cursor.Pos
		}
	}
	return 0
}

type anyByte struct{}

func (m *anyByte) Match(cursor *parsly.Cursor) (matched int) {
	if cursor.Pos < cursor.InputSize {
		return 1
	}
	return 0
}
