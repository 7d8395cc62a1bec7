package lexer

import (
	"fmt"
	"strconv"
)

// Kind represents the type of token identified by the scanner.
type Kind uint8

const (
	KindEOS    Kind = iota // end of statement
	KindIndent             // indentation marker, Value holds the unit count
	KindName
	KindNumber
	KindString

	// operators
	KindAssign     // =
	KindEq         // ==
	KindNotEq      // != or <>
	KindColon      // :
	KindComma      // ,
	KindDot        // .
	KindPlus       // +
	KindMinus      // -
	KindStar       // *
	KindPower      // **
	KindSlash      // /
	KindPercent    // %
	KindLess       // <
	KindLessEq     // <=
	KindShiftLeft  // <<
	KindGreater    // >
	KindGreaterEq  // >=
	KindShiftRight // >>
	KindBitAnd     // &
	KindBitOr      // |
	KindBitXor     // ^
	KindLParen     // (
	KindRParen     // )
	KindLBracket   // [
	KindRBracket   // ]
	KindLBrace     // {
	KindRBrace     // }

	// keywords
	KindIf
	KindElif
	KindElse
	KindWhile
	KindFor
	KindIn
	KindDef
	KindReturn
	KindLambda
	KindImport
	KindAnd
	KindOr
	KindNot
	KindIs
)

var kindNames = [...]string{
	KindEOS:        "EOS",
	KindIndent:     "INDENT",
	KindName:       "NAME",
	KindNumber:     "NUMBER",
	KindString:     "STRING",
	KindAssign:     "=",
	KindEq:         "==",
	KindNotEq:      "!=",
	KindColon:      ":",
	KindComma:      ",",
	KindDot:        ".",
	KindPlus:       "+",
	KindMinus:      "-",
	KindStar:       "*",
	KindPower:      "**",
	KindSlash:      "/",
	KindPercent:    "%",
	KindLess:       "<",
	KindLessEq:     "<=",
	KindShiftLeft:  "<<",
	KindGreater:    ">",
	KindGreaterEq:  ">=",
	KindShiftRight: ">>",
	KindBitAnd:     "&",
	KindBitOr:      "|",
	KindBitXor:     "^",
	KindLParen:     "(",
	KindRParen:     ")",
	KindLBracket:   "[",
	KindRBracket:   "]",
	KindLBrace:     "{",
	KindRBrace:     "}",
	KindIf:         "if",
	KindElif:       "elif",
	KindElse:       "else",
	KindWhile:      "while",
	KindFor:        "for",
	KindIn:         "in",
	KindDef:        "def",
	KindReturn:     "return",
	KindLambda:     "lambda",
	KindImport:     "import",
	KindAnd:        "and",
	KindOr:         "or",
	KindNot:        "not",
	KindIs:         "is",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// keywords are matched case-insensitively against lowered identifiers.
var keywords = map[string]Kind{
	"if":     KindIf,
	"elif":   KindElif,
	"else":   KindElse,
	"while":  KindWhile,
	"for":    KindFor,
	"in":     KindIn,
	"def":    KindDef,
	"return": KindReturn,
	"lambda": KindLambda,
	"import": KindImport,
	"and":    KindAnd,
	"or":     KindOr,
	"not":    KindNot,
	"is":     KindIs,
}

// Token represents a lexical unit. Value carries the lexeme for names,
// numbers and strings and the unit count for indentation markers.
type Token struct {
	Kind  Kind
	Value string
	Line  int
}

// Indent returns the indentation count of a KindIndent token.
func (t Token) Indent() int {
	n, _ := strconv.Atoi(t.Value)
	return n
}

func (t Token) String() string {
	switch t.Kind {
	case KindName, KindNumber:
		return t.Value
	case KindString:
		return strconv.Quote(t.Value)
	case KindIndent:
		return "INDENT(" + t.Value + ")"
	}
	return t.Kind.String()
}
