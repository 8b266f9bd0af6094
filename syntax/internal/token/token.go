package token

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type Type int

const (
	EOF Type = iota
	Name
	Number
	String
	Punct
)

func (t Type) String() string {
	switch t {
	case EOF:
		return "end of input"
	case Name:
		return "name"
	case Number:
		return "number"
	case String:
		return "string"
	case Punct:
		return "punctuator"
	}
	return "unknown"
}

type Token struct {
	Value string
	Type  Type
	Line  int
	// Newline reports a line terminator between this token and the previous one.
	Newline bool
}

// punctuators ordered longest first so the first prefix match wins.
var punctuators = []string{
	">>>=",
	"===", "!==", "**=", "<<=", ">>=", ">>>",
	"==", "!=", "<=", ">=", "&&", "||", "++", "--", "+=", "-=", "*=", "/=",
	"%=", "&=", "|=", "^=", "<<", ">>", "**",
	"{", "}", "(", ")", "[", "]", ";", ",", "<", ">", "+", "-", "*", "/",
	"%", "&", "|", "^", "!", "~", "?", ":", "=", ".",
}

// Tokenize splits source text into tokens. The result always ends with an
// EOF token.
func Tokenize(input string) ([]Token, error) {
	var tokens []Token
	line := 1
	newline := false
	runes := []rune(input)

	emit := func(value string, typ Type) {
		tokens = append(tokens, Token{Value: value, Type: typ, Line: line, Newline: newline})
		newline = false
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' {
			line++
			newline = true
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}

		// Line comment
		if r == '/' && i+1 < len(runes) && runes[i+1] == '/' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			i--
			continue
		}

		// Block comment
		if r == '/' && i+1 < len(runes) && runes[i+1] == '*' {
			startLine := line
			i += 2
			for i < len(runes) && !(runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/') {
				if runes[i] == '\n' {
					line++
					newline = true
				}
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("line %d: unterminated comment", startLine)
			}
			i++
			continue
		}

		// String literal
		if r == '"' || r == '\'' {
			var b strings.Builder
			i++
			for i < len(runes) && runes[i] != r {
				c := runes[i]
				if c == '\n' {
					return nil, fmt.Errorf("line %d: unterminated string", line)
				}
				if c == '\\' && i+1 < len(runes) {
					i++
					if runes[i] == '\n' {
						line++
					}
					n, err := unescape(runes, &i)
					if err != nil {
						return nil, fmt.Errorf("line %d: %w", line, err)
					}
					b.WriteString(n)
					i++
					continue
				}
				b.WriteRune(c)
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("line %d: unterminated string", line)
			}
			emit(b.String(), String)
			continue
		}

		// Number
		if unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])) {
			start := i
			if r == '0' && i+1 < len(runes) && (runes[i+1] == 'x' || runes[i+1] == 'X') {
				i += 2
				for i < len(runes) && isHex(runes[i]) {
					i++
				}
			} else {
				for i < len(runes) {
					c := runes[i]
					if unicode.IsDigit(c) || c == '.' || c == 'e' || c == 'E' ||
						((c == '-' || c == '+') && (runes[i-1] == 'e' || runes[i-1] == 'E')) {
						i++
					} else {
						break
					}
				}
			}
			emit(string(runes[start:i]), Number)
			i--
			continue
		}

		// Identifier or keyword
		if isIdentStart(r) {
			start := i
			for i < len(runes) && isIdentPart(runes[i]) {
				i++
			}
			emit(string(runes[start:i]), Name)
			i--
			continue
		}

		matched := false
		rest := string(runes[i:min(i+4, len(runes))])
		for _, p := range punctuators {
			if strings.HasPrefix(rest, p) {
				emit(p, Punct)
				i += len(p) - 1
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("line %d: unexpected character %q", line, r)
		}
	}

	emit("", EOF)
	return tokens, nil
}

// ParseNumber converts a number token to its value.
func ParseNumber(s string) (float64, error) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return float64(v), err
	}
	return strconv.ParseFloat(s, 64)
}

func unescape(runes []rune, i *int) (string, error) {
	switch c := runes[*i]; c {
	case 'n':
		return "\n", nil
	case 't':
		return "\t", nil
	case 'r':
		return "\r", nil
	case 'b':
		return "\b", nil
	case 'f':
		return "\f", nil
	case 'v':
		return "\v", nil
	case '0':
		return "\x00", nil
	case 'x', 'u':
		width := 2
		if c == 'u' {
			width = 4
		}
		if *i+width >= len(runes) {
			return "", fmt.Errorf("invalid escape \\%c", c)
		}
		v, err := strconv.ParseUint(string(runes[*i+1:*i+1+width]), 16, 32)
		if err != nil {
			return "", fmt.Errorf("invalid escape \\%c", c)
		}
		*i += width
		return string(rune(v)), nil
	case '\n':
		return "", nil
	default:
		return string(c), nil
	}
}

func isHex(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isIdentStart(r rune) bool {
	return r == '$' || r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
