// Package command splits a build command template into leading environment
// assignments and the executable command line.
package command

import (
	"regexp"
	"strings"
	"unicode"
)

var envSetter = regexp.MustCompile(`^(\w+)=(?:'(.*)'|"(.*)"|(.*))$`)

// Parse scans tokens from the start of cmd. Tokens shaped like NAME=value
// (value bare, single- or double-quoted) become env assignments; the first
// token that is not an assignment starts the command, which is returned
// with its tokens joined by single spaces.
func Parse(cmd string) (map[string]string, string) {
	env := map[string]string{}
	tokens := Tokenize(cmd)

	for i, tok := range tokens {
		m := envSetter.FindStringSubmatch(tok)
		if m == nil {
			return env, strings.Join(tokens[i:], " ")
		}
		env[m[1]] = unquoted(tok, m)
	}
	return env, ""
}

func unquoted(tok string, m []string) string {
	value := tok[len(m[1])+1:]
	switch {
	case strings.HasPrefix(value, "'") && len(value) >= 2 && strings.HasSuffix(value, "'"):
		return m[2]
	case strings.HasPrefix(value, `"`) && len(value) >= 2 && strings.HasSuffix(value, `"`):
		return m[3]
	default:
		return m[4]
	}
}

// Tokenize splits s on whitespace, keeping quoted spans (including the
// quotes) inside a single token: `-ldflags="-s -w"` stays one token.
func Tokenize(s string) []string {
	var (
		tokens []string
		cur    strings.Builder
		quote  rune
		inTok  bool
	)
	for _, r := range s {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
			inTok = true
			cur.WriteRune(r)
		case unicode.IsSpace(r):
			if inTok {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inTok = false
			}
		default:
			inTok = true
			cur.WriteRune(r)
		}
	}
	if inTok {
		tokens = append(tokens, cur.String())
	}
	return tokens
}
