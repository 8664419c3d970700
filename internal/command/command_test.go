package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantEnv map[string]string
		wantCmd string
	}{
		{
			name:    "leading assignments",
			in:      "CGO_ENABLED=1 GOOS=linux go build -o x y",
			wantEnv: map[string]string{"CGO_ENABLED": "1", "GOOS": "linux"},
			wantCmd: "go build -o x y",
		},
		{
			name:    "single quoted value with space",
			in:      "FOO='a b' cmd arg",
			wantEnv: map[string]string{"FOO": "a b"},
			wantCmd: "cmd arg",
		},
		{
			name:    "double quoted value",
			in:      `FOO="x y z" BAR=1 run`,
			wantEnv: map[string]string{"FOO": "x y z", "BAR": "1"},
			wantCmd: "run",
		},
		{
			name:    "default template keeps quoted flag",
			in:      `GOOS=linux go build -ldflags="-s -w" -o .bin/f1 functions/f1/main.go`,
			wantEnv: map[string]string{"GOOS": "linux"},
			wantCmd: `go build -ldflags="-s -w" -o .bin/f1 functions/f1/main.go`,
		},
		{
			name:    "assignments after command are arguments",
			in:      "go build A=1",
			wantEnv: map[string]string{},
			wantCmd: "go build A=1",
		},
		{
			name:    "extra whitespace collapses",
			in:      "  GOOS=linux   go    build  ",
			wantEnv: map[string]string{"GOOS": "linux"},
			wantCmd: "go build",
		},
		{
			name:    "empty value",
			in:      "EMPTY= go build",
			wantEnv: map[string]string{"EMPTY": ""},
			wantCmd: "go build",
		},
		{
			name:    "only assignments",
			in:      "A=1 B=2",
			wantEnv: map[string]string{"A": "1", "B": "2"},
			wantCmd: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, cmd := Parse(tt.in)
			assert.Equal(t, tt.wantEnv, env)
			assert.Equal(t, tt.wantCmd, cmd)
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"go", "build", `-ldflags="-s -w"`, "-o", "out"},
		Tokenize(`go build -ldflags="-s -w" -o out`))
	assert.Empty(t, Tokenize("   "))
}

func TestParseRoundTrip(t *testing.T) {
	name := rapid.StringMatching(`[A-Z_][A-Z0-9_]{0,8}`)
	value := rapid.StringMatching(`[a-z0-9./-]{0,10}`)
	word := rapid.StringMatching(`[a-z-][a-z0-9./-]{0,10}`)

	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfNDistinct(name, 0, 5, rapid.ID[string]).Draw(t, "names")
		words := rapid.SliceOfN(word, 1, 6).Draw(t, "words")

		want := map[string]string{}
		var parts []string
		for _, n := range names {
			v := value.Draw(t, "value")
			want[n] = v
			parts = append(parts, n+"="+v)
		}
		parts = append(parts, words...)

		env, cmd := Parse(strings.Join(parts, " "))
		require.Equal(t, want, env)
		require.Equal(t, strings.Join(words, " "), cmd)
	})
}
