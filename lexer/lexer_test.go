package lexer

import (
	"testing"

	"github.com/retl-io/retl/token"
)

func tokensOf(t *testing.T, input string) []token.Item {
	t.Helper()
	l := New(input)
	var items []token.Item
	for {
		it := l.Next()
		items = append(items, it)
		if it.Type == token.EOF {
			break
		}
	}
	return items
}

func TestLexerOperators(t *testing.T) {
	cases := []struct {
		input string
		want  []token.Token
	}{
		{"<=>", []token.Token{token.NULLSAFE, token.EOF}},
		{"<=", []token.Token{token.LTE, token.EOF}},
		{"<", []token.Token{token.LT, token.EOF}},
		{"<<", []token.Token{token.LSHIFT, token.EOF}},
		{">>>", []token.Token{token.URSHIFT, token.EOF}},
		{">>", []token.Token{token.RSHIFT, token.EOF}},
		{">", []token.Token{token.GT, token.EOF}},
		{"||", []token.Token{token.CONCAT, token.EOF}},
	}
	for _, c := range cases {
		items := tokensOf(t, c.input)
		if len(items) != len(c.want) {
			t.Fatalf("%q: got %d tokens, want %d", c.input, len(items), len(c.want))
		}
		for i, it := range items {
			if it.Type != c.want[i] {
				t.Errorf("%q: token %d = %s, want %s", c.input, i, it.Type, c.want[i])
			}
		}
	}
}

func TestLexerNestedBlockComments(t *testing.T) {
	items := tokensOf(t, "/* outer /* inner */ still outer */ 1")
	if len(items) != 3 {
		t.Fatalf("got %d tokens, want [COMMENT, INT, EOF]: %v", len(items), items)
	}
	if items[0].Type != token.COMMENT || items[0].Value != "/* outer /* inner */ still outer */" {
		t.Fatalf("got %+v, want the whole nested comment as one COMMENT", items[0])
	}
	if items[1].Type != token.INT || items[1].Value != "1" {
		t.Fatalf("got %+v, want INT 1", items[1])
	}
}

func TestLexerNumberSuffixes(t *testing.T) {
	cases := []struct {
		input    string
		wantType token.Token
		wantVal  string
	}{
		{"42", token.INT, "42"},
		{"42L", token.INT, "42L"},
		{"42l", token.INT, "42l"},
		{"3.14", token.FLOAT, "3.14"},
		{"3.14F", token.FLOAT, "3.14F"},
		{"3.14D", token.FLOAT, "3.14D"},
		{"5F", token.FLOAT, "5F"},
		{"5D", token.FLOAT, "5D"},
	}
	for _, c := range cases {
		items := tokensOf(t, c.input)
		if items[0].Type != c.wantType || items[0].Value != c.wantVal {
			t.Errorf("%q: got %s %q, want %s %q", c.input, items[0].Type, items[0].Value, c.wantType, c.wantVal)
		}
	}
}

func TestLexerBacktickIdentifier(t *testing.T) {
	items := tokensOf(t, "`my col`")
	if items[0].Type != token.IDENT || items[0].Value != "my col" {
		t.Fatalf("got %+v", items[0])
	}
}

func TestLexerStringEscapes(t *testing.T) {
	items := tokensOf(t, `'a\nb'`)
	if items[0].Type != token.STRING {
		t.Fatalf("got %+v", items[0])
	}
}

func TestLexerLineComment(t *testing.T) {
	items := tokensOf(t, "1 -- comment\n2")
	var vals []string
	for _, it := range items {
		if it.Type == token.INT {
			vals = append(vals, it.Value)
		}
	}
	if len(vals) != 2 || vals[0] != "1" || vals[1] != "2" {
		t.Fatalf("got %v", vals)
	}
}

func TestLexerPool(t *testing.T) {
	l := Get("select 1")
	it := l.Next()
	if it.Type != token.SELECT {
		t.Fatalf("got %s", it.Type)
	}
	Put(l)
}
