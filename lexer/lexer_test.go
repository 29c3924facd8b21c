package lexer

import (
	"testing"

	"loxvm/token"
)

func TestNextTokenPunctuatorsAndOperators(t *testing.T) {
	input := `(){},.-+;*/ ! != = == < <= > >=`

	expected := []token.TokenType{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.COMMA,
		token.DOT, token.MINUS, token.PLUS, token.SEMICOLON, token.STAR,
		token.SLASH, token.BANG, token.BANG_EQUAL, token.EQUAL, token.EQUAL_EQUAL,
		token.LESS, token.LESS_EQUAL, token.GREATER, token.GREATER_EQUAL,
		token.EOF,
	}

	s := New(input)
	for i, want := range expected {
		got := s.NextToken()
		if got.Type != want {
			t.Fatalf("token %d: got %q, want %q", i, got.Type, want)
		}
	}
}

func TestNextTokenKeywordsAndIdentifiers(t *testing.T) {
	input := `and class else false for fun if nil or print return super this true var while foobar _ignore123`

	expected := []struct {
		typ     token.TokenType
		literal string
	}{
		{token.AND, "and"},
		{token.CLASS, "class"},
		{token.ELSE, "else"},
		{token.FALSE, "false"},
		{token.FOR, "for"},
		{token.FUN, "fun"},
		{token.IF, "if"},
		{token.NIL, "nil"},
		{token.OR, "or"},
		{token.PRINT, "print"},
		{token.RETURN, "return"},
		{token.SUPER, "super"},
		{token.THIS, "this"},
		{token.TRUE, "true"},
		{token.VAR, "var"},
		{token.WHILE, "while"},
		{token.IDENT, "foobar"},
		{token.IDENT, "_ignore123"},
	}

	s := New(input)
	for i, want := range expected {
		got := s.NextToken()
		if got.Type != want.typ || got.Literal != want.literal {
			t.Fatalf("token %d: got %q %q, want %q %q", i, got.Type, got.Literal, want.typ, want.literal)
		}
	}
}

func TestNextTokenNumbers(t *testing.T) {
	tests := []string{"0", "123", "3.14", "0.5"}
	for _, src := range tests {
		s := New(src)
		tok := s.NextToken()
		if tok.Type != token.NUMBER || tok.Literal != src {
			t.Fatalf("source %q: got %q %q", src, tok.Type, tok.Literal)
		}
	}
}

func TestNextTokenString(t *testing.T) {
	s := New(`"hello world"`)
	tok := s.NextToken()
	if tok.Type != token.STRING || tok.Literal != "hello world" {
		t.Fatalf("got %q %q, want STRING %q", tok.Type, tok.Literal, "hello world")
	}
}

func TestNextTokenUnterminatedString(t *testing.T) {
	s := New(`"hello`)
	tok := s.NextToken()
	if tok.Type != token.ERROR || tok.Literal != "Unterminated string." {
		t.Fatalf("got %q %q", tok.Type, tok.Literal)
	}
}

func TestNextTokenUnexpectedCharacter(t *testing.T) {
	s := New(`@`)
	tok := s.NextToken()
	if tok.Type != token.ERROR || tok.Literal != "Unexpected character." {
		t.Fatalf("got %q %q", tok.Type, tok.Literal)
	}
}

func TestNextTokenSkipsCommentsAndWhitespace(t *testing.T) {
	input := "  // a comment\n\tvar x = 1; // trailing\n"
	s := New(input)

	want := []token.TokenType{token.VAR, token.IDENT, token.EQUAL, token.NUMBER, token.SEMICOLON, token.EOF}
	for i, typ := range want {
		got := s.NextToken()
		if got.Type != typ {
			t.Fatalf("token %d: got %q, want %q", i, got.Type, typ)
		}
	}
}

func TestNextTokenTracksLineNumbers(t *testing.T) {
	input := "var a = 1;\nvar b = 2;\n"
	s := New(input)

	firstLine := s.NextToken().Line // var
	if firstLine != 1 {
		t.Fatalf("first token line = %d, want 1", firstLine)
	}

	for {
		tok := s.NextToken()
		if tok.Type == token.VAR {
			if tok.Line != 2 {
				t.Fatalf("second var line = %d, want 2", tok.Line)
			}
			return
		}
		if tok.Type == token.EOF {
			t.Fatal("never saw second var")
		}
	}
}

func TestNextTokenEmptySource(t *testing.T) {
	s := New("")
	tok := s.NextToken()
	if tok.Type != token.EOF {
		t.Fatalf("got %q, want EOF", tok.Type)
	}
}
