package markov

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

func TestParseMode(t *testing.T) {
	testCases := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"word", ModeWord, false},
		{" Char ", ModeChar, false},
		{"WORD", ModeWord, false},
		{"sentence", "", true},
		{"", "", true},
	}
	for _, tc := range testCases {
		got, err := ParseMode(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownMode) {
				t.Errorf("ParseMode(%q) error = %v, want ErrUnknownMode", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestNewDefaultTokenizerUnknownMode(t *testing.T) {
	if _, err := NewDefaultTokenizer(Mode("bogus")); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
}

func TestTokenizerSplitAndSeparator(t *testing.T) {
	word := mustTokenizer(t, ModeWord)
	if got := word.Split("  one\ttwo  three "); !reflect.DeepEqual(got, []string{"one", "two", "three"}) {
		t.Errorf("word Split = %q", got)
	}
	if word.Separator() != " " {
		t.Errorf("word Separator = %q, want a space", word.Separator())
	}

	char := mustTokenizer(t, ModeChar)
	if got := char.Split("hé y"); !reflect.DeepEqual(got, []string{"h", "é", " ", "y"}) {
		t.Errorf("char Split = %q", got)
	}
	if char.Separator() != "" {
		t.Errorf("char Separator = %q, want empty", char.Separator())
	}

	custom := mustTokenizer(t, ModeWord, WithSeparator("_"))
	if custom.Separator() != "_" {
		t.Errorf("WithSeparator not applied, got %q", custom.Separator())
	}
}

func TestStreamTokenizerLines(t *testing.T) {
	stream := mustTokenizer(t, ModeWord).NewStream(strings.NewReader("a b\n\nc\n"))

	want := [][]string{{"a", "b"}, {}, {"c"}}
	for i, w := range want {
		got, err := stream.Next()
		if err != nil {
			t.Fatalf("line %d: unexpected error %v", i, err)
		}
		if len(got) != len(w) || (len(w) > 0 && !reflect.DeepEqual(got, w)) {
			t.Errorf("line %d: got %q, want %q", i, got, w)
		}
	}
	if _, err := stream.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF at end of stream, got %v", err)
	}
}
