package rfc2047

import "testing"

func TestDecodeWordsBasic(t *testing.T) {
	got := DecodeWords("Subject: =?UTF-8?B?w6k=?=")
	want := "Subject: é"

	if got != want {
		t.Fatalf("DecodeWords() = %q, want %q", got, want)
	}
}

func TestDecodeWordsPassthrough(t *testing.T) {
	in := "no encoded words here"
	if got := DecodeWords(in); got != in {
		t.Fatalf("DecodeWords() = %q, want unchanged %q", got, in)
	}
}

func TestDecodeWordsAdjacentSameCharsetRun(t *testing.T) {
	// Two adjacent base64 encoded-words sharing a charset, separated only by
	// whitespace, decode as one run: the whitespace between them is dropped.
	got := DecodeWords("=?UTF-8?B?w6k=?= =?UTF-8?B?w6k=?=")
	want := "éé"

	if got != want {
		t.Fatalf("DecodeWords() = %q, want %q", got, want)
	}
}

func TestDecodeWordsUnknownEncodingPassesThrough(t *testing.T) {
	in := "=?UTF-8?X?w6k=?="
	if got := DecodeWords(in); got != in {
		t.Fatalf("DecodeWords() = %q, want unchanged %q", got, in)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, s := range []string{"hello", "café", "日本語", "a=b?c_d"} {
		word := EncodeWord([]byte(s))

		got := DecodeWords(word)
		if got != s {
			t.Fatalf("round trip of %q: encoded %q, decoded %q", s, word, got)
		}
	}
}
