package core

import "testing"

func TestExtractResponse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"tagged", "blah <response> Hi there! </response> blah", "Hi there!"},
		{"no tags", "just a plain reply", "just a plain reply"},
		{"multiline body", "<conversation_analysis>\nthinking\n</conversation_analysis>\n<response>\nline one\nline two\n</response>", "line one\nline two"},
		{"first block wins", "<response>a</response><response>b</response>", "a"},
		{"case sensitive", "<Response>hey</Response>", "<Response>hey</Response>"},
		{"unterminated", "<response>hey", "<response>hey"},
		{"blank body falls back", "x <response>   </response> y", "x <response>   </response> y"},
		{"empty input", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractResponse(tc.raw); got != tc.want {
				t.Fatalf("ExtractResponse(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestExtractResponseIdempotent(t *testing.T) {
	inputs := []string{
		"blah <response> Hi there! </response> blah",
		"no tags here",
		"<response>\n  spaced  \n</response>",
		"<response> </response>",
	}
	for _, in := range inputs {
		once := ExtractResponse(in)
		if twice := ExtractResponse(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
