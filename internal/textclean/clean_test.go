package textclean

import (
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "empty input",
			input:  "",
			expect: "",
		},
		{
			name:   "strips tags",
			input:  "<div><h1>Senior Go Engineer</h1><p>Remote</p></div>",
			expect: "Senior Go EngineerRemote",
		},
		{
			name:   "strips urls",
			input:  "Apply at https://jobs.example.com/apply?id=42 today",
			expect: "Apply at today",
		},
		{
			name:   "drops punctuation and collapses spaces",
			input:  "  Skills:   Go,   Kubernetes & AWS!  ",
			expect: "Skills Go Kubernetes AWS",
		},
		{
			name:   "control whitespace is removed not replaced",
			input:  "Skills:\n\tGo",
			expect: "SkillsGo",
		},
		{
			name:   "drops non ascii letters",
			input:  "Café · Zürich",
			expect: "Caf Zrich",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Clean(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestCleanProperties(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"   ",
		"<html><body><script>var a = 1;</script>Jobs at ACME</body></html>",
		"See http://example.com and https://example.org/path#frag for more",
		"Line one\r\nLine two\n\n\nLine   three",
		"tabs\tand non-breaking spaces",
		"<<nested <tags>>> 100% remote, $120k-$150k",
		"Emoji 🚀 rocket and CJK 工程师",
	}

	for _, input := range inputs {
		once := Clean(input)

		if twice := Clean(once); twice != once {
			t.Fatalf("clean is not idempotent for %q: %q then %q", input, once, twice)
		}

		for _, r := range once {
			isAllowed := r == ' ' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			if !isAllowed {
				t.Fatalf("unexpected rune %q in %q", r, once)
			}
		}

		if strings.Contains(once, "  ") {
			t.Fatalf("double space in %q", once)
		}

		if strings.TrimSpace(once) != once {
			t.Fatalf("surrounding whitespace in %q", once)
		}
	}
}
