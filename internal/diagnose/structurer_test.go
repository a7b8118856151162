package diagnose_test

import (
	"strings"
	"testing"

	"github.com/krishimitra/krishi-agent/internal/diagnose"
)

const structuredReply = "**1. What is Wrong with Your Plant?**\nLeaf Rust\n" +
	"**2. Why I Think So (Looking at the Photo)**\nYellow spots\n" +
	"**3. Simple, Cheap Fix**\nUse ash"

func TestStructureBoldNumberedHeaders(t *testing.T) {
	d := diagnose.Structure(structuredReply, "en")

	if d.Name != "Leaf Rust" {
		t.Fatalf("problem: expected %q, got %q", "Leaf Rust", d.Name)
	}
	if len(d.Symptoms) != 1 || d.Symptoms[0] != "Yellow spots" {
		t.Fatalf("symptoms: expected [Yellow spots], got %v", d.Symptoms)
	}
	if d.Solution != "Use ash" {
		t.Fatalf("solution: expected %q, got %q", "Use ash", d.Solution)
	}
	if d.Confidence != 90 {
		t.Fatalf("confidence is a fixed default of 90, got %d", d.Confidence)
	}
	if d.Severity != "Medium" {
		t.Fatalf("severity is a fixed default of Medium, got %q", d.Severity)
	}
	if d.RawResponse != structuredReply {
		t.Fatal("raw response must be preserved verbatim")
	}
}

func TestStructureBareHeaders(t *testing.T) {
	raw := "What is Wrong with Your Plant?\nToo Much Water\n" +
		"Why I Think So (Looking at the Photo)\nThe lower leaves are turning yellow\n" +
		"Simple, Cheap Fix\nStop watering for three days"

	d := diagnose.Structure(raw, "en")

	if d.Name != "Too Much Water" {
		t.Fatalf("expected bare-header problem match, got %q", d.Name)
	}
	if d.Solution != "Stop watering for three days" {
		t.Fatalf("expected bare-header solution match, got %q", d.Solution)
	}
}

func TestStructureFirstPatternWins(t *testing.T) {
	// Bold headers present: the specific pattern must win, so the capture
	// must not drag in the next section's header text.
	d := diagnose.Structure(structuredReply, "en")
	if strings.Contains(d.Name, "Why I Think So") {
		t.Fatalf("problem capture leaked into the next section: %q", d.Name)
	}
}

func TestStructurePositionalFallback(t *testing.T) {
	raw := strings.Repeat("the leaves look pale and the soil is very dry ", 11) // ~506 chars
	d := diagnose.Structure(raw, "en")

	head := []rune(raw)[:200]
	wantProblem := diagnose.Clean(string(head))
	if d.Name != wantProblem {
		t.Fatalf("fallback problem should be the cleaned first 200 chars\nwant %q\ngot  %q", wantProblem, d.Name)
	}

	wantSolution := diagnose.Clean(string([]rune(raw)[200:]))
	if d.Solution != wantSolution {
		t.Fatalf("fallback solution should be the cleaned remainder\nwant %q\ngot  %q", wantSolution, d.Solution)
	}
	if len(d.Symptoms) != 1 || d.Symptoms[0] == "" {
		t.Fatalf("fallback must echo the head as the symptom, got %v", d.Symptoms)
	}
}

func TestStructureEmptyInputNeverEmptyFields(t *testing.T) {
	d := diagnose.Structure("", "en")

	if d.Name == "" || d.Solution == "" || d.Description == "" {
		t.Fatalf("all fields must have fallback values: %+v", d)
	}
	if len(d.Symptoms) != 1 || d.Symptoms[0] == "" {
		t.Fatalf("symptoms must have a fallback value: %v", d.Symptoms)
	}
}

func TestStructureHindiLocaleDefaults(t *testing.T) {
	d := diagnose.Structure("", "hi")
	if d.Severity != "मध्यम" {
		t.Fatalf("expected Hindi severity default, got %q", d.Severity)
	}
	if d.Name != "पौधे की समस्या" {
		t.Fatalf("expected Hindi default name, got %q", d.Name)
	}
}

func TestStructureUnknownLocaleFallsBackToEnglish(t *testing.T) {
	d := diagnose.Structure("", "ta")
	if d.Severity != "Medium" {
		t.Fatalf("unknown locale should use English defaults, got %q", d.Severity)
	}
}

func TestClean(t *testing.T) {
	cases := []struct{ in, want string }{
		{"**Leaf Rust.**", "Leaf Rust"},
		{"too much   water", "too much water"},
		{"iron/zinc lack", "iron zinc lack"},
		{"wait --- two days", "wait  two days"},
		{`"neem water"`, "neem water"},
		{"  spots, holes; and rot:  ", "spots holes and rot"},
		{"", ""},
	}
	for _, c := range cases {
		if got := diagnose.Clean(c.in); got != c.want {
			t.Errorf("Clean(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
