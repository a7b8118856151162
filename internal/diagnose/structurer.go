// Package diagnose converts a free-form plant-analysis reply into a
// fixed-shape record. The model is asked for three labeled sections, but
// it does not always comply, so extraction is an ordered cascade of
// patterns per field, from the exact bold-numbered headers down to bare
// header phrases, with a positional split as the last resort. Structure
// never fails: every field has a defined fallback.
package diagnose

import (
	"regexp"
	"strings"
)

// Diagnosis is fully populated on every call; no field is ever left
// empty. Confidence and severity are fixed defaults, not derived from the
// text: the model is not asked to emit them in a verifiable way.
type Diagnosis struct {
	Name        string   `json:"name"`
	Confidence  int      `json:"confidence"`
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
	Symptoms    []string `json:"symptoms"`
	Solution    string   `json:"solution"`
	RawResponse string   `json:"rawResponse"`
}

const (
	defaultConfidence = 90

	// Positional fallback split points, in runes.
	problemHeadLen = 200
	symptomHeadLen = 150
)

type field int

const (
	fieldProblem field = iota
	fieldSymptoms
	fieldSolution
)

// extractionRules is the ordered pattern list per field, most specific
// first. The first pattern that matches wins and later ones are skipped.
// New model output shapes are handled by adding a pattern here, not by
// touching control flow.
var extractionRules = []struct {
	field    field
	patterns []*regexp.Regexp
}{
	{fieldProblem, []*regexp.Regexp{
		regexp.MustCompile(`(?is)\*\*1\.\s*what is wrong with your plant\?\*\*\s*(.*?)(?:\*\*2\.|\z)`),
		regexp.MustCompile(`(?is)1\.\s*what is wrong with your plant\?\s*(.*?)(?:2\.|\z)`),
		regexp.MustCompile(`(?is)what is wrong with your plant\?\s*(.*?)(?:why i think so|\z)`),
	}},
	{fieldSymptoms, []*regexp.Regexp{
		regexp.MustCompile(`(?is)\*\*2\.\s*why i think so \(looking at the photo\)\*\*\s*(.*?)(?:\*\*3\.|\z)`),
		regexp.MustCompile(`(?is)2\.\s*why i think so.*?\s(.*?)(?:3\.|\z)`),
		regexp.MustCompile(`(?is)why i think so.*?\s(.*?)(?:simple, cheap fix|\z)`),
	}},
	{fieldSolution, []*regexp.Regexp{
		regexp.MustCompile(`(?is)\*\*3\.\s*simple, cheap fix\*\*\s*(.*)\z`),
		regexp.MustCompile(`(?is)3\.\s*simple, cheap fix\s*(.*)\z`),
		regexp.MustCompile(`(?is)simple, cheap fix\s*(.*)\z`),
	}},
}

// localeText carries the per-locale defaults for fields the model did not
// fill. Unknown locales fall back to English.
type localeText struct {
	DefaultName    string
	Severity       string
	UnknownSymptom string
	NoAnalysis     string
}

var locales = map[string]localeText{
	"en": {
		DefaultName:    "Plant Problem",
		Severity:       "Medium",
		UnknownSymptom: "Unknown symptoms",
		NoAnalysis:     "No analysis available",
	},
	"hi": {
		DefaultName:    "पौधे की समस्या",
		Severity:       "मध्यम",
		UnknownSymptom: "अज्ञात लक्षण",
		NoAnalysis:     "कोई विश्लेषण उपलब्ध नहीं",
	},
}

func localeFor(code string) localeText {
	if lt, ok := locales[code]; ok {
		return lt
	}
	return locales["en"]
}

// Structure extracts the three target fields from raw model text. It
// never returns an error and every field of the result is non-empty.
func Structure(raw, locale string) Diagnosis {
	lt := localeFor(locale)

	sections := map[field]string{}
	for _, rule := range extractionRules {
		for _, p := range rule.patterns {
			if m := p.FindStringSubmatch(raw); m != nil {
				sections[rule.field] = strings.TrimSpace(m[1])
				break
			}
		}
	}

	problem := sections[fieldProblem]
	symptoms := sections[fieldSymptoms]
	solution := sections[fieldSolution]

	// The model ignored the requested structure entirely: fall back to a
	// positional split. The head of the text stands in for the problem
	// statement; no symptom list is invented beyond echoing that head.
	if problem == "" && symptoms == "" && solution == "" {
		problem = headRunes(raw, problemHeadLen)
		symptoms = headRunes(raw, symptomHeadLen)
		if remainder := tailRunes(raw, problemHeadLen); remainder != "" {
			solution = remainder
		} else {
			solution = raw
		}
	}

	name := Clean(problem)
	if name == "" {
		name = lt.DefaultName
	}

	description := Clean(problem)
	if description == "" {
		description = Clean(symptoms)
	}
	if description == "" {
		description = lt.DefaultName
	}

	symptom := Clean(symptoms)
	if symptom == "" {
		symptom = Clean(headRunes(raw, symptomHeadLen))
	}
	if symptom == "" {
		symptom = lt.UnknownSymptom
	}

	fix := Clean(solution)
	if fix == "" {
		fix = Clean(raw)
	}
	if fix == "" {
		fix = lt.NoAnalysis
	}

	return Diagnosis{
		Name:        name,
		Confidence:  defaultConfidence,
		Severity:    lt.Severity,
		Description: description,
		Symptoms:    []string{symptom},
		Solution:    fix,
		RawResponse: raw,
	}
}

var (
	boldRe  = regexp.MustCompile(`\*\*`)
	punctRe = regexp.MustCompile(`[.,;:]`)
	spaceRe = regexp.MustCompile(`\s+`)
	dashRe  = regexp.MustCompile(`-+`)
)

// Clean strips markdown emphasis, stray punctuation, slashes, dashes and
// quotes, and collapses whitespace, so a field is safe to render as plain
// prose no matter which pattern produced it.
func Clean(s string) string {
	s = boldRe.ReplaceAllString(s, "")
	s = punctRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "/", " ")
	s = dashRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, `"`, "")
	return strings.TrimSpace(s)
}

func headRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func tailRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return ""
	}
	return string(r[n:])
}
