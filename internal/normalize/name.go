package normalize

import (
	"regexp"
	"strings"
)

type acronymRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Whole-word acronym fixes applied to the raw name before title-casing.
var acronymRules = []acronymRule{
	{regexp.MustCompile(`(?i)\bppi\b`), "PPI"},
	{regexp.MustCompile(`(?i)\bcpi\b`), "CPI"},
	{regexp.MustCompile(`(?i)\bgdp\b`), "GDP"},
	{regexp.MustCompile(`(?i)\bpce\b`), "PCE"},
	{regexp.MustCompile(`(?i)\bpmi\b`), "PMI"},
	{regexp.MustCompile(`(?i)\becb\b`), "ECB"},
	{regexp.MustCompile(`(?i)\bboe\b`), "BoE"},
	{regexp.MustCompile(`(?i)\bboj\b`), "BoJ"},
	{regexp.MustCompile(`(?i)\brba\b`), "RBA"},
	{regexp.MustCompile(`(?i)\bfed\b`), "Fed"},
	{regexp.MustCompile(`(?i)\bs&p\b`), "S&P"},
}

var periodSuffix = regexp.MustCompile(`(?i)\s+\(?(yoy|mom|qoq)\)?$`)

var periodCanonical = map[string]string{
	"yoy": "YoY",
	"mom": "MoM",
	"qoq": "QoQ",
}

// canonicalTokens maps the upper-cased comparison form of a token to its display form.
var canonicalTokens = map[string]string{
	"YOY": "YoY", "MOM": "MoM", "QOQ": "QoQ",
	"BOE": "BoE", "BOJ": "BoJ",
}

func init() {
	for _, tok := range []string{
		"PMI", "CPI", "PPI", "GDP", "PCE", "ADP", "ZEW", "IFO", "ECB", "RBA", "RBNZ", "SNB", "BOC",
		"FOMC", "USD", "EUR", "GBP", "JPY", "CAD", "AUD", "NZD", "CHF", "CNY", "S&P", "HSBC",
		"HCOB", "JGB", "OAT", "BTF", "KTB", "UK", "US", "EU", "MBA", "NY", "API", "EIA", "NFIB",
		"ISM", "JOLTS", "NFP", "NAHB", "CB", "TBILL", "T-BILL", "HICP", "ECI", "GDT",
	} {
		canonicalTokens[tok] = tok
	}
	// Fed keeps its mixed case.
	canonicalTokens["FED"] = "Fed"
}

// CanonicalName rewrites a raw indicator name into its single display form.
// It is idempotent: CanonicalName(CanonicalName(x)) == CanonicalName(x).
func CanonicalName(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return ""
	}
	for _, rule := range acronymRules {
		name = rule.pattern.ReplaceAllString(name, rule.replacement)
	}
	name = periodSuffix.ReplaceAllStringFunc(name, func(m string) string {
		sub := periodSuffix.FindStringSubmatch(m)
		return " (" + periodCanonical[strings.ToLower(sub[1])] + ")"
	})
	return TitleCase(name)
}

// TitleCase splits on spaces, then on hyphens, and cases each part. Parts whose
// letters, digits and '&' match a known acronym keep the acronym's casing; the
// rest become first-letter-upper. Other characters stay where they were.
func TitleCase(s string) string {
	words := strings.Split(s, " ")
	for i, word := range words {
		if canon, ok := canonicalTokens[strings.ToUpper(stripToken(word, true))]; ok && strings.Contains(word, "-") {
			words[i] = applyCase(word, canon, true)
			continue
		}
		parts := strings.Split(word, "-")
		for j, part := range parts {
			parts[j] = casePart(part)
		}
		words[i] = strings.Join(parts, "-")
	}
	return strings.Join(words, " ")
}

func casePart(part string) string {
	clean := stripToken(part, false)
	if clean == "" {
		return part
	}
	if canon, ok := canonicalTokens[strings.ToUpper(clean)]; ok {
		return applyCase(part, canon, false)
	}
	return applyCase(part, strings.ToUpper(clean[:1])+strings.ToLower(clean[1:]), false)
}

// applyCase writes cased over the comparable characters of token in order.
func applyCase(token, cased string, keepHyphen bool) string {
	out := []byte(token)
	k := 0
	for i := 0; i < len(out) && k < len(cased); i++ {
		if comparable(out[i], keepHyphen) {
			out[i] = cased[k]
			k++
		}
	}
	return string(out)
}

func stripToken(token string, keepHyphen bool) string {
	var b strings.Builder
	for i := 0; i < len(token); i++ {
		if comparable(token[i], keepHyphen) {
			b.WriteByte(token[i])
		}
	}
	return b.String()
}

func comparable(c byte, keepHyphen bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '&':
		return true
	case keepHyphen && c == '-':
		return true
	}
	return false
}
