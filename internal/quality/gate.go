package quality

import (
	"regexp"
	"strings"

	"t12insight/internal/model"
)

// Config sets the gate's thresholds. Values come from config.toml;
// zero values fall back to the defaults below.
type Config struct {
	MinLength        int      `toml:"min_length"`
	PassScore        float64  `toml:"pass_score"`
	RequiredSections []string `toml:"required_sections"`
}

// DefaultConfig returns the stock gate thresholds.
func DefaultConfig() Config {
	return Config{
		MinLength: 200,
		PassScore: 55,
		RequiredSections: []string{
			"KEY PERFORMANCE INSIGHTS",
			"ACTIONABLE RECOMMENDATIONS",
			"CONCERNING TRENDS",
			"RISK ASSESSMENT",
		},
	}
}

// Gate is the structural validator for narratives that reference a KPI
// summary. It is a best-effort filter: it checks section markers,
// domain keywords and length, not semantic correctness. A failing
// report steers the caller to a fallback narrative; it never aborts a
// run.
type Gate struct {
	cfg      Config
	headerRe *regexp.Regexp
	listRe   *regexp.Regexp
	actionRe *regexp.Regexp
}

// NewGate creates a gate, filling unset config fields with defaults.
func NewGate(cfg Config) *Gate {
	def := DefaultConfig()
	if cfg.MinLength <= 0 {
		cfg.MinLength = def.MinLength
	}
	if cfg.PassScore <= 0 {
		cfg.PassScore = def.PassScore
	}
	if len(cfg.RequiredSections) == 0 {
		cfg.RequiredSections = def.RequiredSections
	}
	return &Gate{
		cfg:      cfg,
		headerRe: regexp.MustCompile(`(?m)^(#{1,3}\s+\S|\*\*[A-Z][A-Z ]+\*\*|===)`),
		listRe:   regexp.MustCompile(`(?m)^\s*(\d+\.|[-*•])\s+`),
		actionRe: regexp.MustCompile(`(?i)\b(implement|analyze|review|investigate|improve|reduce|increase|optimize|monitor|evaluate|consider|track)\b`),
	}
}

// Validate checks a narrative against the required sections and the
// expected keywords (typically the KPI summary's metric names).
func (g *Gate) Validate(narrative string, expectedKeywords []string) model.QualityReport {
	report := model.QualityReport{
		Length:     len(strings.TrimSpace(narrative)),
		Dimensions: make(map[string]float64),
	}
	upper := strings.ToUpper(narrative)

	// Completeness: required section markers present.
	for _, section := range g.cfg.RequiredSections {
		if !strings.Contains(upper, strings.ToUpper(section)) {
			report.MissingSections = append(report.MissingSections, section)
		}
	}
	total := len(g.cfg.RequiredSections)
	completeness := 100.0
	if total > 0 {
		completeness = float64(total-len(report.MissingSections)) / float64(total) * 100
	}
	report.Dimensions["completeness"] = completeness

	// Relevance: each expected domain keyword appears at least once.
	lower := strings.ToLower(narrative)
	for _, kw := range expectedKeywords {
		if kw == "" {
			continue
		}
		if !strings.Contains(lower, strings.ToLower(kw)) {
			report.MissingKeywords = append(report.MissingKeywords, kw)
		}
	}
	relevance := 100.0
	if n := len(expectedKeywords); n > 0 {
		relevance = float64(n-len(report.MissingKeywords)) / float64(n) * 100
	}
	report.Dimensions["relevance"] = relevance

	// Structure: headers, lists and actionable language.
	structure := 0.0
	if g.headerRe.MatchString(narrative) {
		structure += 40
	}
	if g.listRe.MatchString(narrative) {
		structure += 40
	}
	if g.actionRe.MatchString(narrative) {
		structure += 20
	}
	report.Dimensions["structure"] = structure

	report.Score = completeness*0.4 + relevance*0.35 + structure*0.25
	report.Level = qualityLevel(report.Score)
	report.Passed = report.Length >= g.cfg.MinLength &&
		len(report.MissingSections) == 0 &&
		report.Score >= g.cfg.PassScore
	return report
}

func qualityLevel(score float64) string {
	switch {
	case score >= 85:
		return "excellent"
	case score >= 70:
		return "good"
	case score >= 55:
		return "fair"
	default:
		return "poor"
	}
}
