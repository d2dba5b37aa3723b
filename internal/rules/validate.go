package rules

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"sql-complexity/internal/model"

	"github.com/pkg/errors"
)

func build(doc *catalogueDoc) (*RuleTable, error) {
	if strings.TrimSpace(doc.Version) == "" {
		return nil, malformed("catalogue", "", "missing version")
	}

	common, err := buildTable("", &doc.Common)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(doc.Dialects))
	for key := range doc.Dialects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !model.Dialect(key).Valid() {
			return nil, malformed(key, "", "unknown dialect table %q", key)
		}
	}

	rt := &RuleTable{
		Version:  doc.Version,
		Common:   common,
		Dialects: make(map[model.Dialect]*Table, len(model.SupportedDialects)),
	}
	for _, d := range model.SupportedDialects {
		def, ok := doc.Dialects[string(d)]
		if !ok {
			return nil, malformed(string(d), "", "missing dialect table")
		}
		t, err := buildTable(d, &def)
		if err != nil {
			return nil, err
		}
		rt.Dialects[d] = t
	}
	return rt, nil
}

// tableBuilder carries the id space shared by a table's rules and band members.
type tableBuilder struct {
	name    string
	dialect model.Dialect
	ids     map[string]struct{}
	groups  map[string]struct{}
}

func buildTable(d model.Dialect, def *tableDoc) (*Table, error) {
	tb := &tableBuilder{
		dialect: d,
		ids:     make(map[string]struct{}),
		groups:  make(map[string]struct{}),
	}
	t := &Table{Dialect: d}
	tb.name = t.Name()

	for i := range def.Rules {
		r, err := tb.rule(&def.Rules[i])
		if err != nil {
			return nil, err
		}
		t.Rules = append(t.Rules, r)
	}
	for i := range def.Bands {
		g, err := tb.bandGroup(&def.Bands[i])
		if err != nil {
			return nil, err
		}
		t.Bands = append(t.Bands, g)
	}
	return t, nil
}

func (tb *tableBuilder) claim(id string) error {
	if id == "" {
		return malformed(tb.name, "", "rule without id")
	}
	if _, dup := tb.ids[id]; dup {
		return malformed(tb.name, id, "duplicate id")
	}
	tb.ids[id] = struct{}{}
	return nil
}

func (tb *tableBuilder) category(id, raw string) (model.Category, error) {
	if raw == "" && tb.dialect != "" {
		return model.CategoryDialectSpecific, nil
	}
	c := model.Category(raw)
	if !c.Valid() {
		return "", malformed(tb.name, id, "unknown category %q", raw)
	}
	return c, nil
}

func (tb *tableBuilder) method(id, raw string) (model.Method, error) {
	m := model.Method(raw)
	if !m.Valid() {
		return "", malformed(tb.name, id, "unknown detection method %q", raw)
	}
	return m, nil
}

// detector compiles the pattern or resolves the measure a rule or band group
// is evaluated with.
func (tb *tableBuilder) detector(id string, m model.Method, pattern, measure string, raw bool) (*regexp.Regexp, model.Measure, error) {
	if m.Lexical() {
		if measure != "" {
			return nil, model.Measure{}, malformed(tb.name, id, "%s rule cannot name a measure", m)
		}
		if strings.TrimSpace(pattern) == "" {
			return nil, model.Measure{}, malformed(tb.name, id, "missing pattern")
		}
		re, err := compilePattern(m, pattern)
		if err != nil {
			return nil, model.Measure{}, malformed(tb.name, id, "invalid pattern: %v", err)
		}
		return re, model.Measure{}, nil
	}

	if pattern != "" {
		return nil, model.Measure{}, malformed(tb.name, id, "%s rule cannot carry a pattern", m)
	}
	if raw {
		return nil, model.Measure{}, malformed(tb.name, id, "raw applies only to lexical rules")
	}
	ms, ok := model.LookupMeasure(measure)
	if !ok {
		return nil, model.Measure{}, malformed(tb.name, id, "unknown measure %q", measure)
	}
	if ms.Kind != m {
		return nil, model.Measure{}, malformed(tb.name, id, "measure %q is a %s reading, not %s", measure, ms.Kind, m)
	}
	return nil, ms, nil
}

func (tb *tableBuilder) rule(def *ruleDoc) (*Rule, error) {
	if err := tb.claim(def.ID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(def.Name) == "" {
		return nil, malformed(tb.name, def.ID, "missing name")
	}
	if def.Weight < 0 {
		return nil, malformed(tb.name, def.ID, "negative weight %v", def.Weight)
	}

	m, err := tb.method(def.ID, def.Method)
	if err != nil {
		return nil, err
	}
	c, err := tb.category(def.ID, def.Category)
	if err != nil {
		return nil, err
	}

	scoring := Scoring(def.Scoring)
	switch scoring {
	case "":
		scoring = ScoringFixed
		if m.Lexical() {
			scoring = ScoringOccurrence
		}
	case ScoringFixed, ScoringOccurrence:
	default:
		return nil, malformed(tb.name, def.ID, "unknown scoring %q", def.Scoring)
	}

	minimum := 1
	if def.Min != nil {
		minimum = *def.Min
	}
	if minimum < 1 {
		return nil, malformed(tb.name, def.ID, "min must be at least 1, got %d", minimum)
	}

	dialects, err := tb.dialects(def.ID, def.Dialects)
	if err != nil {
		return nil, err
	}

	re, ms, err := tb.detector(def.ID, m, def.Pattern, def.Measure, def.Raw)
	if err != nil {
		return nil, err
	}

	return &Rule{
		ID:       def.ID,
		Name:     def.Name,
		Weight:   def.Weight,
		Method:   m,
		Category: c,
		Scoring:  scoring,
		Pattern:  def.Pattern,
		Measure:  def.Measure,
		Min:      minimum,
		Raw:      def.Raw,
		Dialects: dialects,
		Note:     def.Note,
		re:       re,
		measure:  ms,
	}, nil
}

func (tb *tableBuilder) dialects(id string, raw []string) ([]model.Dialect, error) {
	var out []model.Dialect
	for _, s := range raw {
		d, err := model.ParseDialect(s)
		if err != nil {
			return nil, malformed(tb.name, id, "unknown dialect %q", s)
		}
		if tb.dialect != "" && d != tb.dialect {
			return nil, malformed(tb.name, id, "names foreign dialect %s", d)
		}
		out = append(out, d)
	}
	return out, nil
}

func (tb *tableBuilder) bandGroup(def *bandGroupDoc) (*BandGroup, error) {
	if def.Group == "" {
		return nil, malformed(tb.name, "", "band group without name")
	}
	if _, dup := tb.groups[def.Group]; dup {
		return nil, malformed(tb.name, def.Group, "duplicate band group")
	}
	tb.groups[def.Group] = struct{}{}

	m, err := tb.method(def.Group, def.Method)
	if err != nil {
		return nil, err
	}
	c, err := tb.category(def.Group, def.Category)
	if err != nil {
		return nil, err
	}
	re, ms, err := tb.detector(def.Group, m, def.Pattern, def.Measure, def.Raw)
	if err != nil {
		return nil, err
	}
	if len(def.Members) == 0 {
		return nil, malformed(tb.name, def.Group, "band group has no members")
	}

	g := &BandGroup{
		Name:     def.Group,
		Method:   m,
		Category: c,
		Pattern:  def.Pattern,
		Measure:  def.Measure,
		Raw:      def.Raw,
		re:       re,
		measure:  ms,
	}
	for i := range def.Members {
		b, err := tb.band(g, &def.Members[i])
		if err != nil {
			return nil, err
		}
		g.Members = append(g.Members, b)
	}
	if err := tb.checkPartition(g); err != nil {
		return nil, err
	}
	return g, nil
}

func (tb *tableBuilder) band(g *BandGroup, def *bandMemberDoc) (*Band, error) {
	if err := tb.claim(def.ID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(def.Name) == "" {
		return nil, malformed(tb.name, def.ID, "missing name")
	}
	if def.Weight < 0 {
		return nil, malformed(tb.name, def.ID, "negative weight %v", def.Weight)
	}
	if def.Category != "" && model.Category(def.Category) != g.Category {
		return nil, malformed(tb.name, def.ID, "band member category %s differs from group %s category %s",
			def.Category, g.Name, g.Category)
	}
	if def.Max != nil && *def.Max < def.Min {
		return nil, malformed(tb.name, def.ID, "empty band range [%d, %d]", def.Min, *def.Max)
	}
	return &Band{ID: def.ID, Name: def.Name, Weight: def.Weight, Min: def.Min, Max: def.Max}, nil
}

// checkPartition requires the members, in declared order, to cover every
// non-negative integer exactly once.
func (tb *tableBuilder) checkPartition(g *BandGroup) error {
	next := 0
	for i, b := range g.Members {
		switch {
		case i == 0 && b.Min != 0:
			return malformed(tb.name, b.ID, "band partition of group %s does not start at 0", g.Name)
		case b.Min < next:
			return malformed(tb.name, b.ID, "band overlaps its predecessor in group %s", g.Name)
		case b.Min > next:
			return malformed(tb.name, b.ID, "gap [%d, %d] before band in group %s", next, b.Min-1, g.Name)
		}
		if b.Max == nil {
			if i != len(g.Members)-1 {
				return malformed(tb.name, b.ID, "unbounded band is not last in group %s", g.Name)
			}
			return nil
		}
		next = *b.Max + 1
	}
	return malformed(tb.name, g.Name, "band partition is bounded above at %d", next-1)
}

func compilePattern(m model.Method, pattern string) (*regexp.Regexp, error) {
	if m == model.MethodKeyword {
		return keywordRegexp(pattern)
	}
	return regexp.Compile(`(?is)` + pattern)
}

// keywordRegexp matches kw as whole words, case-insensitively, with any run
// of whitespace between its words. Word boundaries in RE2 are ASCII only, so a
// keyword may not begin or end with a non-ASCII letter or digit.
func keywordRegexp(kw string) (*regexp.Regexp, error) {
	words := strings.Fields(kw)
	if len(words) == 0 {
		return nil, errors.New("empty keyword")
	}
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	expr := strings.Join(words, `\s+`)

	trimmed := strings.TrimSpace(kw)
	first, _ := utf8.DecodeRuneInString(trimmed)
	last, _ := utf8.DecodeLastRuneInString(trimmed)
	for _, r := range []rune{first, last} {
		if r > unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return nil, errors.Errorf("keyword %q has a non-ASCII word edge %q", kw, r)
		}
	}
	if isWordRune(first) {
		expr = `\b` + expr
	}
	if isWordRune(last) {
		expr += `\b`
	}
	return regexp.Compile(`(?i)` + expr)
}

func isWordRune(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}
