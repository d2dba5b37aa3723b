package evaluator

import (
	"regexp"

	"sql-complexity/internal/features"
	"sql-complexity/internal/model"
)

// maxMatches bounds the text fragments kept per lexical trigger.
const maxMatches = 5

// Detection is what a detector measured for one query.
type Detection struct {
	Count   int
	Matches []string
}

// Detector measures one rule or band group against a query. There is one
// implementation per detection method.
type Detector interface {
	Method() model.Method
	Detect(fv *model.FeatureVector, text features.Text) Detection
}

type structuralDetector struct {
	value func(fv *model.FeatureVector) int
}

func (structuralDetector) Method() model.Method { return model.MethodStructural }

func (d structuralDetector) Detect(fv *model.FeatureVector, _ features.Text) Detection {
	return Detection{Count: d.value(fv)}
}

type metricDetector struct {
	value func(fv *model.FeatureVector) int
}

func (metricDetector) Method() model.Method { return model.MethodTextMetric }

func (d metricDetector) Detect(fv *model.FeatureVector, _ features.Text) Detection {
	return Detection{Count: d.value(fv)}
}

// scanner runs a compiled expression over the masked code, or over the raw
// text when raw is set. Fragments are always cut from the raw text.
type scanner struct {
	re  *regexp.Regexp
	raw bool
}

func (s scanner) scan(text features.Text) Detection {
	src := text.Code
	if s.raw {
		src = text.Raw
	}
	locs := s.re.FindAllStringIndex(src, -1)
	if len(locs) == 0 {
		return Detection{}
	}
	d := Detection{Count: len(locs)}
	for _, loc := range locs {
		if len(d.Matches) == maxMatches {
			break
		}
		d.Matches = append(d.Matches, text.Raw[loc[0]:loc[1]])
	}
	return d
}

type patternDetector struct{ scanner }

func (patternDetector) Method() model.Method { return model.MethodPattern }

func (d patternDetector) Detect(_ *model.FeatureVector, text features.Text) Detection {
	return d.scan(text)
}

type keywordDetector struct{ scanner }

func (keywordDetector) Method() model.Method { return model.MethodKeyword }

func (d keywordDetector) Detect(_ *model.FeatureVector, text features.Text) Detection {
	return d.scan(text)
}

// measurable is what rules.Rule and rules.BandGroup have in common.
type measurable interface {
	Regexp() *regexp.Regexp
	Value(fv *model.FeatureVector) int
}

func newDetector(m model.Method, src measurable, raw bool) Detector {
	switch m {
	case model.MethodStructural:
		return structuralDetector{value: src.Value}
	case model.MethodTextMetric:
		return metricDetector{value: src.Value}
	case model.MethodPattern:
		return patternDetector{scanner{re: src.Regexp(), raw: raw}}
	case model.MethodKeyword:
		return keywordDetector{scanner{re: src.Regexp(), raw: raw}}
	}
	panic("evaluator: unknown detection method " + string(m))
}
