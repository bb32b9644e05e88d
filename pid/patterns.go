// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pid contains matchers for persistent identifiers (PIDs)
// used by the journal platform to address journals, issues
// and articles.
package pid

import (
	"regexp"
	"strings"
)

// Shape is a semantic kind of a persistent identifier
type Shape int

const (
	ShapeISSN Shape = iota
	ShapeIssue
	ShapeArticle
	ShapeLegacyArticle
)

func (s Shape) String() string {
	switch s {
	case ShapeISSN:
		return "issn"
	case ShapeIssue:
		return "issue"
	case ShapeArticle:
		return "article"
	case ShapeLegacyArticle:
		return "legacy-article"
	default:
		return "unknown"
	}
}

const (
	issnExpr = `[0-9]{4}-[0-9]{3}[0-9xX]`

	// ISSNLength is the length of the ISSN prefix of any PID
	ISSNLength = 9
)

// Patterns is a set of compiled PID matchers. The shapes are
// constants of the domain so there is no way to configure them,
// but the compiled form is passed explicitly to whoever needs it.
type Patterns struct {
	matchers map[Shape]*regexp.Regexp
}

// Match tests whether an already normalized PID (see Normalize)
// has the required shape.
func (p *Patterns) Match(shape Shape, normPID string) bool {
	m, ok := p.matchers[shape]
	if !ok {
		return false
	}
	return m.MatchString(normPID)
}

// MatchAny returns true if the PID matches at least one of the shapes
func (p *Patterns) MatchAny(normPID string, shapes ...Shape) bool {
	for _, s := range shapes {
		if p.Match(s, normPID) {
			return true
		}
	}
	return false
}

// NewPatterns compiles all the known PID shapes
func NewPatterns() *Patterns {
	issue := issnExpr + `[0-2][0-9]{3}[0-9]{4}`
	return &Patterns{
		matchers: map[Shape]*regexp.Regexp{
			ShapeISSN:          regexp.MustCompile("^" + issnExpr + "$"),
			ShapeIssue:         regexp.MustCompile("^" + issue + "$"),
			ShapeArticle:       regexp.MustCompile("^" + issue + "[0-9]{5}$"),
			ShapeLegacyArticle: regexp.MustCompile("^" + issnExpr + `\([0-9]{2}\)[0-9]{8}$`),
		},
	}
}

// Normalize converts a raw PID as found in a query string
// (e.g. S0103-40142000000200013) into a form suitable for
// matching: upper case with all the 'S' characters removed.
func Normalize(rawPID string) string {
	return strings.ReplaceAll(strings.ToUpper(rawPID), "S", "")
}

// ISSNPrefix returns the first ISSNLength characters of a normalized
// PID. For shorter values, the whole value is returned.
func ISSNPrefix(normPID string) string {
	if len(normPID) < ISSNLength {
		return normPID
	}
	return normPID[:ISSNLength]
}
