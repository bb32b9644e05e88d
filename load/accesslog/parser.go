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

// Package accesslog parses lines of HTTP server access logs as
// described by an Apache-like LogFormat string.
package accesslog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/czcorpus/cnc-gokit/collections"
)

const (
	FieldClientAddr = "%h"
	FieldIdentity   = "%l"
	FieldUser       = "%u"
	FieldTimestamp  = "%t"
	FieldRequest    = "%r"
	FieldStatus     = "%>s"
	FieldBytes      = "%b"
	FieldReferer    = "%{Referer}i"
	FieldUserAgent  = "%{User-Agent}i"

	// DefaultFormat is a combined log format preceded by a literal
	// (typically '=') written by the platform's log collectors.
	DefaultFormat = `= %h %l %u %t \"%r\" %>s %b \"%{Referer}i\" \"%{User-Agent}i\"`
)

var (
	// ErrParseFailure says that a line (or its part) does not match
	// the expected grammar.
	ErrParseFailure = errors.New("parse failure")

	blanks           = regexp.MustCompile(`[ \t]+`)
	timeDirective    = regexp.MustCompile(`^%.*t$`)
	refererOrAgent   = regexp.MustCompile(`Referer|User-Agent`)
	requiredFields   = []string{FieldClientAddr, FieldTimestamp, FieldRequest, FieldUserAgent}
	escapedQuotedExp = `"([^"\\]*(?:\\.[^"\\]*)*)"`
)

// Fields contains values of a parsed log line.
// Keys are the LogFormat directives (e.g. %h, %{User-Agent}i).
type Fields map[string]string

func (f Fields) get(k string) (string, bool) {
	v, ok := f[k]
	return v, ok
}

func (f Fields) ClientAddr() (string, bool) { return f.get(FieldClientAddr) }

// Timestamp returns the raw timestamp including the brackets
// (e.g. [30/Dec/2012:23:59:57 -0200])
func (f Fields) Timestamp() (string, bool) { return f.get(FieldTimestamp) }

// Request returns the whole request line (e.g. GET /index.html HTTP/1.1)
func (f Fields) Request() (string, bool) { return f.get(FieldRequest) }

func (f Fields) Status() (string, bool) { return f.get(FieldStatus) }

func (f Fields) Bytes() (string, bool) { return f.get(FieldBytes) }

func (f Fields) Referer() (string, bool) { return f.get(FieldReferer) }

func (f Fields) UserAgent() (string, bool) { return f.get(FieldUserAgent) }

// Grammar is a compiled LogFormat. It is read-only once created.
type Grammar struct {
	format  string
	names   []string
	pattern *regexp.Regexp
}

// Format returns the original format string
func (g *Grammar) Format() string {
	return g.format
}

// Names returns field names in the order they appear in a line
func (g *Grammar) Names() []string {
	ans := make([]string, len(g.names))
	copy(ans, g.names)
	return ans
}

func isQuoted(elm string) (string, bool) {
	if strings.HasPrefix(elm, `\"`) {
		return strings.TrimSuffix(elm[2:], `\"`), true
	}
	if len(elm) > 1 && strings.HasPrefix(elm, `"`) && strings.HasSuffix(elm, `"`) {
		return elm[1 : len(elm)-1], true
	}
	return elm, false
}

func subpattern(elm string, quoted bool) string {
	if quoted {
		if elm == FieldRequest || refererOrAgent.MatchString(elm) {
			return escapedQuotedExp
		}
		return `"([^"]*)"`

	} else if timeDirective.MatchString(elm) {
		return `(\[[^\]]+\])`

	} else if elm == "%U" {
		return `(.+?)`
	}
	return `(\S*)`
}

// NewGrammar compiles an Apache-like LogFormat string. Each space-separated
// element of the format represents one field. Quoted elements
// (either \"%r\" or "%r") are expected to be quoted in log lines too.
func NewGrammar(format string) (*Grammar, error) {
	norm := blanks.ReplaceAllString(strings.TrimSpace(format), " ")
	if norm == "" {
		return nil, errors.New("empty log format")
	}
	elements := strings.Split(norm, " ")
	ans := &Grammar{
		format: format,
		names:  make([]string, len(elements)),
	}
	subpatterns := make([]string, len(elements))
	for i, elm := range elements {
		name, quoted := isQuoted(elm)
		ans.names[i] = name
		subpatterns[i] = subpattern(name, quoted)
	}
	for _, req := range requiredFields {
		if !collections.SliceContains(ans.names, req) {
			return nil, fmt.Errorf("log format %s does not contain required field %s", format, req)
		}
	}
	var err error
	ans.pattern, err = regexp.Compile("^" + strings.Join(subpatterns, " ") + "$")
	if err != nil {
		return nil, fmt.Errorf("failed to compile log format %s: %w", format, err)
	}
	return ans, nil
}

// Parse splits a log line into named fields.
// In case the line does not match the grammar, ErrParseFailure is returned.
func (g *Grammar) Parse(line string) (Fields, error) {
	srch := g.pattern.FindStringSubmatch(strings.TrimSpace(line))
	if srch == nil {
		return nil, ErrParseFailure
	}
	ans := make(Fields, len(g.names))
	for i, name := range g.names {
		ans[name] = srch[i+1]
	}
	return ans, nil
}
