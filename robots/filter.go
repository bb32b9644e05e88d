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

// Package robots recognizes HTTP clients which are not humans
// (crawlers, monitors, harvesters) based on their user agent string.
package robots

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"scilogproc/common"

	"github.com/rs/zerolog/log"
)

// Filter holds compiled robot patterns. Once created, it is
// read-only and can be shared by any number of goroutines.
type Filter struct {
	patterns []*regexp.Regexp
}

// Size returns number of active patterns
func (f *Filter) Size() int {
	return len(f.patterns)
}

// IsRobot tests whether any of the patterns can be found
// anywhere within the provided user agent (case-insensitive).
func (f *Filter) IsRobot(userAgent string) bool {
	for _, p := range f.patterns {
		if p.MatchString(userAgent) {
			return true
		}
	}
	return false
}

// NewFilter compiles the provided patterns. Each pattern is lower-cased
// and treated as a regular expression. In case a pattern is not a valid
// regexp, it is matched as a plain substring. Empty patterns are ignored
// as they would match any user agent.
func NewFilter(patterns []string) *Filter {
	ans := &Filter{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		rx, err := regexp.Compile("(?i)" + p)
		if err != nil {
			log.Warn().Err(err).Str("pattern", p).Msg("invalid robot regexp, using it as a literal")
			rx = regexp.MustCompile("(?i)" + regexp.QuoteMeta(p))
		}
		ans.patterns = append(ans.patterns, rx)
	}
	return ans
}

// ParseList reads a robots list where each line contains one pattern.
// Blank lines and lines starting with '#' are skipped.
func ParseList(data []byte) ([]string, error) {
	ans := make([]string, 0, 100)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ans = append(ans, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read robots list: %w", err)
	}
	return ans, nil
}

// Load creates a Filter out of a robots list resource
// (a local file or a http resource).
func Load(uri string) (*Filter, error) {
	rawData, err := common.LoadSupportedResource(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to load robots list %s: %w", uri, err)
	}
	items, err := ParseList(rawData)
	if err != nil {
		return nil, err
	}
	f := NewFilter(items)
	log.Info().Str("resource", uri).Int("numPatterns", f.Size()).Msg("loaded robot definitions")
	return f, nil
}
