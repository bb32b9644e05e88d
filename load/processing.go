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

// Package load contains types shared by all the log readers
// (batch, tail).
package load

import (
	"sort"
	"sync"

	"scilogproc/access"

	"github.com/rs/zerolog"
)

// LineProcessor turns a raw log line into an export ready record.
// A non-nil error means the line was rejected (see access.RejectionReason).
type LineProcessor interface {
	ProcessLine(line string) (*access.OutputRecord, error)
}

// Stats collects summary information about processed lines.
// It can be updated concurrently.
type Stats struct {
	mu          sync.Mutex
	numLines    int
	numAccepted int
	rejections  map[string]int
}

// Register records a result of a single line processing
func (s *Stats) Register(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.numLines++
	if err == nil {
		s.numAccepted++
		return
	}
	if s.rejections == nil {
		s.rejections = make(map[string]int)
	}
	s.rejections[access.RejectionReason(err)]++
}

// NumLines returns number of all processed lines
func (s *Stats) NumLines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numLines
}

// NumAccepted returns number of lines accepted as valid accesses
func (s *Stats) NumAccepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.numAccepted
}

// NumRejected returns number of lines rejected for a reason
// (parse, robot, classification, validation)
func (s *Stats) NumRejected(reason string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejections[reason]
}

// MarshalZerologObject allows for writing stats as a structured
// log object
func (s *Stats) MarshalZerologObject(e *zerolog.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Int("lines", s.numLines).Int("accepted", s.numAccepted)
	reasons := make([]string, 0, len(s.rejections))
	for k := range s.rejections {
		reasons = append(reasons, k)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		e.Int("rejected_"+r, s.rejections[r])
	}
}
