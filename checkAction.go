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

package main

import (
	"bufio"
	"fmt"
	"io"

	"scilogproc/access"
	"scilogproc/load"

	"github.com/rs/zerolog/log"
)

const (
	maxCheckedLineLength = 1024 * 1024
)

// runCheckAction validates lines from the reader and writes accepted
// records as JSON lines to w. With verbose set, rejected lines
// are reported too (prefixed by the rejection reason).
func runCheckAction(proc load.LineProcessor, r io.Reader, w io.Writer, verbose bool) (*load.Stats, error) {
	stats := &load.Stats{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxCheckedLineLength)
	for sc.Scan() {
		rec, err := proc.ProcessLine(sc.Text())
		stats.Register(err)
		if err != nil {
			if verbose {
				fmt.Fprintf(w, "# %s: %s\n", access.RejectionReason(err), err)
			}
			continue
		}
		data, err := rec.ToJSON()
		if err != nil {
			log.Error().Err(err).Msg("failed to encode record")
			continue
		}
		fmt.Fprintln(w, string(data))
	}
	return stats, sc.Err()
}
