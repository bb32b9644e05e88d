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
	"bytes"
	"strings"
	"testing"

	"scilogproc/access"
	"scilogproc/catalog"
	"scilogproc/load/accesslog"
	"scilogproc/robots"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPDFLine   = `= 8.8.8.8 - - [30/Dec/2012:23:59:57 -0200] "GET /pdf/rsp/v45n3/en_1234.pdf HTTP/1.1" 200 9218 "-" "Mozilla/5.0"`
	testRobotLine = `= 8.8.8.8 - - [30/Dec/2012:23:59:57 -0200] "GET /pdf/rsp/v45n3/en_1234.pdf HTTP/1.1" 200 9218 "-" "Googlebot/2.1"`
	testHTMLLine  = `= 10.0.0.1 - - [01/Jan/2013:00:00:01 -0200] "GET /scielo.php?script=sci_serial&pid=0034-8910 HTTP/1.1" 200 100 "-" "Mozilla/5.0"`
)

func newTestProcessor(t *testing.T, embeddedGeo bool) *logProcessor {
	grammar, err := accesslog.NewGrammar(accesslog.DefaultFormat)
	require.NoError(t, err)
	table := catalog.NewLookupTable(
		"scl",
		[]catalog.Journal{{Acronym: "rsp", ScieloISSN: "0034-8910"}},
	)
	return &logProcessor{
		validator:   access.NewValidator(table, robots.NewFilter([]string{"googlebot"}), grammar, access.Options{}),
		embeddedGeo: embeddedGeo,
	}
}

func TestProcessLine(t *testing.T) {
	proc := newTestProcessor(t, false)
	rec, err := proc.ProcessLine(testPDFLine)
	require.NoError(t, err)
	assert.Equal(t, "scl", rec.Collection)
	assert.Equal(t, "0034-8910", rec.PDFISSN)
	assert.Nil(t, rec.GeoIP)

	_, err = proc.ProcessLine(testRobotLine)
	assert.ErrorIs(t, err, access.ErrRobot)
}

func TestProcessLineEmbeddedGeo(t *testing.T) {
	proc := newTestProcessor(t, true)
	rec, err := proc.ProcessLine(testPDFLine)
	require.NoError(t, err)
	require.NotNil(t, rec.GeoIP)
	assert.NotEmpty(t, rec.GeoIP.CountryCode)
	assert.Equal(t, "8.8.8.8", rec.GeoIP.IP)
}

func TestApplyLocationInvalidIP(t *testing.T) {
	rec := access.NewOutputRecord(access.AccessRecord{IP: "not-an-ip"}, "scl")
	applyLocation(rec, nil, true)
	assert.Nil(t, rec.GeoIP)
}

func TestRunCheckAction(t *testing.T) {
	proc := newTestProcessor(t, false)
	input := strings.Join([]string{testPDFLine, testRobotLine, "garbage", testHTMLLine}, "\n")
	var out bytes.Buffer
	stats, err := runCheckAction(proc, strings.NewReader(input), &out, true)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.NumLines())
	assert.Equal(t, 2, stats.NumAccepted())
	assert.Equal(t, 1, stats.NumRejected("robot"))
	assert.Equal(t, 1, stats.NumRejected("parse"))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"pdf_issn":"0034-8910"`)
	assert.True(t, strings.HasPrefix(lines[1], "# robot: "))
	assert.True(t, strings.HasPrefix(lines[2], "# parse: "))
	assert.Contains(t, lines[3], `"script":"sci_serial"`)
}
