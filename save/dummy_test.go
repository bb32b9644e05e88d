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

package save

import (
	"bytes"
	"strings"
	"testing"

	"scilogproc/access"

	"github.com/stretchr/testify/assert"
)

func TestRunWriteConsumer(t *testing.T) {
	incoming := make(chan *access.OutputRecord, 2)
	incoming <- access.NewOutputRecord(access.AccessRecord{Code: "/pdf/rsp/v1n1/a.pdf", AccessType: access.AccessPDF}, "scl")
	incoming <- access.NewOutputRecord(access.AccessRecord{Code: "S0103-40142000000200013", AccessType: access.AccessHTML}, "scl")
	close(incoming)
	var buf bytes.Buffer
	confirm := RunWriteConsumer(incoming, &buf)
	numConfirmed := 0
	for msg := range confirm {
		assert.NoError(t, msg.Error)
		assert.Equal(t, SinkStdout, msg.Sink)
		numConfirmed += msg.NumRecords
	}
	assert.Equal(t, 2, numConfirmed)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"code":"/pdf/rsp/v1n1/a.pdf"`)
	assert.Contains(t, lines[1], `"access_type":"HTML"`)
}
