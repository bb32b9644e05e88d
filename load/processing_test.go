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

package load

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"scilogproc/access"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestStatsRegister(t *testing.T) {
	var stats Stats
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats.Register(nil)
			stats.Register(access.Rejection{Reason: access.ErrRobot})
			stats.Register(access.Rejection{Reason: access.ErrParseFailure})
		}()
	}
	wg.Wait()
	assert.Equal(t, 30, stats.NumLines())
	assert.Equal(t, 10, stats.NumAccepted())
	assert.Equal(t, 10, stats.NumRejected("robot"))
	assert.Equal(t, 10, stats.NumRejected("parse"))
	assert.Equal(t, 0, stats.NumRejected("validation"))
}

func TestStatsLogObject(t *testing.T) {
	var stats Stats
	stats.Register(nil)
	stats.Register(errors.New("unexpected"))
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	logger.Info().Object("stats", &stats).Msg("")
	assert.Contains(t, buf.String(), `"stats":{"lines":2,"accepted":1,"rejected_other":1}`)
}
