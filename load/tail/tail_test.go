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

package tail

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scilogproc/access"
	"scilogproc/load"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type prefixProcessor struct{}

func (p prefixProcessor) ProcessLine(line string) (*access.OutputRecord, error) {
	if strings.HasPrefix(line, "ok") {
		return access.NewOutputRecord(access.AccessRecord{Code: line}, "scl"), nil
	}
	return nil, access.Rejection{Reason: access.ErrClassificationMiss}
}

func TestConfValidate(t *testing.T) {
	assert.Error(t, (&Conf{}).Validate())
	assert.Error(t, (&Conf{Files: []string{" "}}).Validate())
	assert.NoError(t, (&Conf{Files: []string{"/var/log/access.log"}}).Validate())
	assert.Error(t, (&Conf{Files: []string{"/var/log/access.log"}, MaxInactivitySecs: -1}).Validate())
}

func TestRunFollowsFile(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(fp, []byte("ok1\nfoo\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan *access.OutputRecord)
	type result struct {
		stats *load.Stats
		err   error
	}
	done := make(chan result)
	go func() {
		stats, err := Run(ctx, &Conf{Files: []string{fp}, MaxInactivitySecs: 60}, prefixProcessor{}, out, nil)
		done <- result{stats, err}
	}()

	select {
	case rec := <-out:
		assert.Equal(t, "ok1", rec.Code)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for the first record")
	}

	f, err := os.OpenFile(fp, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("ok2\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case rec := <-out:
		assert.Equal(t, "ok2", rec.Code)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for the appended record")
	}

	cancel()
	select {
	case res := <-done:
		assert.NoError(t, res.err)
		assert.Equal(t, 3, res.stats.NumLines())
		assert.Equal(t, 2, res.stats.NumAccepted())
		assert.Equal(t, 1, res.stats.NumRejected("classification"))
	case <-time.After(5 * time.Second):
		t.Fatal("tail reader did not stop")
	}
}
