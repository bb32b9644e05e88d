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
	"context"
	"os"
	"sync"

	"scilogproc/access"
	"scilogproc/config"
	"scilogproc/save"
	"scilogproc/save/elastic"
	"scilogproc/save/influx"

	"github.com/rs/zerolog/log"
)

// outputDispatcher copies each accepted record to all the active
// write consumers and collects their confirmations.
type outputDispatcher struct {
	input     chan *access.OutputRecord
	outputs   []chan *access.OutputRecord
	wg        sync.WaitGroup
	runID     string
	mu        sync.Mutex
	written   map[string]int
	numFailed int
}

func (d *outputDispatcher) watchConfirmations(confirmChan <-chan save.ConfirmMsg) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for confirm := range confirmChan {
			d.mu.Lock()
			if confirm.Error != nil {
				d.numFailed++
				log.Error().
					Err(confirm.Error).
					Str("runId", d.runID).
					Str("sink", confirm.Sink).
					Msg("failed to save data")

			} else {
				d.written[confirm.Sink] += confirm.NumRecords
			}
			d.mu.Unlock()
		}
	}()
}

func (d *outputDispatcher) addOutput(bufferSize int) chan *access.OutputRecord {
	ch := make(chan *access.OutputRecord, bufferSize)
	d.outputs = append(d.outputs, ch)
	return ch
}

func (d *outputDispatcher) run() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for rec := range d.input {
			for _, out := range d.outputs {
				out <- rec
			}
		}
		for _, out := range d.outputs {
			close(out)
		}
	}()
}

// Input returns a channel for accepted records
func (d *outputDispatcher) Input() chan<- *access.OutputRecord {
	return d.input
}

// Finish closes the input and waits for all the write
// consumers to finish
func (d *outputDispatcher) Finish() {
	close(d.input)
	d.wg.Wait()
	d.mu.Lock()
	defer d.mu.Unlock()
	for sink, num := range d.written {
		log.Info().Str("runId", d.runID).Str("sink", sink).Int("numWritten", num).Msg("write consumer finished")
	}
	if d.numFailed > 0 {
		log.Warn().Str("runId", d.runID).Int("numFailedWrites", d.numFailed).Msg("some data were not saved")
	}
}

func newOutputDispatcher(ctx context.Context, conf *config.Main, dryRun bool, runID string) *outputDispatcher {
	d := &outputDispatcher{
		input:   make(chan *access.OutputRecord),
		outputs: make([]chan *access.OutputRecord, 0, 2),
		runID:   runID,
		written: make(map[string]int),
	}
	if dryRun {
		log.Warn().Msg("using dry-run mode, output goes to stdout")
		d.watchConfirmations(save.RunWriteConsumer(d.addOutput(100), os.Stdout))

	} else {
		if conf.HasElasticOut() {
			// pending chunks must be written even after the reading is cancelled
			d.watchConfirmations(elastic.RunWriteConsumer(
				context.WithoutCancel(ctx), &conf.ElasticSearch, d.addOutput(conf.ElasticSearch.PushChunkSize*2)))
		}
		if conf.HasInfluxOut() {
			d.watchConfirmations(influx.RunWriteConsumer(
				&conf.InfluxDB, d.addOutput(conf.InfluxDB.PushChunkSize)))
		}
		if len(d.outputs) == 0 {
			log.Warn().Msg("no output database configured, accepted records will be only counted")
			d.watchConfirmations(save.RunWriteConsumer(d.addOutput(100), nil))
		}
	}
	d.run()
	return d
}
