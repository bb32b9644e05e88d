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

package influx

import (
	"scilogproc/access"
	"scilogproc/save"

	"github.com/rs/zerolog/log"
)

const (
	SinkInflux = "influxdb"
)

// RunWriteConsumer reads from incomingData channel and stores the data
// to a configured InfluxDB measurement. For performance reasons, the actual
// database write is performed each time number of added items equals
// conf.PushChunkSize and also once the incomingData channel is closed.
func RunWriteConsumer(conf *ConnectionConf, incomingData <-chan *access.OutputRecord) <-chan save.ConfirmMsg {
	confirmChan := make(chan save.ConfirmMsg)
	go func() {
		defer close(confirmChan)
		writer, err := NewRecordWriter(conf)
		if err != nil {
			log.Error().Err(err).Msg("failed to create InfluxDB writer, records will be discarded")
			for range incomingData {
			}
			confirmChan <- save.ConfirmMsg{Sink: SinkInflux, Error: err}
			return
		}
		for rec := range incomingData {
			written, err := writer.AddRecord(rec)
			if err != nil {
				log.Error().Err(err).Str("id", rec.GetID()).Msg("failed to write to InfluxDB")
			}
			if written > 0 || err != nil {
				confirmChan <- save.ConfirmMsg{Sink: SinkInflux, NumRecords: written, Error: err}
			}
		}
		written, err := writer.Finish()
		if err != nil {
			log.Error().Err(err).Msg("failed to write remaining points to InfluxDB")
		}
		if written > 0 || err != nil {
			confirmChan <- save.ConfirmMsg{Sink: SinkInflux, NumRecords: written, Error: err}
		}
	}()
	return confirmChan
}
