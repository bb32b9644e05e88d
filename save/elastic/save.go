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

package elastic

import (
	"context"
	"encoding/json"

	"scilogproc/access"
	"scilogproc/save"

	"github.com/rs/zerolog/log"
)

const (
	SinkElastic = "elasticsearch"
)

// RecordMeta contains meta information for a record
// as required by ElasticSearch bulk insert
type RecordMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

// BulkRecordMeta is just a wrapper for RecordMeta
// as used when importing data
type BulkRecordMeta struct {
	Index RecordMeta `json:"index"`
}

// ToJSON serializes the record to JSON
func (brm *BulkRecordMeta) ToJSON() ([]byte, error) {
	return json.Marshal(brm)
}

func (c *ESClient) flush(ctx context.Context, data [][]byte) save.ConfirmMsg {
	err := c.BulkWrite(ctx, data)
	if err != nil {
		log.Error().Err(err).Msg("failed to save a data chunk to ElasticSearch")

	} else {
		log.Info().Int("numItems", len(data)/2).Msg("inserted chunk of items to ElasticSearch")
	}
	return save.ConfirmMsg{Sink: SinkElastic, NumRecords: len(data) / 2, Error: err}
}

// RunWriteConsumer reads incoming records from incomingData channel and writes them
// chunk by chunk. Once the channel is closed, the rest of items in buffer is written
// and the consumer finishes.
func RunWriteConsumer(
	ctx context.Context,
	conf *ConnectionConf,
	incomingData <-chan *access.OutputRecord,
) <-chan save.ConfirmMsg {
	confirmChan := make(chan save.ConfirmMsg)
	go func() {
		defer close(confirmChan)
		esclient := NewClient(conf)
		chunkSize := max(conf.PushChunkSize, 1)
		data := make([][]byte, 0, chunkSize*2)
		for rec := range incomingData {
			jsonData, err := rec.ToJSON()
			if err != nil {
				log.Error().Err(err).Str("id", rec.GetID()).Msg("failed to encode item")
				continue
			}
			meta := BulkRecordMeta{Index: RecordMeta{ID: rec.GetID(), Index: conf.Index}}
			jsonMeta, err := meta.ToJSON()
			if err != nil {
				log.Error().Err(err).Str("id", rec.GetID()).Msg("failed to encode item metadata")
				continue
			}
			data = append(data, jsonMeta, jsonData)
			if len(data) == chunkSize*2 {
				confirmChan <- esclient.flush(ctx, data)
				data = data[:0]
			}
		}
		if len(data) > 0 {
			confirmChan <- esclient.flush(ctx, data)
		}
	}()
	return confirmChan
}
