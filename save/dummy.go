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
	"fmt"
	"io"

	"scilogproc/access"

	"github.com/rs/zerolog/log"
)

const (
	SinkStdout = "stdout"
)

// RunWriteConsumer runs a dummy write consumer which (optionally)
// prints each record as a JSON line to the provided writer.
// With nil writer, records are just confirmed.
func RunWriteConsumer(incomingData <-chan *access.OutputRecord, w io.Writer) <-chan ConfirmMsg {
	confirmChan := make(chan ConfirmMsg)
	go func() {
		defer close(confirmChan)
		for item := range incomingData {
			out, jsonError := item.ToJSON()
			if jsonError != nil {
				log.Error().Err(jsonError).Str("id", item.GetID()).Msg("failed to encode record")

			} else if w != nil {
				fmt.Fprintln(w, string(out))
			}
			confirmChan <- ConfirmMsg{
				Sink:       SinkStdout,
				NumRecords: 1,
				Error:      jsonError,
			}
		}
	}()
	return confirmChan
}
