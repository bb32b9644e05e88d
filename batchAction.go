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
	"time"

	"scilogproc/config"
	"scilogproc/load/batch"

	"github.com/czcorpus/cnc-gokit/datetime"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func runBatchAction(ctx context.Context, conf *config.Main, proc *logProcessor, dryRun bool) {
	runID := uuid.New().String()
	started := time.Now()
	log.Info().
		Str("runId", runID).
		Str("collection", conf.Collection).
		Str("srcPath", conf.LogFiles.SrcPath).
		Msg("starting batch processing")
	dispatcher := newOutputDispatcher(ctx, conf, dryRun, runID)
	stats, err := batch.Run(ctx, conf.LogFiles, proc, dispatcher.Input())
	dispatcher.Finish()
	if err != nil {
		log.Error().Err(err).Str("runId", runID).Msg("batch processing failed")
	}
	if stats != nil {
		log.Info().
			Str("runId", runID).
			Str("started", datetime.FormatDatetime(started)).
			Dur("duration", time.Since(started)).
			Object("stats", stats).
			Msg("batch processing finished")
	}
}
