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
	"scilogproc/load/tail"
	"scilogproc/notifications"

	"github.com/czcorpus/cnc-gokit/datetime"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// runTailAction follows configured log files until the
// context is cancelled (typically by SIGINT/SIGTERM)
func runTailAction(ctx context.Context, conf *config.Main, proc *logProcessor, dryRun bool) {
	runID := uuid.New().String()
	started := time.Now()
	log.Info().
		Str("runId", runID).
		Str("collection", conf.Collection).
		Strs("files", conf.LogTail.Files).
		Msg("starting tail processing")
	notifier, err := notifications.NewNotifier(
		conf.EmailNotification, conf.ConomiNotification, time.Local)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize notifier")
	}
	dispatcher := newOutputDispatcher(ctx, conf, dryRun, runID)
	stats, err := tail.Run(ctx, conf.LogTail, proc, dispatcher.Input(), notifier)
	dispatcher.Finish()
	if err != nil {
		log.Error().Err(err).Str("runId", runID).Msg("tail processing failed")
	}
	log.Info().
		Str("runId", runID).
		Str("started", datetime.FormatDatetime(started)).
		Dur("duration", time.Since(started)).
		Object("stats", stats).
		Msg("tail processing finished")
}
