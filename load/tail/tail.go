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

// Package tail follows continuously written log files and passes
// new lines to a processor.
package tail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"scilogproc/access"
	"scilogproc/healthchk"
	"scilogproc/load"
	"scilogproc/notifications"

	"github.com/hpcloud/tail"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Conf specifies files to be followed
type Conf struct {
	Files []string `json:"files"`

	// FromEnd instructs the reader to ignore already
	// written content of the files
	FromEnd bool `json:"fromEnd"`

	// MaxInactivitySecs enables reporting of files which have not
	// been written to for the specified time (0 = disabled)
	MaxInactivitySecs int `json:"maxInactivitySecs"`
}

func (conf *Conf) maxInactivity() time.Duration {
	return time.Duration(conf.MaxInactivitySecs) * time.Second
}

func (conf *Conf) Validate() error {
	if len(conf.Files) == 0 {
		return errors.New("no files configured for the tail action")
	}
	for _, f := range conf.Files {
		if strings.TrimSpace(f) == "" {
			return errors.New("empty file path in logTail.files")
		}
	}
	if conf.MaxInactivitySecs < 0 {
		return errors.New("logTail.maxInactivitySecs must be >= 0")
	}
	return nil
}

func followFile(
	ctx context.Context,
	filePath string,
	fromEnd bool,
	proc load.LineProcessor,
	out chan<- *access.OutputRecord,
	stats *load.Stats,
	watch *healthchk.InactivityWatch,
) error {
	tconf := tail.Config{
		Follow: true,
		ReOpen: true,
		Logger: tail.DiscardingLogger,
	}
	if fromEnd {
		tconf.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}
	t, err := tail.TailFile(filePath, tconf)
	if err != nil {
		return fmt.Errorf("failed to tail %s: %w", filePath, err)
	}
	defer t.Cleanup()
	log.Info().Str("file", filePath).Bool("fromEnd", fromEnd).Msg("following log file")
	for {
		select {
		case <-ctx.Done():
			if err := t.Stop(); err != nil {
				log.Warn().Err(err).Str("file", filePath).Msg("failed to stop tail reader cleanly")
			}
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				log.Error().Err(line.Err).Str("file", filePath).Msg("failed to read line")
				continue
			}
			watch.Ping(filePath, line.Time)
			rec, err := proc.ProcessLine(line.Text)
			stats.Register(err)
			if err != nil {
				log.Debug().
					Str("file", filePath).
					Str("reason", access.RejectionReason(err)).
					Err(err).
					Msg("line rejected")
				continue
			}
			select {
			case out <- rec:
			case <-ctx.Done():
			}
		}
	}
}

// Run follows all the configured files until the context is cancelled.
// Inactive files are reported via the notifier which can be nil.
// The out channel is not closed by the function.
func Run(
	ctx context.Context,
	conf *Conf,
	proc load.LineProcessor,
	out chan<- *access.OutputRecord,
	notifier notifications.Notifier,
) (*load.Stats, error) {
	stats := &load.Stats{}
	eg, egCtx := errgroup.WithContext(ctx)
	var watch *healthchk.InactivityWatch
	if conf.MaxInactivitySecs > 0 {
		watch = healthchk.NewInactivityWatch(conf.Files, conf.maxInactivity(), notifier)
		go watch.Run(egCtx, max(conf.maxInactivity()/2, time.Second))
	}
	for _, fp := range conf.Files {
		eg.Go(func() error {
			return followFile(egCtx, fp, conf.FromEnd, proc, out, stats, watch)
		})
	}
	err := eg.Wait()
	return stats, err
}
