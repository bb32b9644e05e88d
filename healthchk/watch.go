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

// Package healthchk watches followed log files and reports
// the ones which have not been written to for too long.
package healthchk

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"scilogproc/notifications"

	"github.com/rs/zerolog/log"
)

// InactivityWatch stores information about last updates of log files.
// All the methods can be called concurrently. A nil watch ignores
// any updates.
type InactivityWatch struct {
	dataLock      sync.Mutex
	lastUpdate    map[string]time.Time
	reported      map[string]bool
	maxInactivity time.Duration
	notifier      notifications.Notifier
}

// Ping stores information about log's last change.
func (lwatch *InactivityWatch) Ping(logPath string, dt time.Time) {
	if lwatch == nil {
		return
	}
	lwatch.dataLock.Lock()
	defer lwatch.dataLock.Unlock()
	if _, ok := lwatch.lastUpdate[logPath]; !ok {
		log.Error().
			Str("file", logPath).
			Msg("InactivityWatch encountered an unconfigured file (probably a config. error)")
	}
	lwatch.lastUpdate[logPath] = dt
	if lwatch.reported[logPath] {
		log.Info().Str("file", logPath).Msg("log file is active again")
		delete(lwatch.reported, logPath)
	}
}

// CheckStatus returns (sorted) files inactive for longer than the
// configured limit. Each inactivity period is logged and sent via
// the notifier (if any) just once.
func (lwatch *InactivityWatch) CheckStatus(now time.Time) []string {
	ans, newlyInactive := lwatch.findInactive(now)
	for _, logPath := range newlyInactive {
		lwatch.notify(logPath, now)
	}
	return ans
}

func (lwatch *InactivityWatch) findInactive(now time.Time) ([]string, []string) {
	lwatch.dataLock.Lock()
	defer lwatch.dataLock.Unlock()
	ans := make([]string, 0, len(lwatch.lastUpdate))
	newlyInactive := make([]string, 0, len(lwatch.lastUpdate))
	for logPath, dt := range lwatch.lastUpdate {
		if now.Sub(dt) > lwatch.maxInactivity {
			ans = append(ans, logPath)
			if !lwatch.reported[logPath] {
				newlyInactive = append(newlyInactive, logPath)
				lwatch.reported[logPath] = true
			}
		}
	}
	sort.Strings(ans)
	sort.Strings(newlyInactive)
	return ans, newlyInactive
}

func (lwatch *InactivityWatch) notify(logPath string, now time.Time) {
	log.Error().
		Str("file", logPath).
		Float64("limitSecs", lwatch.maxInactivity.Seconds()).
		Msg("log file seems inactive for too long")
	if lwatch.notifier == nil {
		return
	}
	subj := fmt.Sprintf(
		"log file %s seems inactive for too long (limit: %01.0f sec.)",
		logPath,
		lwatch.maxInactivity.Seconds(),
	)
	meta := map[string]any{
		"file":      logPath,
		"limitSecs": lwatch.maxInactivity.Seconds(),
		"checked":   now,
	}
	if err := lwatch.notifier.SendNotification(subj, meta, subj); err != nil {
		log.Error().
			Err(err).
			Str("file", logPath).
			Msg("failed to send inactivity warning")
	}
}

// Run performs regular checks until the context is cancelled
func (lwatch *InactivityWatch) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("InactivityWatch closing due to cancellation")
			return
		case now := <-ticker.C:
			lwatch.CheckStatus(now)
		}
	}
}

// NewInactivityWatch creates a watch for the provided files.
// All the files are considered updated at the time of the call.
// The notifier can be nil in which case only the log is used.
func NewInactivityWatch(
	filesToWatch []string,
	maxInactivity time.Duration,
	notifier notifications.Notifier,
) *InactivityWatch {
	now := time.Now()
	lastUpdate := make(map[string]time.Time, len(filesToWatch))
	for _, f := range filesToWatch {
		lastUpdate[f] = now
	}
	return &InactivityWatch{
		lastUpdate:    lastUpdate,
		reported:      make(map[string]bool),
		maxInactivity: maxInactivity,
		notifier:      notifier,
	}
}
