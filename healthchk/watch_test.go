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

package healthchk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckStatus(t *testing.T) {
	watch := NewInactivityWatch([]string{"/var/log/a.log", "/var/log/b.log"}, time.Minute, nil)
	now := time.Now()
	assert.Empty(t, watch.CheckStatus(now))

	watch.Ping("/var/log/a.log", now.Add(2*time.Minute))
	later := now.Add(150 * time.Second)
	assert.Equal(t, []string{"/var/log/b.log"}, watch.CheckStatus(later))
	assert.True(t, watch.reported["/var/log/b.log"])

	watch.Ping("/var/log/b.log", later)
	assert.False(t, watch.reported["/var/log/b.log"])
	assert.Empty(t, watch.CheckStatus(later.Add(time.Second)))
	assert.Equal(t,
		[]string{"/var/log/a.log", "/var/log/b.log"},
		watch.CheckStatus(later.Add(10*time.Minute)),
	)
}

type sentNotification struct {
	subject string
	meta    map[string]any
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (fn *fakeNotifier) SendNotification(subject string, metadata map[string]any, paragraphs ...string) error {
	fn.mu.Lock()
	defer fn.mu.Unlock()
	fn.sent = append(fn.sent, sentNotification{subject: subject, meta: metadata})
	return fn.err
}

func TestCheckStatusNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	watch := NewInactivityWatch([]string{"/var/log/a.log", "/var/log/b.log"}, time.Minute, notifier)
	now := time.Now()
	watch.Ping("/var/log/a.log", now.Add(2*time.Minute))

	later := now.Add(150 * time.Second)
	assert.Equal(t, []string{"/var/log/b.log"}, watch.CheckStatus(later))
	assert.Equal(t, []string{"/var/log/b.log"}, watch.CheckStatus(later.Add(time.Second)))
	assert.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0].subject, "/var/log/b.log")
	assert.Equal(t, "/var/log/b.log", notifier.sent[0].meta["file"])

	watch.Ping("/var/log/b.log", later.Add(2*time.Second))
	watch.CheckStatus(later.Add(10 * time.Minute))
	assert.Len(t, notifier.sent, 3)
	assert.Contains(t, notifier.sent[1].subject, "/var/log/a.log")
	assert.Contains(t, notifier.sent[2].subject, "/var/log/b.log")
}

func TestCheckStatusNotifierFailure(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("service unavailable")}
	watch := NewInactivityWatch([]string{"/var/log/a.log"}, time.Minute, notifier)
	var inactive []string
	assert.NotPanics(t, func() { inactive = watch.CheckStatus(time.Now().Add(time.Hour)) })
	assert.Equal(t, []string{"/var/log/a.log"}, inactive)
	assert.Len(t, notifier.sent, 1)
	assert.True(t, watch.reported["/var/log/a.log"])
}

func TestNilWatchPing(t *testing.T) {
	var watch *InactivityWatch
	assert.NotPanics(t, func() { watch.Ping("/var/log/a.log", time.Now()) })
}

func TestRunStopsOnCancel(t *testing.T) {
	watch := NewInactivityWatch([]string{"/var/log/a.log"}, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		watch.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}
