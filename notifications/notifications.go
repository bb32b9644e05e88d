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


// Package notifications sends warnings to administrators
// (e.g. about log files which stopped being written to).
package notifications

import (
	"errors"
	"fmt"
	goMail "net/mail"
	"strings"
	"time"

	"github.com/czcorpus/cnc-gokit/mail"
	"github.com/czcorpus/conomi/client"
	"github.com/rs/zerolog/log"
)

const (
	defaultSender = "scilogproc@localhost"
)

// Notifier is a general type representing a service
// for sending warnings to administrators
type Notifier interface {
	SendNotification(subject string, metadata map[string]any, paragraphs ...string) error
}

// NewNotifier creates either an e-mail or a Conomi notifier.
// Both configurations are mutually exclusive. In case none
// is provided, a notifier which only writes to the log is returned.
//
// Missing e-mail sender is replaced by a default value.
func NewNotifier(
	emailConf *mail.NotificationConf,
	conomiConf *client.ConomiClientConf,
	loc *time.Location,
) (Notifier, error) {
	if emailConf != nil && conomiConf != nil {
		return nil, errors.New("either Conomi or e-mail notifier can be configured")
	}
	if conomiConf != nil {
		log.Info().Msg("creating Conomi notifier")
		return &conomiNotifier{client: client.NewConomiClient(*conomiConf)}, nil

	} else if emailConf != nil {
		if emailConf.Sender == "" {
			log.Warn().Msgf("e-mail sender not set - using default %s", defaultSender)
			emailConf.Sender = defaultSender
		}
		if len(emailConf.Recipients) == 0 {
			return nil, errors.New("no e-mail notification recipients configured")
		}
		validated := append([]string{emailConf.Sender}, emailConf.Recipients...)
		for _, addr := range validated {
			if _, err := goMail.ParseAddress(addr); err != nil {
				return nil, fmt.Errorf("incorrect e-mail address %s: %w", addr, err)
			}
		}
		log.Info().Msgf(
			"creating e-mail notifier with recipient(s) %s", strings.Join(emailConf.Recipients, ", "))
		if loc == nil {
			loc = time.Local
		}
		return &emailNotifier{conf: emailConf, loc: loc}, nil
	}
	return &nullNotifier{}, nil
}
