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

package access

import (
	"errors"
	"fmt"

	"scilogproc/load/accesslog"
)

var (
	// ErrParseFailure is returned for lines (or timestamps) not matching
	// the expected grammar
	ErrParseFailure = accesslog.ErrParseFailure

	// ErrRobot is returned for requests sent by a known robot
	ErrRobot = errors.New("robot access")

	// ErrClassificationMiss is returned for requests which are neither
	// PDF nor HTML accesses
	ErrClassificationMiss = errors.New("classification miss")

	// ErrValidationFailure is returned for classified requests which
	// do not resolve to a known, well-formed resource
	ErrValidationFailure = errors.New("validation failure")
)

// Rejection describes why a line does not represent a countable access.
// Use errors.Is with one of the Err* values to test the reason.
type Rejection struct {
	Reason error
	Detail string
}

func (r Rejection) Error() string {
	if r.Detail == "" {
		return r.Reason.Error()
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

func (r Rejection) Unwrap() error {
	return r.Reason
}

func reject(reason error, detail string, args ...any) Rejection {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return Rejection{Reason: reason, Detail: detail}
}

// RejectionReason provides a stable label for an error returned
// by the Validator (e.g. for processing summaries).
func RejectionReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrParseFailure):
		return "parse"
	case errors.Is(err, ErrRobot):
		return "robot"
	case errors.Is(err, ErrClassificationMiss):
		return "classification"
	case errors.Is(err, ErrValidationFailure):
		return "validation"
	default:
		return "other"
	}
}
