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

// Package access decides whether a single access log line represents
// a legitimate, countable access to a journal, issue or article.
package access

import (
	"context"
	"fmt"
	"strings"

	"scilogproc/catalog"
	"scilogproc/load/accesslog"
	"scilogproc/pid"
	"scilogproc/robots"
)

// Options contains optional validator settings
type Options struct {

	// EntryPoint is the script serving legacy query-string based views
	EntryPoint string

	// CounterCompliant marks validators producing data for COUNTER
	// compliant reports. The line validation rules are the same.
	CounterCompliant bool
}

// Validator turns raw log lines into AccessRecords. It does not hold
// any mutable state so a single instance can be used by any number
// of goroutines.
type Validator struct {
	grammar   *accesslog.Grammar
	robots    *robots.Filter
	resources *ResourceValidator
	opts      Options
}

// Collection returns code of the collection the validator is bound to
func (v *Validator) Collection() string {
	return v.resources.table.Collection()
}

// CounterCompliant says whether the validator was created in the
// COUNTER compliant mode
func (v *Validator) CounterCompliant() bool {
	return v.opts.CounterCompliant
}

// Validate processes a single log line. On success, a complete record
// is returned. Otherwise a Rejection error is returned describing
// why the line was rejected.
func (v *Validator) Validate(line string) (AccessRecord, error) {
	fields, err := v.grammar.Parse(line)
	if err != nil {
		return AccessRecord{}, reject(ErrParseFailure, "line does not match log format")
	}
	userAgent, _ := fields.UserAgent()
	if v.robots.IsRobot(userAgent) {
		return AccessRecord{}, reject(ErrRobot, userAgent)
	}
	rawTime, _ := fields.Timestamp()
	accessTime, err := accesslog.ParseTimestamp(rawTime)
	if err != nil {
		return AccessRecord{}, reject(ErrParseFailure, "invalid timestamp %s", rawTime)
	}
	rawRequest, _ := fields.Request()
	req := splitRequestLine(rawRequest)
	accessType := classify(req, v.opts.EntryPoint)
	args := queryArgs(req.target)

	var res Resource
	switch accessType {
	case AccessHTML:
		res, err = v.resources.ValidateHTML(rawRequest, args)
	case AccessPDF:
		res, err = v.resources.ValidatePDF(rawRequest)
	default:
		return AccessRecord{}, reject(ErrClassificationMiss, rawRequest)
	}
	if err != nil {
		return AccessRecord{}, err
	}
	ip, _ := fields.ClientAddr()
	return newAccessRecord(
		strings.TrimSpace(ip),
		rawTime,
		userAgent,
		accessTime,
		accessType,
		args,
		res,
	), nil
}

// ParsedAccess is a simplified variant of Validate which
// returns nil for any rejected line.
func (v *Validator) ParsedAccess(line string) *AccessRecord {
	rec, err := v.Validate(line)
	if err != nil {
		return nil
	}
	return &rec
}

// NewValidator creates a validator from already prepared collaborators.
func NewValidator(
	table *catalog.LookupTable,
	robotFilter *robots.Filter,
	grammar *accesslog.Grammar,
	opts Options,
) *Validator {
	if opts.EntryPoint == "" {
		opts.EntryPoint = DefaultEntryPoint
	}
	if robotFilter == nil {
		robotFilter = robots.NewFilter([]string{})
	}
	return &Validator{
		grammar:   grammar,
		robots:    robotFilter,
		resources: NewResourceValidator(table, pid.NewPatterns()),
		opts:      opts,
	}
}

// NewValidatorForCollection loads journals of a collection from
// a metadata service and creates a validator for them.
// Any error returned here should be considered fatal.
func NewValidatorForCollection(
	ctx context.Context,
	client catalog.Client,
	collection string,
	robotFilter *robots.Filter,
	grammar *accesslog.Grammar,
	opts Options,
) (*Validator, error) {
	table, err := catalog.LoadLookupTable(ctx, client, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to create access validator: %w", err)
	}
	return NewValidator(table, robotFilter, grammar, opts), nil
}
