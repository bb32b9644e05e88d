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

// Package catalog provides information about collections and journals
// as maintained by an external metadata service. The access validation
// needs just a read-only "acronym -> ISSN" table of a single collection.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/czcorpus/cnc-gokit/collections"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownCollection = errors.New("unknown collection")
)

// Collection is a group of journals served by a single
// deployment instance
type Collection struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Journal describes a journal with its website acronym and
// the ISSN used as journal ID in the platform
type Journal struct {
	Acronym    string `json:"acronym"`
	ScieloISSN string `json:"scielo_issn"`
	Title      string `json:"title"`
}

// Client is a metadata service able to provide collections
// and their journals.
type Client interface {
	Collections(ctx context.Context) ([]Collection, error)
	Journals(ctx context.Context, collection string) ([]Journal, error)
}

// LookupTable maps journal acronyms to their ISSNs within
// a single collection. It is immutable once created.
type LookupTable struct {
	collection string
	issnByAcr  map[string]string
	issns      *collections.Set[string]
}

// Collection returns code of the collection the table belongs to
func (lt *LookupTable) Collection() string {
	return lt.collection
}

// ISSNOf returns an ISSN of a journal identified by its acronym
func (lt *LookupTable) ISSNOf(acronym string) (string, bool) {
	v, ok := lt.issnByAcr[acronym]
	return v, ok
}

// HasISSN tests whether the ISSN belongs to a known journal
func (lt *LookupTable) HasISSN(issn string) bool {
	return lt.issns.Contains(issn)
}

// Size returns number of journals in the table
func (lt *LookupTable) Size() int {
	return len(lt.issnByAcr)
}

// NewLookupTable creates a table out of a list of journals. Journals
// without acronym or ISSN are ignored.
func NewLookupTable(collection string, journals []Journal) *LookupTable {
	ans := &LookupTable{
		collection: collection,
		issnByAcr:  make(map[string]string, len(journals)),
		issns:      collections.NewSet[string](),
	}
	for _, j := range journals {
		if j.Acronym == "" || j.ScieloISSN == "" {
			log.Debug().Str("title", j.Title).Msg("ignoring journal with incomplete identification")
			continue
		}
		ans.issnByAcr[j.Acronym] = j.ScieloISSN
		ans.issns.Add(j.ScieloISSN)
	}
	return ans
}

// LoadLookupTable verifies that the collection is known to the metadata
// service and loads its journals. Any error here is meant to be fatal
// for the caller as no access can be validated without the table.
func LoadLookupTable(ctx context.Context, client Client, collection string) (*LookupTable, error) {
	colls, err := client.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve collections: %w", err)
	}
	codes := make([]string, len(colls))
	for i, c := range colls {
		codes[i] = c.Code
	}
	if !collections.SliceContains(codes, collection) {
		sort.Strings(codes)
		return nil, fmt.Errorf(
			"%w %s, you must select one of these: %s",
			ErrUnknownCollection, collection, strings.Join(codes, ", "))
	}
	journals, err := client.Journals(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve journals of %s: %w", collection, err)
	}
	ans := NewLookupTable(collection, journals)
	log.Info().
		Str("collection", collection).
		Int("numJournals", ans.Size()).
		Msg("loaded journal lookup table")
	return ans, nil
}
