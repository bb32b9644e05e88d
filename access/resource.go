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
	"regexp"
	"strings"

	"scilogproc/catalog"
	"scilogproc/pid"
)

var (
	// clean URL article views, e.g. /article/csp/2020.v36n1/e00012/
	cleanArticleURL = regexp.MustCompile(`/article/[^/\s]+/[^/\s]+/(?:[^/\s]+/)?`)

	// PDF paths like /pdf/rsp/v45n3/en_1234.pdf; the last segment
	// must be followed by a whitespace (i.e. the protocol part of the request)
	pdfPath = regexp.MustCompile(`(/pdf/.+?/.+?/\S+)\s`)

	// truncated PDF URLs (e.g. .../v45n3/en) are normalized to a directory path
	pdfTruncatedSuffix = regexp.MustCompile(`/(\D\D)?$`)

	scriptShapes = map[string][]pid.Shape{
		"sci_arttext":  {pid.ShapeArticle, pid.ShapeLegacyArticle},
		"sci_abstract": {pid.ShapeArticle, pid.ShapeLegacyArticle},
		"sci_pdf":      {pid.ShapeArticle, pid.ShapeLegacyArticle},
		"sci_serial":   {pid.ShapeISSN},
		"sci_issues":   {pid.ShapeISSN},
		"sci_issuetoc": {pid.ShapeIssue},
	}
)

// Resource is a validated target of an access
type Resource struct {
	Code    string
	Script  string
	PDFPath string
	PDFISSN string
}

// ResourceValidator checks whether a classified request refers
// to an existing journal and a properly formed identifier.
type ResourceValidator struct {
	table    *catalog.LookupTable
	patterns *pid.Patterns
}

// ValidateHTML validates an HTML article/issue/journal view. Both
// the "clean URL" (/article/...) and the legacy query string
// (script=...&pid=...) forms are supported.
func (rv *ResourceValidator) ValidateHTML(rawRequest string, args map[string]string) (Resource, error) {
	if code := cleanArticleURL.FindString(rawRequest); code != "" {
		return Resource{Code: code}, nil
	}
	if len(args) == 0 {
		return Resource{}, reject(ErrValidationFailure, "missing query string")
	}
	script, hasScript := args["script"]
	rawPID, hasPID := args["pid"]
	if !hasScript || !hasPID {
		return Resource{}, reject(ErrValidationFailure, "missing script or pid argument")
	}
	if err := rv.validateScriptPID(script, rawPID); err != nil {
		return Resource{}, err
	}
	return Resource{Code: rawPID, Script: script}, nil
}

func (rv *ResourceValidator) validateScriptPID(script, rawPID string) error {
	normPID := pid.Normalize(rawPID)
	if !rv.table.HasISSN(pid.ISSNPrefix(normPID)) {
		return reject(ErrValidationFailure, "unknown ISSN in pid %s", rawPID)
	}
	shapes, ok := scriptShapes[script]
	if !ok {
		return reject(ErrValidationFailure, "unsupported script %s", script)
	}
	if !rv.patterns.MatchAny(normPID, shapes...) {
		return reject(ErrValidationFailure, "pid %s does not match script %s", rawPID, script)
	}
	return nil
}

// ValidateHTMLRequest is a variant of ValidateHTML extracting
// the query string from the request line itself.
func (rv *ResourceValidator) ValidateHTMLRequest(rawRequest string) (Resource, error) {
	return rv.ValidateHTML(rawRequest, queryArgs(splitRequestLine(rawRequest).target))
}

// ValidatePDF extracts and normalizes a PDF path from a request line
// and checks that the journal acronym found in the path is known.
func (rv *ResourceValidator) ValidatePDF(rawRequest string) (Resource, error) {
	if strings.TrimSpace(rawRequest) == "" {
		return Resource{}, reject(ErrValidationFailure, "empty request")
	}
	srch := pdfPath.FindStringSubmatch(rawRequest)
	if srch == nil {
		return Resource{}, reject(ErrValidationFailure, "no PDF path found")
	}
	matched := srch[1]
	if !strings.HasSuffix(strings.ToLower(matched), ".pdf") {
		matched = pdfTruncatedSuffix.ReplaceAllString(matched, "/")
	}
	path := matched
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	// path parameters (e.g. ;jsessionid=...) of the last segment
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		if j := strings.IndexByte(path[i:], ';'); j >= 0 {
			path = path[:i+j]
		}
	}
	if !strings.Contains(strings.ToLower(path), "pdf") {
		return Resource{}, reject(ErrValidationFailure, "invalid PDF path %s", path)
	}
	items := strings.Split(path, "/")
	if len(items) < 3 {
		return Resource{}, reject(ErrValidationFailure, "missing journal acronym in %s", path)
	}
	issn, ok := rv.table.ISSNOf(items[2])
	if !ok {
		return Resource{}, reject(ErrValidationFailure, "unknown journal acronym %s", items[2])
	}
	return Resource{Code: path, PDFPath: path, PDFISSN: issn}, nil
}

// NewResourceValidator creates a validator bound to a collection
// lookup table
func NewResourceValidator(table *catalog.LookupTable, patterns *pid.Patterns) *ResourceValidator {
	return &ResourceValidator{table: table, patterns: patterns}
}
