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
	"net/url"
	"strings"
)

const (
	DefaultEntryPoint = "scielo.php"
)

// AccessType specifies a kind of resource access
type AccessType string

const (
	AccessNone AccessType = ""
	AccessPDF  AccessType = "PDF"
	AccessHTML AccessType = "HTML"
)

// requestLine is a split version of a request line
// (e.g. GET /index.html HTTP/1.1)
type requestLine struct {
	method string
	target string
	raw    string
}

func splitRequestLine(raw string) requestLine {
	items := strings.Fields(raw)
	ans := requestLine{raw: raw}
	if len(items) > 0 {
		ans.method = items[0]
	}
	if len(items) > 1 {
		ans.target = items[1]
	}
	return ans
}

// queryArgs extracts query arguments from a request target
// (either a path or a full URL). Blank values are ignored and
// in case a key repeats, the last value wins.
func queryArgs(target string) map[string]string {
	_, rawQuery, found := strings.Cut(target, "?")
	if !found {
		return nil
	}
	rawQuery, _, _ = strings.Cut(rawQuery, "#")
	// url.ParseQuery keeps all the well-formed pairs even if it
	// returns an error for some malformed ones
	values, _ := url.ParseQuery(rawQuery)
	ans := make(map[string]string, len(values))
	for k, vals := range values {
		for i := len(vals) - 1; i >= 0; i-- {
			if vals[i] != "" {
				ans[k] = vals[i]
				break
			}
		}
	}
	if len(ans) == 0 {
		return nil
	}
	return ans
}

// Classify determines whether a request line (e.g. GET /pdf/rsp/v45n3/a01.pdf HTTP/1.1)
// represents a PDF access, an HTML article view or none of these. The entryPoint
// is the legacy script handling query-string based views (scielo.php by default).
func Classify(rawRequest, entryPoint string) AccessType {
	return classify(splitRequestLine(rawRequest), entryPoint)
}

func classify(req requestLine, entryPoint string) AccessType {
	if req.method != "GET" {
		return AccessNone
	}
	if strings.Contains(req.target, ".pdf") || strings.Contains(req.target, "/pdf/") {
		return AccessPDF
	}
	if strings.Contains(req.target, "/article/") {
		return AccessHTML
	}
	if entryPoint != "" && strings.Contains(req.target, entryPoint) {
		args := queryArgs(req.target)
		_, hasScript := args["script"]
		_, hasPID := args["pid"]
		if hasScript && hasPID {
			return AccessHTML
		}
	}
	return AccessNone
}
