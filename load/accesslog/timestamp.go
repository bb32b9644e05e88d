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

package accesslog

import (
	"strconv"
	"strings"
	"time"
)

// timestamps are expected in form [DD/Mon/YYYY:HH:MM:SS +HHMM]
// from which we use just the part between '[' and the timezone
const (
	tsPrefixLength = 21
)

var monthTable = map[string]time.Month{
	"JAN": time.January,
	"FEB": time.February,
	"MAR": time.March,
	"APR": time.April,
	"MAY": time.May,
	"JUN": time.June,
	"JUL": time.July,
	"AUG": time.August,
	"SEP": time.September,
	"OCT": time.October,
	"NOV": time.November,
	"DEC": time.December,
}

func atoiFixed(s string, min, max int) (int, bool) {
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < min || v > max {
		return 0, false
	}
	return v, true
}

// ParseTimestamp parses an access log timestamp token. The timezone
// offset is ignored - i.e. the returned time (in UTC location) represents
// a "naive" time exactly as written in the log.
func ParseTimestamp(token string) (time.Time, error) {
	if len(token) < tsPrefixLength || token[0] != '[' {
		return time.Time{}, ErrParseFailure
	}
	v := token[1:tsPrefixLength]
	// DD/Mon/YYYY:HH:MM:SS
	if v[2] != '/' || v[6] != '/' || v[11] != ':' || v[14] != ':' || v[17] != ':' {
		return time.Time{}, ErrParseFailure
	}
	month, ok := monthTable[strings.ToUpper(v[3:6])]
	if !ok {
		return time.Time{}, ErrParseFailure
	}
	year, ok1 := atoiFixed(v[7:11], 1, 9999)
	day, ok2 := atoiFixed(v[0:2], 1, 31)
	hour, ok3 := atoiFixed(v[12:14], 0, 23)
	minute, ok4 := atoiFixed(v[15:17], 0, 59)
	sec, ok5 := atoiFixed(v[18:20], 0, 59)
	if !(ok1 && ok2 && ok3 && ok4 && ok5) {
		return time.Time{}, ErrParseFailure
	}
	ans := time.Date(year, month, day, hour, minute, sec, 0, time.UTC)
	if ans.Day() != day { // e.g. 31/Feb
		return time.Time{}, ErrParseFailure
	}
	return ans, nil
}
