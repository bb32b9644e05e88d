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

import "time"

const (
	isoDateLayout     = "2006-01-02"
	isoDatetimeLayout = "2006-01-02T15:04:05"
)

// AccessRecord is a validated, countable access to a journal resource.
// It is produced only for lines which passed all the validation steps
// and it should be treated as immutable.
type AccessRecord struct {
	IP            string            `json:"ip"`
	OriginalDate  string            `json:"original_date"`
	OriginalAgent string            `json:"original_agent"`
	AccessType    AccessType        `json:"access_type"`
	ISODate       string            `json:"iso_date"`
	ISODatetime   string            `json:"iso_datetime"`
	QueryString   map[string]string `json:"query_string,omitempty"`
	Day           string            `json:"day"`
	Month         string            `json:"month"`
	Year          string            `json:"year"`
	Code          string            `json:"code"`
	Script        string            `json:"script"`
	PDFPath       string            `json:"pdf_path,omitempty"`
	PDFISSN       string            `json:"pdf_issn,omitempty"`

	accessTime time.Time
}

// GetTime returns the access time as written in the log
// (i.e. without any timezone correction)
func (r *AccessRecord) GetTime() time.Time {
	return r.accessTime
}

// IsPDF tests whether the record represents a PDF download
func (r *AccessRecord) IsPDF() bool {
	return r.AccessType == AccessPDF
}

func newAccessRecord(
	ip, origDate, origAgent string,
	accessTime time.Time,
	accessType AccessType,
	args map[string]string,
	res Resource,
) AccessRecord {
	isoDate := accessTime.Format(isoDateLayout)
	return AccessRecord{
		IP:            ip,
		OriginalDate:  origDate,
		OriginalAgent: origAgent,
		AccessType:    accessType,
		ISODate:       isoDate,
		ISODatetime:   accessTime.Format(isoDatetimeLayout),
		QueryString:   args,
		Day:           isoDate[8:10],
		Month:         isoDate[5:7],
		Year:          isoDate[0:4],
		Code:          res.Code,
		Script:        res.Script,
		PDFPath:       res.PDFPath,
		PDFISSN:       res.PDFISSN,
		accessTime:    accessTime,
	}
}
