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
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

const (
	// RecordType is a storage identifier of exported access records
	RecordType = "access"
)

// GeoDataRecord represents a client geographical position
// as provided by a GeoIP database
type GeoDataRecord struct {
	CountryCode string     `json:"country_code2,omitempty"`
	CountryName string     `json:"country_name,omitempty"`
	IP          string     `json:"ip"`
	Latitude    float32    `json:"latitude"`
	Longitude   float32    `json:"longitude"`
	Location    [2]float32 `json:"location"`
	Timezone    string     `json:"timezone"`
}

// OutputRecord is an export ready version of AccessRecord
type OutputRecord struct {
	AccessRecord
	ID         string         `json:"-"`
	Type       string         `json:"type"`
	Collection string         `json:"collection"`
	GeoIP      *GeoDataRecord `json:"geoip,omitempty"`
}

// SetLocation sets all the location related properties
func (r *OutputRecord) SetLocation(countryName string, latitude float32, longitude float32, timezone string) {
	if r.GeoIP == nil {
		r.GeoIP = &GeoDataRecord{IP: r.IP}
	}
	r.GeoIP.CountryName = countryName
	r.GeoIP.Latitude = latitude
	r.GeoIP.Longitude = longitude
	r.GeoIP.Location = [2]float32{longitude, latitude}
	r.GeoIP.Timezone = timezone
}

// SetCountryCode sets an ISO 3166-1 alpha-2 country code of the client
func (r *OutputRecord) SetCountryCode(code string) {
	if r.GeoIP == nil {
		r.GeoIP = &GeoDataRecord{IP: r.IP}
	}
	r.GeoIP.CountryCode = code
}

// ToJSON converts data to a JSON document (typically for ElasticSearch)
func (r *OutputRecord) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// ToInfluxDB creates tags and values to store in InfluxDB
func (r *OutputRecord) ToInfluxDB() (tags map[string]string, values map[string]any) {
	tags = map[string]string{
		"access_type": string(r.AccessType),
		"collection":  r.Collection,
	}
	if r.Script != "" {
		tags["script"] = r.Script
	}
	if r.PDFISSN != "" {
		tags["issn"] = r.PDFISSN
	}
	values = map[string]any{
		"count": 1,
	}
	return
}

// GetID returns a unique ID of the record
func (r *OutputRecord) GetID() string {
	return r.ID
}

// GetType returns the record type identifier
func (r *OutputRecord) GetType() string {
	return r.Type
}

// GetTime returns the access time
func (r *OutputRecord) GetTime() time.Time {
	return r.AccessRecord.GetTime()
}

func (r *OutputRecord) generateDeterministicID() string {
	str := strings.Join(
		[]string{
			r.Collection,
			r.IP,
			r.ISODatetime,
			string(r.AccessType),
			r.Code,
			r.Script,
			r.OriginalAgent,
		},
		"\t",
	)
	sum := sha1.Sum([]byte(str))
	return hex.EncodeToString(sum[:])
}

// NewOutputRecord creates an export ready record for a collection.
// The ID is derived from the record contents so reprocessing the same
// log produces the same IDs. Timestamps have a one second resolution
// which means that identical requests of the same client within a single
// second share the ID and are stored as a single document.
func NewOutputRecord(rec AccessRecord, collection string) *OutputRecord {
	ans := &OutputRecord{
		AccessRecord: rec,
		Type:         RecordType,
		Collection:   collection,
	}
	ans.ID = ans.generateDeterministicID()
	return ans
}
