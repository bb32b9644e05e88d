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

package main

import (
	"context"
	"net"

	"scilogproc/access"
	"scilogproc/catalog"
	"scilogproc/config"
	"scilogproc/load/accesslog"
	"scilogproc/robots"

	"github.com/oschwald/geoip2-golang"
	"github.com/phuslu/iploc"
	"github.com/rs/zerolog/log"
)

func applyLocation(rec *access.OutputRecord, db *geoip2.Reader, useEmbedded bool) {
	ip := net.ParseIP(rec.IP)
	if ip == nil {
		return
	}
	if db != nil {
		city, err := db.City(ip)
		if err != nil {
			log.Error().Err(err).Msgf("Failed to fetch GeoIP data for IP %s.", ip.String())

		} else {
			rec.SetLocation(city.Country.Names["en"], float32(city.Location.Latitude),
				float32(city.Location.Longitude), city.Location.TimeZone)
			rec.SetCountryCode(city.Country.IsoCode)
		}
		return
	}
	if useEmbedded {
		if code := iploc.Country(ip); code != "" {
			rec.SetCountryCode(code)
		}
	}
}

// logProcessor turns raw log lines into export ready records
// of a single collection
type logProcessor struct {
	validator   *access.Validator
	geoIPDb     *geoip2.Reader
	embeddedGeo bool
}

func (p *logProcessor) ProcessLine(line string) (*access.OutputRecord, error) {
	rec, err := p.validator.Validate(line)
	if err != nil {
		return nil, err
	}
	ans := access.NewOutputRecord(rec, p.validator.Collection())
	applyLocation(ans, p.geoIPDb, p.embeddedGeo)
	return ans, nil
}

// Close releases resources held by the processor
func (p *logProcessor) Close() {
	if p.geoIPDb != nil {
		p.geoIPDb.Close()
	}
}

// newLogProcessor loads all the data required to validate
// log lines. Any problem here terminates the program.
func newLogProcessor(ctx context.Context, conf *config.Main) *logProcessor {
	grammar, err := accesslog.NewGrammar(conf.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid logFormat")
	}
	robotFilter, err := robots.Load(conf.RobotsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load robots list")
	}
	validator, err := access.NewValidatorForCollection(
		ctx,
		catalog.NewClient(&conf.Catalog),
		conf.Collection,
		robotFilter,
		grammar,
		conf.ValidatorOptions(),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize log processing")
	}
	ans := &logProcessor{
		validator:   validator,
		embeddedGeo: conf.EmbeddedGeoIP,
	}
	if conf.GeoIPDbPath != "" {
		ans.geoIPDb, err = geoip2.Open(conf.GeoIPDbPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open GeoIP database")
		}
	}
	return ans
}
