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

package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"scilogproc/access"
	"scilogproc/catalog"
	"scilogproc/common"
	"scilogproc/load/accesslog"
	"scilogproc/load/batch"
	"scilogproc/load/tail"
	"scilogproc/save/elastic"
	"scilogproc/save/influx"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/czcorpus/cnc-gokit/mail"
	conomiClient "github.com/czcorpus/conomi/client"
	"github.com/rs/zerolog/log"
)

const (
	ActionBatch   = "batch"
	ActionTail    = "tail"
	ActionCheck   = "check"
	ActionHelp    = "help"
	ActionVersion = "version"

	DefaultRobotsPath = "robots.txt"
	DefaultLogLevel   = "info"
)

// Main describes scilogproc's configuration
type Main struct {

	// Collection is a code of the collection the processed
	// logs belong to (e.g. scl, arg)
	Collection string `json:"collection"`

	// CounterCompliant is passed to the validator. It does not change
	// the validation rules.
	CounterCompliant bool `json:"counterCompliant"`

	// LogFormat is an Apache-style LogFormat of the processed logs
	LogFormat string `json:"logFormat"`

	// RobotsPath is a path or URL of a list of robot user agent patterns
	RobotsPath string `json:"robotsPath"`

	// ScriptEntryPoint is a name of the script serving legacy
	// query string based views
	ScriptEntryPoint string `json:"scriptEntryPoint"`

	Catalog     catalog.Conf `json:"catalog"`
	GeoIPDbPath string       `json:"geoIpDbPath"`

	// EmbeddedGeoIP enables a country-only client location using
	// an embedded database in case GeoIPDbPath is not set
	EmbeddedGeoIP bool `json:"embeddedGeoIp"`

	LogFiles      *batch.Conf            `json:"logFiles"`
	LogTail       *tail.Conf             `json:"logTail"`
	ElasticSearch elastic.ConnectionConf `json:"elasticSearch"`
	InfluxDB      influx.ConnectionConf  `json:"influxDb"`
	LogPath       string                 `json:"logPath"`
	LogLevel      string                 `json:"logLevel"`

	// EmailNotification and ConomiNotification are mutually exclusive
	// ways of reporting inactive log files (see logTail.maxInactivitySecs)
	EmailNotification  *mail.NotificationConf         `json:"emailNotification"`
	ConomiNotification *conomiClient.ConomiClientConf `json:"conomiNotification"`
}

// HasInfluxOut tests whether an InfluxDB
// output is configured
func (c *Main) HasInfluxOut() bool {
	return c.InfluxDB.IsConfigured()
}

// HasElasticOut tests whether an ElasticSearch
// output is configured
func (c *Main) HasElasticOut() bool {
	return c.ElasticSearch.IsConfigured()
}

// ValidatorOptions returns options for access.Validator
func (c *Main) ValidatorOptions() access.Options {
	return access.Options{
		EntryPoint:       c.ScriptEntryPoint,
		CounterCompliant: c.CounterCompliant,
	}
}

// ApplyDefaults sets default values of missing optional items
func (c *Main) ApplyDefaults() {
	if c.LogFormat == "" {
		c.LogFormat = accesslog.DefaultFormat
		log.Info().Str("logFormat", c.LogFormat).Msg("logFormat not specified, using default")
	}
	if c.ScriptEntryPoint == "" {
		c.ScriptEntryPoint = access.DefaultEntryPoint
	}
	if c.RobotsPath == "" {
		c.RobotsPath = DefaultRobotsPath
		log.Warn().Str("robotsPath", c.RobotsPath).Msg("robotsPath not specified, using default")
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// ValidateAction checks for essential config properties with
// respect to the action to be performed.
func (c *Main) ValidateAction(action string) error {
	if c.Collection == "" {
		return errors.New("missing collection")
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if c.ElasticSearch.IsConfigured() {
		if err := c.ElasticSearch.Validate(); err != nil {
			return err
		}
	}
	if c.InfluxDB.IsConfigured() {
		if err := c.InfluxDB.Validate(); err != nil {
			return err
		}
	}
	if c.GeoIPDbPath != "" {
		isFile, err := fs.IsFile(c.GeoIPDbPath)
		if err != nil {
			return fmt.Errorf("failed to test geoIpDbPath: %w", err)
		}
		if !isFile {
			return fmt.Errorf("invalid geoIpDbPath: '%s'", c.GeoIPDbPath)
		}
	}
	if c.EmailNotification != nil && c.ConomiNotification != nil {
		return errors.New("either emailNotification or conomiNotification can be configured")
	}
	if action == ActionBatch {
		if c.LogFiles == nil {
			return errors.New("missing configuration data for the `batch` action")
		}
		if err := c.LogFiles.Validate(); err != nil {
			return fmt.Errorf("logFiles validation error: %w", err)
		}
	}
	if action == ActionTail {
		if c.LogTail == nil {
			return errors.New("missing configuration data for the `tail` action")
		}
		if err := c.LogTail.Validate(); err != nil {
			return fmt.Errorf("failed to validate `tail` action configuration: %w", err)
		}
	}
	return nil
}

// Validate checks the configuration and terminates the
// program in case of a problem.
func Validate(conf *Main, action string) {
	conf.ApplyDefaults()
	if err := conf.ValidateAction(action); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
}

// Load loads main configuration (either from a local fs or via http(s))
func Load(path string) (*Main, error) {
	rawData, err := common.LoadSupportedResource(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	var conf Main
	if err := json.Unmarshal(rawData, &conf); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &conf, nil
}
