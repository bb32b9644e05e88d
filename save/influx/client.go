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

package influx

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	client "github.com/influxdata/influxdb1-client/v2"
)

const (
	defaultReqTimeoutSecs = 10
	defaultPushChunkSize  = 500
)

// ConnectionConf specifies a configuration required to store data
// to an InfluxDB database
type ConnectionConf struct {
	Server          string `json:"server"`
	PushChunkSize   int    `json:"pushChunkSize"`
	Database        string `json:"database"`
	Measurement     string `json:"measurement"`
	RetentionPolicy string `json:"retentionPolicy"`
	ReqTimeoutSecs  int    `json:"reqTimeoutSecs"`
}

// IsConfigured tests whether the configuration is considered
// to be enabled (i.e. no error checking just enabled/disabled)
func (conf *ConnectionConf) IsConfigured() bool {
	return conf.Server != ""
}

// Validate tests whether the configuration is filled in
// correctly. Please note that if the function returns nil
// then IsConfigured() must return 'true'.
func (conf *ConnectionConf) Validate() error {
	if conf.Server == "" {
		return errors.New("missing 'server' information for InfluxDB")
	}
	if conf.Database == "" {
		return errors.New("missing 'database' information for InfluxDB")
	}
	if conf.Measurement == "" {
		return errors.New("missing 'measurement' information for InfluxDB")
	}
	if conf.PushChunkSize <= 0 {
		conf.PushChunkSize = defaultPushChunkSize
		log.Warn().Msgf("value influxDb.pushChunkSize not specified, using default %d", defaultPushChunkSize)
	}
	if conf.ReqTimeoutSecs == 0 {
		conf.ReqTimeoutSecs = defaultReqTimeoutSecs
		log.Warn().Msgf("value influxDb.reqTimeoutSecs not specified, using default %d", defaultReqTimeoutSecs)
	}
	return nil
}

// ------

// Record is anything which can be stored as an InfluxDB point
type Record interface {
	ToInfluxDB() (tags map[string]string, values map[string]any)
	GetTime() time.Time
}

func newBatchPoints(database string, retentionPolicy string) (client.BatchPoints, error) {
	return client.NewBatchPoints(client.BatchPointsConfig{
		Precision:        "s",
		Database:         database,
		RetentionPolicy:  retentionPolicy,
		WriteConsistency: "one",
	})
}

// RecordWriter is a simple wrapper around InfluxDB client allowing
// adding records in a convenient way without need to think
// about batch processing of the records. The price paid here
// is that the client is stateful and Finish() method must
// be always called to finish the current operation.
type RecordWriter struct {
	conn            client.Client
	database        string
	retentionPolicy string
	measurement     string
	pushChunkSize   int
	bp              client.BatchPoints
}

// NumPending returns number of points not written yet
func (c *RecordWriter) NumPending() int {
	return len(c.bp.Points())
}

// AddRecord adds a record and if internal batch is full then
// it also stores the batch to a configured database and
// measurement. Please note that without calling Finish() at
// the end of an operation, stale records may remain.
// The returned int is the number of written points (if any).
func (c *RecordWriter) AddRecord(rec Record) (int, error) {
	tags, values := rec.ToInfluxDB()
	point, err := client.NewPoint(c.measurement, tags, values, rec.GetTime())
	if err != nil {
		return 0, fmt.Errorf("failed to create InfluxDB point: %w", err)
	}
	c.bp.AddPoint(point)
	if c.NumPending() >= c.pushChunkSize {
		return c.writeCurrBatch()
	}
	return 0, nil
}

// Finish ensures that the current operation is fully
// processed and all the data are written to InfluxDB.
func (c *RecordWriter) Finish() (int, error) {
	defer c.conn.Close()
	if c.NumPending() == 0 {
		return 0, nil
	}
	return c.writeCurrBatch()
}

func (c *RecordWriter) writeCurrBatch() (int, error) {
	numPoints := c.NumPending()
	err := c.conn.Write(c.bp)
	if err != nil {
		return 0, err
	}
	c.bp, err = newBatchPoints(c.database, c.retentionPolicy)
	if err != nil {
		return numPoints, err
	}
	return numPoints, nil
}

// NewRecordWriter is a factory function for RecordWriter
func NewRecordWriter(conf *ConnectionConf) (*RecordWriter, error) {
	conn, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:    conf.Server,
		Timeout: time.Duration(conf.ReqTimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	bp, err := newBatchPoints(conf.Database, conf.RetentionPolicy)
	if err != nil {
		return nil, err
	}
	return &RecordWriter{
		conn:            conn,
		database:        conf.Database,
		retentionPolicy: conf.RetentionPolicy,
		measurement:     conf.Measurement,
		bp:              bp,
		pushChunkSize:   max(conf.PushChunkSize, 1),
	}, nil
}
