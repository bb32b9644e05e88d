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

package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultReqTimeoutSecs = 10
)

// ConnectionConf defines a configuration
// required to work with ES client.
type ConnectionConf struct {
	Server         string `json:"server"`
	Index          string `json:"index"`
	PushChunkSize  int    `json:"pushChunkSize"`
	ReqTimeoutSecs int    `json:"reqTimeoutSecs"`
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
		return errors.New("missing 'server' information for ElasticSearch")
	}
	if conf.Index == "" {
		return errors.New("index not set for ElasticSearch")
	}
	if conf.PushChunkSize <= 0 {
		return errors.New("elasticSearch.pushChunkSize is missing")
	}
	if conf.ReqTimeoutSecs == 0 {
		conf.ReqTimeoutSecs = defaultReqTimeoutSecs
	}
	return nil
}

// -------

// ErrorResultObj describes an error response from ElasticSearch
type ErrorResultObj struct {
	Error  map[string]any `json:"error"`
	Status int            `json:"status"`
}

func (ero ErrorResultObj) String() string {
	var ans strings.Builder
	for k, v := range ero.Error {
		ans.WriteString(fmt.Sprintf("{%s -> %v}", k, v))
	}
	return ans.String()
}

// ESClientError is a general response error
type ESClientError struct {
	Message string
	ESError ErrorResultObj
}

func (esc *ESClientError) Error() string {
	return fmt.Sprintf("%s: %s", esc.Message, esc.ESError)
}

func newESClientError(message string, response []byte) *ESClientError {
	var errResult ErrorResultObj
	json.Unmarshal(response, &errResult)
	return &ESClientError{Message: message, ESError: errResult}
}

// bulkResponse is a subset of the _bulk response we need
// to detect partially failed writes
type bulkResponse struct {
	Took   int  `json:"took"`
	Errors bool `json:"errors"`
}

// ESClient is a simple ElasticSearch client
type ESClient struct {
	server string
	index  string
	client *http.Client
}

// NewClient returns an instance of ESClient
func NewClient(conf *ConnectionConf) *ESClient {
	timeout := conf.ReqTimeoutSecs
	if timeout <= 0 {
		timeout = defaultReqTimeoutSecs
	}
	return &ESClient{
		server: strings.TrimRight(conf.Server, "/"),
		index:  conf.Index,
		client: &http.Client{Timeout: time.Second * time.Duration(timeout)},
	}
}

func (c ESClient) String() string {
	return fmt.Sprintf("ElasticSearchClient[server: %s, index; %s]", c.server, c.index)
}

// Do sends a general request to ElasticSearch server where
// 'query' is expected to be a JSON-encoded argument object
func (c *ESClient) Do(ctx context.Context, method string, path string, query []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.server+path, bytes.NewReader(query))
	if err != nil {
		return []byte{}, err
	}
	req.Header.Add("Content-Type", "application/x-ndjson")
	resp, err := c.client.Do(req)
	if err != nil {
		return []byte{}, err
	}
	defer resp.Body.Close()
	ans, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return ans, newESClientError(
			fmt.Sprintf("request %s failed with code %d", path, resp.StatusCode), ans)
	}
	return ans, nil
}

// BulkWrite sends already encoded bulk data (metadata and document lines)
func (c *ESClient) BulkWrite(ctx context.Context, data [][]byte) error {
	q := append(bytes.Join(data, []byte("\n")), '\n')
	resp, err := c.Do(ctx, http.MethodPost, "/_bulk", q)
	if err != nil {
		return fmt.Errorf("failed to push log chunk: %w", err)
	}
	var bresp bulkResponse
	if err := json.Unmarshal(resp, &bresp); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if bresp.Errors {
		return errors.New("ElasticSearch reported errors for some of the items in the chunk")
	}
	return nil
}
