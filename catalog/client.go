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

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"scilogproc/common"

	"github.com/rs/zerolog/log"
)

const (
	DefaultPageSize       = 1000
	DefaultReqTimeoutSecs = 30
)

// Conf configures access to the metadata. Either ServiceURL
// (a remote JSON API) or StaticPath (a local or http JSON document)
// must be set.
type Conf struct {
	ServiceURL     string `json:"serviceUrl"`
	StaticPath     string `json:"staticPath"`
	ReqTimeoutSecs int    `json:"reqTimeoutSecs"`
	PageSize       int    `json:"pageSize"`
}

// Validate tests the configuration and sets defaults for
// missing optional values.
func (conf *Conf) Validate() error {
	if conf.ServiceURL == "" && conf.StaticPath == "" {
		return errors.New("catalog: either serviceUrl or staticPath must be set")
	}
	if conf.ServiceURL != "" && conf.StaticPath != "" {
		return errors.New("catalog: serviceUrl and staticPath are mutually exclusive")
	}
	if conf.ReqTimeoutSecs == 0 {
		conf.ReqTimeoutSecs = DefaultReqTimeoutSecs
		log.Warn().Msgf("value catalog.reqTimeoutSecs not specified, using default %d", DefaultReqTimeoutSecs)
	}
	if conf.PageSize == 0 {
		conf.PageSize = DefaultPageSize
	}
	return nil
}

// NewClient creates a proper Client based on the configuration
func NewClient(conf *Conf) Client {
	if conf.StaticPath != "" {
		return NewStaticClient(conf.StaticPath)
	}
	return NewHTTPClient(conf)
}

// ------------------------

type pageMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type journalsPage struct {
	Meta    pageMeta  `json:"meta"`
	Objects []Journal `json:"objects"`
}

// ServiceError describes a non-2xx response of the metadata service
type ServiceError struct {
	URL    string
	Status int
}

func (e ServiceError) Error() string {
	return fmt.Sprintf("metadata service request %s failed with status %d", e.URL, e.Status)
}

// HTTPClient reads collections and journals from a remote
// metadata service providing a simple JSON API:
//
//	GET {serviceUrl}/collections
//	GET {serviceUrl}/journals?collection=...&offset=...&limit=...
type HTTPClient struct {
	serviceURL string
	pageSize   int
	client     *http.Client
}

func (c *HTTPClient) get(ctx context.Context, path string, args url.Values, ans any) error {
	u := c.serviceURL + path
	if len(args) > 0 {
		u += "?" + args.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return ServiceError{URL: u, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(ans); err != nil {
		return fmt.Errorf("failed to decode response of %s: %w", u, err)
	}
	return nil
}

// Collections returns all the collections known to the service
func (c *HTTPClient) Collections(ctx context.Context) ([]Collection, error) {
	var ans []Collection
	if err := c.get(ctx, "/collections", nil, &ans); err != nil {
		return nil, err
	}
	return ans, nil
}

// Journals returns all the journals of a collection. The service
// is queried page by page until all the items are loaded.
func (c *HTTPClient) Journals(ctx context.Context, collection string) ([]Journal, error) {
	ans := make([]Journal, 0, c.pageSize)
	for offset := 0; ; {
		var page journalsPage
		args := url.Values{}
		args.Set("collection", collection)
		args.Set("offset", strconv.Itoa(offset))
		args.Set("limit", strconv.Itoa(c.pageSize))
		if err := c.get(ctx, "/journals", args, &page); err != nil {
			return nil, err
		}
		ans = append(ans, page.Objects...)
		offset += len(page.Objects)
		if len(page.Objects) == 0 || offset >= page.Meta.Total {
			break
		}
	}
	return ans, nil
}

// NewHTTPClient creates a new HTTPClient instance
func NewHTTPClient(conf *Conf) *HTTPClient {
	pageSize := conf.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	timeout := conf.ReqTimeoutSecs
	if timeout <= 0 {
		timeout = DefaultReqTimeoutSecs
	}
	return &HTTPClient{
		serviceURL: strings.TrimRight(conf.ServiceURL, "/"),
		pageSize:   pageSize,
		client:     &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// ------------------------

type staticData struct {
	Collections []Collection         `json:"collections"`
	Journals    map[string][]Journal `json:"journals"`
}

// StaticClient reads the metadata from a single JSON document
// (local file or http resource) which is useful for offline
// processing and testing.
type StaticClient struct {
	resource string
}

func (c *StaticClient) load(ctx context.Context) (*staticData, error) {
	rawData, err := common.LoadSupportedResourceCtx(ctx, c.resource)
	if err != nil {
		return nil, fmt.Errorf("failed to load static catalog %s: %w", c.resource, err)
	}
	var ans staticData
	if err := json.Unmarshal(rawData, &ans); err != nil {
		return nil, fmt.Errorf("failed to parse static catalog %s: %w", c.resource, err)
	}
	return &ans, nil
}

func (c *StaticClient) Collections(ctx context.Context) ([]Collection, error) {
	data, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return data.Collections, nil
}

func (c *StaticClient) Journals(ctx context.Context, collection string) ([]Journal, error) {
	data, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return data.Journals[collection], nil
}

func NewStaticClient(resource string) *StaticClient {
	return &StaticClient{resource: resource}
}
