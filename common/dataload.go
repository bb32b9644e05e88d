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

package common

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultResourceTimeout = 30 * time.Second
)

func loadHTTPResource(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultResourceTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("resource loading error: %s (url: %s)", resp.Status, url)
	}
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadSupportedResource loads raw byte data of a configuration-like
// resource (main config, robots list, static catalog).
// Allowed formats are:
// 1) http://..., https://...
// 2) file:/localhost/..., file:///...
// 3) /abs/fs/path, rel/fs/path
func LoadSupportedResource(uri string) ([]byte, error) {
	return LoadSupportedResourceCtx(context.Background(), uri)
}

// LoadSupportedResourceCtx is a variant of LoadSupportedResource
// where remote loading can be cancelled.
func LoadSupportedResourceCtx(ctx context.Context, uri string) ([]byte, error) {
	if uri == "" {
		return nil, fmt.Errorf("no resource (http, file) specified")
	}
	var rawData []byte
	var err error
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		rawData, err = loadHTTPResource(ctx, uri)

	} else if strings.HasPrefix(uri, "file:/localhost/") {
		rawData, err = os.ReadFile(uri[len("file:/localhost/")-1:])

	} else if strings.HasPrefix(uri, "file:///") {
		rawData, err = os.ReadFile(uri[len("file:///")-1:])

	} else { // we assume a common fs path
		rawData, err = os.ReadFile(uri)
	}
	if err != nil {
		return nil, err
	}
	return rawData, nil
}
