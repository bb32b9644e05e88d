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

// Package fsop contains filesystem helpers used to find log files
// for batch processing.
package fsop

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// IsDir tests whether a provided path represents
// a directory. If not or in case of an IO error,
// false is returned.
func IsDir(path string) bool {
	finfo, err := os.Stat(path)
	if err != nil {
		return false
	}
	return finfo.Mode().IsDir()
}

// IsFile tests whether a provided path represents
// a file. If not or in case of an IO error,
// false is returned.
func IsFile(path string) bool {
	finfo, err := os.Stat(path)
	if err != nil {
		return false
	}
	return finfo.Mode().IsRegular()
}

// ListMatchingFiles returns sorted paths of all regular files
// within dirPath matching a shell pattern (e.g. *.log).
// An empty pattern matches all the files. Subdirectories
// are not searched.
func ListMatchingFiles(dirPath, pattern string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return []string{}, fmt.Errorf("failed to list log directory %s: %w", dirPath, err)
	}
	ans := make([]string, 0, len(entries))
	for _, item := range entries {
		if !item.Type().IsRegular() {
			continue
		}
		if pattern != "" {
			match, err := filepath.Match(pattern, item.Name())
			if err != nil {
				return []string{}, fmt.Errorf("invalid file pattern %s: %w", pattern, err)
			}
			if !match {
				continue
			}
		}
		ans = append(ans, filepath.Join(dirPath, item.Name()))
	}
	sort.Strings(ans)
	return ans, nil
}
