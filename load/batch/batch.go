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

// Package batch reads already written log files (a single file
// or a directory of files) and passes their lines to a processor.
package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"scilogproc/access"
	"scilogproc/fsop"
	"scilogproc/load"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	maxLineLength = 1024 * 1024
)

// Conf represents a configuration for a batch processing of log files
type Conf struct {

	// SrcPath is either a log file or a directory containing log files
	SrcPath string `json:"srcPath"`

	// FilePattern filters files in SrcPath directory (e.g. `access*.log`).
	// It is ignored in case SrcPath is a file.
	FilePattern string `json:"filePattern"`

	// NumWorkers specifies how many files can be processed in parallel
	NumWorkers int `json:"numWorkers"`
}

func (conf *Conf) Validate() error {
	if conf.SrcPath == "" {
		return errors.New("logFiles.srcPath not specified")
	}
	if !fsop.IsFile(conf.SrcPath) && !fsop.IsDir(conf.SrcPath) {
		return fmt.Errorf("logFiles.srcPath %s is neither a file nor a directory", conf.SrcPath)
	}
	if conf.NumWorkers < 0 {
		return errors.New("logFiles.numWorkers must be a positive number")
	}
	if conf.NumWorkers == 0 {
		conf.NumWorkers = 1
		log.Warn().Msg("logFiles.numWorkers not specified, using 1")
	}
	return nil
}

// SelectFiles returns all the files to be processed
func SelectFiles(conf *Conf) ([]string, error) {
	if fsop.IsFile(conf.SrcPath) {
		return []string{conf.SrcPath}, nil
	}
	return fsop.ListMatchingFiles(conf.SrcPath, conf.FilePattern)
}

// readLine reads a single line without its line break. A line longer
// than maxLen is consumed completely but returned empty with tooLong set.
func readLine(rd *bufio.Reader, maxLen int) (line []byte, tooLong bool, err error) {
	var readAny bool
	for {
		chunk, isPrefix, err := rd.ReadLine()
		if err != nil {
			if err == io.EOF && readAny {
				return line, tooLong, nil
			}
			return nil, false, err
		}
		readAny = true
		if !tooLong {
			if len(line)+len(chunk) > maxLen {
				tooLong = true
				line = nil

			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, tooLong, nil
		}
	}
}

// ProcessFile reads a log file line by line and sends accepted
// records to the out channel. Lines longer than maxLineLength
// are counted as rejected.
func ProcessFile(
	ctx context.Context,
	filePath string,
	proc load.LineProcessor,
	out chan<- *access.OutputRecord,
	stats *load.Stats,
) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()
	rd := bufio.NewReaderSize(f, 64*1024)
	var lineNum int64
	for {
		line, tooLong, err := readLine(rd, maxLineLength)
		if err == io.EOF {
			return nil

		} else if err != nil {
			return fmt.Errorf("failed to read %s at line %d: %w", filePath, lineNum+1, err)
		}
		lineNum++
		var rec *access.OutputRecord
		if tooLong {
			err = access.Rejection{
				Reason: access.ErrParseFailure,
				Detail: fmt.Sprintf("line longer than %d bytes", maxLineLength),
			}

		} else {
			rec, err = proc.ProcessLine(string(line))
		}
		stats.Register(err)
		if err != nil {
			log.Debug().
				Str("file", filePath).
				Int64("line", lineNum).
				Str("reason", access.RejectionReason(err)).
				Err(err).
				Msg("line rejected")
			continue
		}
		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run processes all the configured files using up to conf.NumWorkers
// goroutines. The out channel is not closed by the function.
func Run(
	ctx context.Context,
	conf *Conf,
	proc load.LineProcessor,
	out chan<- *access.OutputRecord,
) (*load.Stats, error) {
	files, err := SelectFiles(conf)
	if err != nil {
		return nil, err
	}
	log.Info().Int("numFiles", len(files)).Str("srcPath", conf.SrcPath).Msg("selected log files")
	stats := &load.Stats{}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(conf.NumWorkers, 1))
	for _, fp := range files {
		eg.Go(func() error {
			log.Info().Str("file", fp).Msg("processing log file")
			return ProcessFile(egCtx, fp, proc, out, stats)
		})
	}
	if err := eg.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}
