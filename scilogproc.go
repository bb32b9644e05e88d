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
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"scilogproc/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	version   string
	buildDate string
	gitCommit string
)

func setupLog(path, level string) *os.File {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if path != "" {
		logf, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatal().Err(err).Msgf("Failed to initialize log. File: %s", path)
		}
		log.Logger = log.Output(logf)
		return logf
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	return nil
}

func setup(confPath, action string) (*config.Main, *os.File) {
	if confPath == "" {
		log.Fatal().Msg("config path not specified")
	}
	conf, err := config.Load(confPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logf := setupLog(conf.LogPath, conf.LogLevel)
	config.Validate(conf, action)
	return conf, logf
}

func main() {
	dryRun := flag.Bool("dry-run", false, "Do not write data to databases, print them to stdout")
	verbose := flag.Bool("verbose", false, "In the check action, report also rejected lines")
	flag.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Scilogproc - validation of journal platform access logs\n\nUsage:\n\t%s [options] [action] [config.json]\n\nAvailable actions:\n\t%s\n\nOptions:\n",
			filepath.Base(os.Args[0]),
			strings.Join(
				[]string{
					config.ActionBatch, config.ActionTail, config.ActionCheck,
					config.ActionHelp, config.ActionVersion,
				},
				", ",
			),
		)
		flag.PrintDefaults()
	}
	flag.Parse()
	action := flag.Arg(0)

	switch action {
	case config.ActionHelp:
		help(flag.Arg(1))
		return
	case config.ActionVersion:
		fmt.Printf("scilogproc %s\nbuild date: %s\nlast commit: %s\n", version, buildDate, gitCommit)
		return
	case config.ActionBatch, config.ActionTail, config.ActionCheck:
	default:
		fmt.Printf("Unknown action [%s]. Try -h for help\n", action)
		os.Exit(1)
	}

	conf, logf := setup(flag.Arg(1), action)
	if logf != nil {
		defer logf.Close()
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	proc := newLogProcessor(ctx, conf)
	defer proc.Close()

	switch action {
	case config.ActionBatch:
		runBatchAction(ctx, conf, proc, *dryRun)
	case config.ActionTail:
		runTailAction(ctx, conf, proc, *dryRun)
	case config.ActionCheck:
		stats, err := runCheckAction(proc, os.Stdin, os.Stdout, *verbose)
		if err != nil {
			log.Error().Err(err).Msg("failed to read input")
		}
		log.Info().Object("stats", stats).Msg("check finished")
	}
}
