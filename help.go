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
	"fmt"

	"scilogproc/config"
)

var helpTexts = map[string]string{
	config.ActionBatch: `Process already written access log files (a single file or all the matching
files in a directory). Accepted accesses are written to the configured
ElasticSearch and/or InfluxDB (or to stdout with -dry-run).

{
    "collection": "scl",
    "catalog": {"serviceUrl": "http://articlemeta.example.org/api/v1"},
    "robotsPath": "/etc/scilogproc/robots.txt",
    "logFiles": {"srcPath": "/var/log/nginx", "filePattern": "access*.log", "numWorkers": 4},
    "elasticSearch": {"server": "http://localhost:9200", "index": "accesses", "pushChunkSize": 500}
}`,
	config.ActionTail: `Follow continuously written access log files and process newly added lines
until the program is terminated (SIGINT, SIGTERM). With maxInactivitySecs,
files not written to for too long are reported via e-mail or Conomi
(emailNotification, conomiNotification; at most one of them).

{
    "collection": "scl",
    "catalog": {"serviceUrl": "http://articlemeta.example.org/api/v1"},
    "logTail": {"files": ["/var/log/nginx/access.log"], "fromEnd": true, "maxInactivitySecs": 3600},
    "influxDb": {"server": "http://localhost:8086", "database": "usage", "measurement": "accesses"},
    "emailNotification": {"sender": "scilogproc@localhost", "recipients": ["admin@localhost"], "smtpServer": "localhost:25"}
}`,
	config.ActionCheck: `Read log lines from stdin and print accepted accesses as JSON lines
to stdout. With -verbose, rejected lines are reported too. This is useful
for testing of robots lists and log formats.`,
}

func help(topic string) {
	if topic == "" {
		fmt.Printf(
			"Missing action to help with. Select one of the:\n\t%s, %s, %s\n",
			config.ActionBatch, config.ActionTail, config.ActionCheck,
		)
		return
	}
	fmt.Printf("\n[%s]\n\n", topic)
	if text, ok := helpTexts[topic]; ok {
		fmt.Println(text)

	} else {
		fmt.Println("- no information available -")
	}
	fmt.Println()
}
