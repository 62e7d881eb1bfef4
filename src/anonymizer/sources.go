/*
Copyright (c) YugabyteDB, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package anonymizer

import (
	"bufio"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed data/firstname.txt
var firstnameData string

//go:embed data/lastname.txt
var lastnameData string

// header: street_address,secondary_address,postal_code,locality,region,country
//
//go:embed data/address.csv
var addressData string

// readLines returns the non blank lines of r, trimmed.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func readLinesFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sample file: %w", err)
	}
	defer file.Close()
	lines, err := readLines(file)
	if err != nil {
		return nil, fmt.Errorf("read sample file %s: %w", path, err)
	}
	return lines, nil
}

type csvOptions struct {
	separator rune
	// header is true when the first record names the columns.
	header bool
	columns []string
}

// readCSV returns the column names and the records of r. Records must all
// have as many fields as there are columns.
func readCSV(r io.Reader, opts csvOptions) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	if opts.separator != 0 {
		reader.Comma = opts.separator
	}
	reader.TrimLeadingSpace = true
	// field counts are checked against the column names below
	reader.FieldsPerRecord = -1

	columns := opts.columns
	if opts.header {
		headers, err := reader.Read()
		if err == io.EOF {
			return nil, nil, fmt.Errorf("missing CSV header")
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read CSV header: %w", err)
		}
		columns = make([]string, len(headers))
		for i, h := range headers {
			columns[i] = strings.TrimSpace(h)
		}
	}
	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("CSV column names are unknown")
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, nil, fmt.Errorf("read CSV record: %w", err)
		}
		if len(record) != len(columns) {
			line, _ := reader.FieldPos(0)
			return nil, nil, fmt.Errorf("CSV record at line %d has %d fields, expected %d", line, len(record), len(columns))
		}
		records = append(records, record)
	}
	return columns, records, nil
}

func readCSVFile(path string, opts csvOptions) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sample file: %w", err)
	}
	defer file.Close()
	columns, records, err := readCSV(file, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return columns, records, nil
}

func toRows(values []string) [][]interface{} {
	rows := make([][]interface{}, len(values))
	for i, v := range values {
		rows[i] = []interface{}{v}
	}
	return rows
}

// toRowsOf projects records on the given column indexes. An empty field is
// stored as NULL.
func toRowsOf(records [][]string, indexes []int) [][]interface{} {
	rows := make([][]interface{}, len(records))
	for i, rec := range records {
		row := make([]interface{}, len(indexes))
		for j, idx := range indexes {
			if rec[idx] != "" {
				row[j] = rec[idx]
			}
		}
		rows[i] = row
	}
	return rows
}
