// Package ingestion turns uploaded distribution files into client datasets.
//
// A distribution file is a comma-separated text file with one header row followed by
// one row per client: a client identifier and twelve numeric distribution values.
// Parsing is lenient. Rows with the wrong number of fields are skipped silently and
// fields that are not numbers become NaN, so a dataset is always produced.
package ingestion

import (
	"math"
	"runtime"
	"strings"

	"npdstudio/domain/distribution"
)

// DefaultBatchSize is the number of records accumulated before the parser yields.
const DefaultBatchSize = 1000

// Report describes what a parse saw. It never influences the dataset produced.
type Report struct {
	Rows      int `json:"rows"`
	Accepted  int `json:"accepted"`
	Skipped   int `json:"skipped"`
	NaNFields int `json:"nanFields"`
	Batches   int `json:"batches"`
}

// Parser converts file content into a ClientDataset.
type Parser struct {
	batchSize int
}

// NewParser creates a parser that flushes records in batches of batchSize.
// A non-positive size selects DefaultBatchSize.
func NewParser(batchSize int) *Parser {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Parser{batchSize: batchSize}
}

// BatchSize returns the configured batch size
func (p *Parser) BatchSize() int {
	return p.batchSize
}

// Parse reads every data row of content. The first line is always treated as a header.
func (p *Parser) Parse(content string) (distribution.ClientDataset, Report) {
	var report Report

	lines := strings.Split(strings.TrimFunc(content, isBlank), "\n")
	if len(lines) <= 1 {
		return distribution.ClientDataset{}, report
	}
	rows := lines[1:]
	report.Rows = len(rows)

	result := make(distribution.ClientDataset, 0, len(rows))
	batch := make(distribution.ClientDataset, 0, p.batchSize)

	for _, line := range rows {
		values := strings.Split(strings.TrimFunc(line, isBlank), ",")
		if len(values) != distribution.FieldsPerRow {
			report.Skipped++
			continue
		}

		record := distribution.ClientRecord{
			ClientID:     values[0],
			Distribution: make([]float64, distribution.Width),
		}
		for i, field := range values[1:] {
			v := ParseNumber(field)
			if math.IsNaN(v) {
				report.NaNFields++
			}
			record.Distribution[i] = v
		}
		batch = append(batch, record)
		report.Accepted++

		if len(batch) == p.batchSize {
			result = append(result, batch...)
			batch = batch[:0]
			report.Batches++
			runtime.Gosched()
		}
	}

	if len(batch) > 0 {
		result = append(result, batch...)
		report.Batches++
	}

	return result, report
}
