package app

import (
	"bytes"
	"strings"

	"github.com/bft-labs/csvship/internal/domain"
	"github.com/bft-labs/csvship/internal/ports"
)

// DefaultDelimiter separates fields within a line.
const DefaultDelimiter = ","

// Parser turns raw input lines into Records.
// A Parser belongs to a single run: it remembers whether the header has been
// consumed and counts data lines and records.
type Parser struct {
	columns    []string
	delimiter  string
	headerSeen bool
	line       int
	records    int
	logger     ports.Logger
}

// NewParser creates a parser for the given ordered column whitelist.
// An empty delimiter falls back to DefaultDelimiter.
func NewParser(columns []string, delimiter string, logger ports.Logger) *Parser {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return &Parser{
		columns:   columns,
		delimiter: delimiter,
		logger:    logger,
	}
}

// Parse converts one line into a Record.
// The first line of input is the header and yields false. Blank lines also
// yield false but still advance the line number, so Record.Line is the
// line's position among the data lines of the file.
// Splitting is positional with no quoting support: fields past the last
// recognized column are dropped and missing fields become "".
func (p *Parser) Parse(raw []byte) (domain.Record, bool) {
	raw = bytes.TrimSuffix(raw, []byte{'\r'})

	if !p.headerSeen {
		p.headerSeen = true
		return domain.Record{}, false
	}

	p.line++
	if len(raw) == 0 {
		return domain.Record{}, false
	}
	p.records++

	values := strings.Split(string(raw), p.delimiter)
	fields := make(map[string]string, len(p.columns))
	for i, col := range p.columns {
		if i < len(values) {
			fields[col] = values[i]
		} else {
			fields[col] = ""
		}
	}

	p.logger.Debug("parsed line",
		ports.Int("line", p.line),
		ports.Int("bytes", len(raw)),
	)

	return domain.Record{Line: p.line, Fields: fields}, true
}

// Lines returns the number of data lines read so far, blank ones included.
func (p *Parser) Lines() int {
	return p.line
}

// Records returns the number of records produced so far.
func (p *Parser) Records() int {
	return p.records
}
