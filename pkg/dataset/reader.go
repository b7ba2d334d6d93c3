package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// record field names with fixed meaning; everything else becomes an extra.
const (
	fieldText1 = "text1"
	fieldText2 = "text2"
	fieldLabel = "label"
)

// ReadFile reads a JSONL pair-record file from disk.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	return records, nil
}

// Read parses JSONL pair records from r. Each line is a flat JSON object
// with text1, text2, label, and optional extra string fields. Blank lines
// are skipped.
func Read(r io.Reader) ([]Record, error) {
	var records []Record

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		rec, err := parseLine([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning input: %w", err)
	}

	return records, nil
}

func parseLine(data []byte) (Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("parsing record: %w", err)
	}

	var rec Record
	for key, val := range raw {
		switch key {
		case fieldText1:
			if err := json.Unmarshal(val, &rec.Text1); err != nil {
				return Record{}, fmt.Errorf("parsing text1: %w", err)
			}
		case fieldText2:
			if err := json.Unmarshal(val, &rec.Text2); err != nil {
				return Record{}, fmt.Errorf("parsing text2: %w", err)
			}
		case fieldLabel:
			if err := json.Unmarshal(val, &rec.Label); err != nil {
				return Record{}, fmt.Errorf("parsing label: %w", err)
			}
		default:
			var s string
			if err := json.Unmarshal(val, &s); err != nil {
				// Non-string extras have no placeholder use; skip them.
				continue
			}
			if rec.Extras == nil {
				rec.Extras = make(map[string]string)
			}
			rec.Extras[key] = s
		}
	}

	if rec.Text1 == "" || rec.Text2 == "" {
		return Record{}, fmt.Errorf("record missing text1 or text2")
	}

	return rec, nil
}
