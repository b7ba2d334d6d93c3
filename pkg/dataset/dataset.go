// Package dataset provides pair-record datasets for training and evaluation.
//
// A record is two texts and a relatedness label, optionally with extra string
// fields that prompt templates can substitute. Records are read from JSONL
// files (one flat object per line) and are immutable once read.
package dataset

// Record is one training example: two texts and a relatedness label.
type Record struct {
	Text1 string
	Text2 string
	Label float64

	// Extras holds any additional string fields from the source record,
	// keyed by field name. Used for prompt template placeholders.
	Extras map[string]string
}

// Chunk splits records into batches of at most size records, preserving
// order. The final batch may be smaller.
func Chunk(records []Record, size int) [][]Record {
	if size <= 0 || len(records) == 0 {
		return nil
	}

	chunks := make([][]Record, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}
