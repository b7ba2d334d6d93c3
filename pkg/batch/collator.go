package batch

import (
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/papercomputeco/angler/pkg/pairs"
)

// Collator builds batches from tokenized pairs.
type Collator struct {
	// PadID is the tokenizer's pad token id, used to pad input id rows.
	// Attention mask and token type rows pad with 0.
	PadID int

	// MaxLength, when nonzero, pads every row to this fixed length instead
	// of the longest row in the batch.
	MaxLength int

	// ComputeSimilarityMask toggles duplicate-text detection. Evaluation
	// skips it.
	ComputeSimilarityMask bool
}

// row is one half of a split pair before padding.
type row struct {
	inputIDs      []int
	attentionMask []int
	tokenTypeIDs  []int
	label         float64
}

// Collate splits each pair at its segment boundary, pads all resulting rows
// to a common length, and builds the similarity mask when enabled.
func (c *Collator) Collate(feats []pairs.Tokenized) (*Batch, error) {
	if len(feats) == 0 {
		return nil, ErrEmptyBatch
	}

	rows := make([]row, 0, 2*len(feats))
	textRows := make(map[string][]int)

	hasTypeIDs := feats[0].TokenTypeIDs != nil
	for _, feat := range feats {
		if !feat.Valid() {
			return nil, ErrLengthMismatch
		}
		if (feat.TokenTypeIDs != nil) != hasTypeIDs {
			return nil, ErrMixedTypeIDs
		}

		split := firstSegmentIndex(feat.SegmentIDs)
		if split <= 0 || split >= len(feat.SegmentIDs) {
			return nil, ErrMissingSegment
		}

		label := feat.Labels[0]
		halves := [2]row{
			{
				inputIDs:      feat.InputIDs[:split],
				attentionMask: feat.AttentionMask[:split],
				label:         label,
			},
			{
				inputIDs:      feat.InputIDs[split:],
				attentionMask: feat.AttentionMask[split:],
				label:         label,
			},
		}
		if feat.TokenTypeIDs != nil {
			halves[0].tokenTypeIDs = feat.TokenTypeIDs[:split]
			halves[1].tokenTypeIDs = feat.TokenTypeIDs[split:]
		}

		for _, half := range halves {
			key := sequenceKey(half.inputIDs)
			textRows[key] = append(textRows[key], len(rows))
			rows = append(rows, half)
		}
	}

	width := c.MaxLength
	if width == 0 {
		for _, r := range rows {
			if len(r.inputIDs) > width {
				width = len(r.inputIDs)
			}
		}
	}

	b := &Batch{
		InputIDs:      make([][]int, len(rows)),
		AttentionMask: make([][]int, len(rows)),
		Labels:        make([]float64, len(rows)),
	}
	if hasTypeIDs {
		b.TokenTypeIDs = make([][]int, len(rows))
	}

	for i, r := range rows {
		b.InputIDs[i] = pad(r.inputIDs, width, c.PadID)
		b.AttentionMask[i] = pad(r.attentionMask, width, 0)
		if hasTypeIDs {
			b.TokenTypeIDs[i] = pad(r.tokenTypeIDs, width, 0)
		}
		b.Labels[i] = r.label
	}

	if c.ComputeSimilarityMask {
		b.SimilarityMask = similarityMask(len(rows), textRows)
	}

	return b, nil
}

// similarityMask marks every pair of distinct rows sharing an exact token
// sequence. The diagonal stays zero.
func similarityMask(n int, textRows map[string][]int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for _, positions := range textRows {
		for _, i := range positions {
			for _, j := range positions {
				if i == j {
					continue
				}
				m.Set(i, j, 1)
			}
		}
	}
	return m
}

// sequenceKey renders a token id sequence as an opaque map key.
func sequenceKey(ids []int) string {
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(strconv.Itoa(id))
		sb.WriteByte(',')
	}
	return sb.String()
}

func firstSegmentIndex(segmentIDs []int) int {
	for i, s := range segmentIDs {
		if s == 1 {
			return i
		}
	}
	return -1
}

func pad(ids []int, width, padID int) []int {
	out := make([]int, width)
	n := copy(out, ids)
	for i := n; i < width; i++ {
		out[i] = padID
	}
	return out
}
