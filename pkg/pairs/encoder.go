package pairs

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/angler/pkg/dataset"
	"github.com/papercomputeco/angler/pkg/tokenizer"
)

// DefaultPlaceholders are the template placeholder names recognized when
// none are configured. "text" receives the record text; the rest are filled
// from record extras.
var DefaultPlaceholders = []string{"condition", "text"}

// Encoder turns a dataset.Record into a Tokenized pair sequence.
type Encoder struct {
	tok          tokenizer.Tokenizer
	maxLength    int
	template     string
	placeholders []string
	templateIDs  []int
	logger       *zap.Logger
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithTemplate sets a prompt template each text is wrapped in before
// encoding. The template must contain a {text} placeholder; other
// placeholders are substituted from record extras.
func WithTemplate(template string) Option {
	return func(e *Encoder) {
		e.template = template
	}
}

// WithPlaceholders overrides the placeholder names recognized in the template.
func WithPlaceholders(names []string) Option {
	return func(e *Encoder) {
		e.placeholders = names
	}
}

// WithLogger sets the logger used for data-quality warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Encoder) {
		e.logger = logger
	}
}

// NewEncoder creates an encoder that truncates sequences to maxLength tokens
// per text.
func NewEncoder(tok tokenizer.Tokenizer, maxLength int, opts ...Option) *Encoder {
	e := &Encoder{
		tok:          tok,
		maxLength:    maxLength,
		placeholders: DefaultPlaceholders,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.template != "" {
		// Tokenize the template with all placeholders removed; its token
		// length is the fixed overhead every wrapped text pays, and its
		// final token anchors the truncation validation below.
		re := regexp.MustCompile(`\{(` + strings.Join(e.placeholders, "|") + `)\}`)
		e.templateIDs = e.tok.Encode(re.ReplaceAllString(e.template, ""))
	}

	return e
}

// Encode produces the Tokenized sequence for one record.
func (e *Encoder) Encode(rec dataset.Record) (Tokenized, error) {
	extrasLen := 0
	for _, val := range rec.Extras {
		extrasLen += len(e.tok.Encode(val))
	}

	ids1 := e.encodeText(rec.Text1, rec.Extras, extrasLen)
	ids2 := e.encodeText(rec.Text2, rec.Extras, extrasLen)
	if len(ids1) == 0 || len(ids2) == 0 {
		return Tokenized{}, ErrEmptyText
	}

	n1, n2 := len(ids1), len(ids2)
	out := Tokenized{
		InputIDs:      append(append(make([]int, 0, n1+n2), ids1...), ids2...),
		AttentionMask: ones(n1 + n2),
		SegmentIDs:    segments(n1, n2),
		Labels:        []float64{rec.Label},
	}

	if typed, ok := e.tok.(tokenizer.TypeIDTokenizer); ok {
		out.TokenTypeIDs = append(typed.TypeIDs(n1), typed.TypeIDs(n2)...)
	}

	return out, nil
}

// encodeText tokenizes one text, applying the prompt template when
// configured: the text is pre-truncated so the wrapped result fits
// maxLength, substituted into the template, and re-encoded.
func (e *Encoder) encodeText(text string, extras map[string]string, extrasLen int) []int {
	if e.template == "" {
		return truncate(e.tok.Encode(text), e.maxLength)
	}

	budget := e.maxLength - len(e.templateIDs) - extrasLen
	if budget < 0 {
		budget = 0
	}

	ids := e.tok.Encode(text)
	if len(ids) > budget {
		ids = ids[:budget]
		text = e.tok.Decode(ids)
	}

	wrapped := e.substitute(text, extras)
	out := truncate(e.tok.Encode(wrapped), e.maxLength)

	// The wrapped text must still end with the template's closing tokens;
	// losing them to truncation corrupts the prompt.
	if len(e.templateIDs) > 0 && (len(out) == 0 || out[len(out)-1] != e.templateIDs[len(e.templateIDs)-1]) {
		repaired := repairTail(out, e.templateIDs)
		if len(repaired) == len(out) && len(repaired) > 0 &&
			repaired[len(repaired)-1] == e.templateIDs[len(e.templateIDs)-1] {
			e.logger.Warn("repaired truncated template tail",
				zap.Int("tokens", len(out)),
			)
			return repaired
		}
		// Training must continue even on malformed examples; keep the
		// sequence as-is and report it.
		e.logger.Warn("template tail truncated and not repairable",
			zap.Int("tokens", len(out)),
			zap.Int("template_tokens", len(e.templateIDs)),
		)
	}

	return out
}

// substitute fills {text} and extra placeholders in the template.
func (e *Encoder) substitute(text string, extras map[string]string) string {
	oldnew := make([]string, 0, 2*(len(extras)+1))
	oldnew = append(oldnew, "{text}", text)
	for key, val := range extras {
		oldnew = append(oldnew, "{"+key+"}", val)
	}
	return strings.NewReplacer(oldnew...).Replace(e.template)
}

// repairTail scans backward through tokenIDs for the longest suffix made of
// tokens present in templateIDs and splices the canonical template suffix in
// its place, preserving total length. Best-effort: callers must verify the
// result.
func repairTail(tokenIDs, templateIDs []int) []int {
	bad := -1
	for i := len(tokenIDs) - 1; i >= 0; i-- {
		j := indexOf(templateIDs, tokenIDs[i])
		if j < 0 {
			break
		}
		bad = j
	}
	if bad == -1 {
		return tokenIDs
	}

	fix := templateIDs[bad:]
	keep := len(tokenIDs) - len(fix)
	if keep < 0 {
		return tokenIDs
	}

	out := make([]int, 0, len(tokenIDs))
	out = append(out, tokenIDs[:keep]...)
	return append(out, fix...)
}

func indexOf(ids []int, id int) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func truncate(ids []int, max int) []int {
	if max > 0 && len(ids) > max {
		return ids[:max]
	}
	return ids
}

func ones(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func segments(n1, n2 int) []int {
	out := make([]int, n1+n2)
	for i := n1; i < n1+n2; i++ {
		out[i] = 1
	}
	return out
}
