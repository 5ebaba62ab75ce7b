// Package classifier scores page HTML against a per-locale user model,
// returning per-category score vectors and a winning category (spec.md §2
// Classifier). The statistical model itself is treated as an opaque
// resource the host supplies as JSON; this package only evaluates it. A
// production deployment may swap in a more sophisticated model format — the
// engine only depends on the Classifier interface below.
package classifier

import (
	"encoding/json"
	"regexp"
	"strings"
	"sync/atomic"
)

// Model is a bag-of-words linear scorer: each category has a set of token
// weights, and a document's score for a category is the sum of the weights
// of the tokens it contains. Categories are held in a fixed order so the
// resulting score vector lines up positionally with every other vector the
// engine retains (clientstate.ClientState.AppendPageScore requires
// dimension-consistent vectors).
type Model struct {
	Locale     string                        `json:"locale"`
	Categories []string                      `json:"categories"`
	Weights    map[string]map[string]float64 `json:"weights"`
}

// ParseModel decodes a user-model JSON document as returned by
// host.LoadUserModelForLocale.
func ParseModel(data []byte) (Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return Model{}, err
	}
	return m, nil
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

func tokenize(html string) []string {
	return tokenPattern.FindAllString(strings.ToLower(stripTags(html)), -1)
}

// stripTags removes anything that looks like an HTML tag. It is a
// best-effort text extraction, not a full HTML parser — parsing is the
// host's concern; classification only needs approximate visible text.
func stripTags(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch r {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// Classifier holds the currently loaded Model and evaluates pages against
// it. Safe for concurrent use; LoadModel swaps the model atomically so a
// classification in flight always runs against one consistent model.
type Classifier struct {
	model atomic.Pointer[Model]
}

// New returns a Classifier with no model loaded.
func New() *Classifier {
	return &Classifier{}
}

// LoadModel installs m as the active model.
func (c *Classifier) LoadModel(m Model) {
	c.model.Store(&m)
}

// Initialized reports whether a model has been loaded.
func (c *Classifier) Initialized() bool {
	return c.model.Load() != nil
}

// Categories returns the active model's category list, in score-vector
// order. Returns nil if no model is loaded.
func (c *Classifier) Categories() []string {
	m := c.model.Load()
	if m == nil {
		return nil
	}
	return m.Categories
}

// Classify scores html against every category in the active model and
// reports the winning (highest-scoring) category, breaking ties by first
// index. ok is false if no model is loaded or the model has no categories.
func (c *Classifier) Classify(html string) (scores []float64, winner string, ok bool) {
	m := c.model.Load()
	if m == nil || len(m.Categories) == 0 {
		return nil, "", false
	}

	tokens := tokenize(html)
	scores = make([]float64, len(m.Categories))
	for i, category := range m.Categories {
		weights := m.Weights[category]
		if weights == nil {
			continue
		}
		var sum float64
		for _, tok := range tokens {
			sum += weights[tok]
		}
		scores[i] = sum
	}

	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return scores, m.Categories[best], true
}
