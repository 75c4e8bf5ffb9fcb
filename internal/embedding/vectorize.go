package embedding

import (
	"math"

	"carikemah/internal/textproc"
)

type Vectorizer struct {
	model Lookup
	norm  *textproc.Normalizer
}

func NewVectorizer(m Lookup, n *textproc.Normalizer) *Vectorizer {
	if n == nil {
		n = textproc.NewNormalizer()
	}
	return &Vectorizer{model: m, norm: n}
}

func (v *Vectorizer) Dimension() int {
	if v.model == nil {
		return 0
	}
	return v.model.Dimension()
}

// Vectorize averages the vectors of in-vocabulary tokens. With no known
// token the result is the zero vector of the model's dimension.
func (v *Vectorizer) Vectorize(tokens []string) []float64 {
	out := make([]float64, v.Dimension())
	if len(out) == 0 {
		return out
	}
	n := 0
	for _, t := range tokens {
		vec, ok := v.model.VectorOf(t)
		if !ok || len(vec) != len(out) {
			continue
		}
		for i, x := range vec {
			out[i] += x
		}
		n++
	}
	if n > 1 {
		for i := range out {
			out[i] /= float64(n)
		}
	}
	return out
}

// VectorizeText normalizes s before vectorizing.
func (v *Vectorizer) VectorizeText(s string) []float64 {
	return v.Vectorize(v.norm.Normalize(s))
}

// IsZero reports whether vec carries no signal.
func IsZero(vec []float64) bool {
	for _, x := range vec {
		if x != 0 {
			return false
		}
	}
	return true
}

// Cosine returns the cosine similarity of a and b, or 0 when either has zero
// norm or the lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	c := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, c))
}
