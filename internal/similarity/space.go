// Package similarity scores free text against a small document corpus with
// TF-IDF weighted cosine similarity.
//
// Weights are raw term counts times a smoothed inverse document frequency,
// idf(t) = ln((1+N)/(1+df(t))) + 1, and every vector is L2-normalized, so a score
// is the cosine between query and document in [0,1].
package similarity

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sort"
	"unicode/utf8"

	"github.com/kailas-cloud/artpair/internal/domain"
)

// Match is a scored document: its position in the input sequence and its cosine score.
type Match struct {
	Index int
	Score float64
}

// vector is a sparse L2-normalized vector sorted by term column.
type vector struct {
	cols []int
	vals []float64
}

// Space is a term vector space built from a fixed ordered document sequence.
// Vocabulary and document vectors are built together and never change, so a
// Space is safe for concurrent use.
type Space struct {
	vocab map[string]int
	idf   []float64
	docs  []vector
}

// NewSpace builds the vocabulary and normalized document vectors.
func NewSpace(documents []string) (*Space, error) {
	if len(documents) == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	tokenized := make([][]string, len(documents))
	df := make(map[string]int)
	for i, doc := range documents {
		if !utf8.ValidString(doc) {
			return nil, fmt.Errorf("%w: document %d is not valid UTF-8", domain.ErrInvalidInput, i)
		}
		tokens := Tokenize(doc)
		tokenized[i] = tokens

		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	// Sorted vocabulary keeps the column layout independent of map iteration order.
	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	n := float64(len(documents))
	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for col, t := range terms {
		vocab[t] = col
		idf[col] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	s := &Space{vocab: vocab, idf: idf, docs: make([]vector, len(documents))}
	for i, tokens := range tokenized {
		s.docs[i] = s.embed(tokens)
	}
	return s, nil
}

// Len returns the number of documents in the space.
func (s *Space) Len() int { return len(s.docs) }

// Dimensions returns the vocabulary size.
func (s *Space) Dimensions() int { return len(s.idf) }

// Scores returns the cosine similarity of query against every document, in document order.
// Query terms outside the vocabulary are ignored.
func (s *Space) Scores(query string) ([]float64, error) {
	if !utf8.ValidString(query) {
		return nil, fmt.Errorf("%w: query is not valid UTF-8", domain.ErrInvalidInput)
	}
	q := s.embed(Tokenize(query))

	scores := make([]float64, len(s.docs))
	for i := range s.docs {
		scores[i] = clamp01(dot(q, s.docs[i]))
	}
	return scores, nil
}

// Rank returns the topK best documents for query, descending by score with ties
// in ascending document order. topK larger than the corpus is clamped.
func (s *Space) Rank(query string, topK int) ([]Match, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be at least 1, got %d", domain.ErrInvalidInput, topK)
	}
	scores, err := s.Scores(query)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, len(scores))
	for i, sc := range scores {
		matches[i] = Match{Index: i, Score: sc}
	}
	// Stable sort on an index-ordered slice resolves ties by ascending index.
	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if topK > len(matches) {
		topK = len(matches)
	}
	return matches[:topK], nil
}

// Rank builds a fresh space over documents and ranks query against it.
func Rank(query string, documents []string, topK int) ([]Match, error) {
	s, err := NewSpace(documents)
	if err != nil {
		return nil, err
	}
	return s.Rank(query, topK)
}

// embed projects tokens into the space. Unknown tokens contribute nothing.
func (s *Space) embed(tokens []string) vector {
	counts := make(map[int]int)
	for _, t := range tokens {
		if col, ok := s.vocab[t]; ok {
			counts[col]++
		}
	}
	if len(counts) == 0 {
		return vector{}
	}

	v := vector{cols: make([]int, 0, len(counts))}
	for col := range counts {
		v.cols = append(v.cols, col)
	}
	slices.Sort(v.cols)

	v.vals = make([]float64, len(v.cols))
	var norm float64
	for i, col := range v.cols {
		w := float64(counts[col]) * s.idf[col]
		v.vals[i] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range v.vals {
		v.vals[i] /= norm
	}
	return v
}

// dot is a merge-join over two column-sorted sparse vectors.
func dot(a, b vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.cols) && j < len(b.cols) {
		switch {
		case a.cols[i] == b.cols[j]:
			sum += a.vals[i] * b.vals[j]
			i++
			j++
		case a.cols[i] < b.cols[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
