package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Set holds distinct values in insertion order. Two values are the same
// member when their canonical JSON encodings match, so equality follows
// value semantics for any JSON-encodable T.
type Set[T any] struct {
	items []T
	index map[[32]byte]struct{}
}

func NewSet[T any]() *Set[T] {
	return &Set[T]{index: make(map[[32]byte]struct{})}
}

// Add inserts v unless an equal value is already present and reports
// whether it was inserted.
func (s *Set[T]) Add(v T) (bool, error) {
	key, err := Key(v)
	if err != nil {
		return false, err
	}
	if _, ok := s.index[key]; ok {
		return false, nil
	}
	if s.index == nil {
		s.index = make(map[[32]byte]struct{})
	}
	s.index[key] = struct{}{}
	s.items = append(s.items, v)
	return true, nil
}

func (s *Set[T]) Contains(v T) (bool, error) {
	key, err := Key(v)
	if err != nil {
		return false, err
	}
	_, ok := s.index[key]
	return ok, nil
}

func (s *Set[T]) Len() int {
	return len(s.items)
}

// Snapshot returns a copy of the members in insertion order. It is never nil.
func (s *Set[T]) Snapshot() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Key is the SHA3-256 digest of the canonical JSON encoding of v.
func Key(v any) ([32]byte, error) {
	data, err := canonicalJSON(v)
	if err != nil {
		return [32]byte{}, err
	}
	return sha3.Sum256(data), nil
}

// canonicalJSON re-encodes v through a generic decode so that object key
// order, insignificant whitespace and the spelling of numbers do not affect
// the result.
func canonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonicalize value: %w", err)
	}
	return json.Marshal(canonicalNumbers(generic))
}

func canonicalNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		return json.RawMessage(canonicalNumber(string(x)))
	case []any:
		for i := range x {
			x[i] = canonicalNumbers(x[i])
		}
		return x
	case map[string]any:
		for k, e := range x {
			x[k] = canonicalNumbers(e)
		}
		return x
	}
	return v
}

// numberPrec is the mantissa precision used to compare non-integral numbers.
const numberPrec = 512

// canonicalNumber renders a JSON number literal so that equal values share
// one spelling: 1, 1.0, 1e0 and 10e-1 all become 1.
func canonicalNumber(lit string) string {
	if !strings.ContainsAny(lit, ".eE") {
		if n, ok := new(big.Int).SetString(lit, 10); ok {
			return n.String()
		}
		return lit
	}
	f, _, err := big.ParseFloat(lit, 10, numberPrec, big.ToNearestEven)
	if err != nil {
		return lit
	}
	if f.IsInt() && f.MantExp(nil) <= numberPrec {
		n, _ := f.Int(nil)
		return n.String()
	}
	return f.Text('g', -1)
}
