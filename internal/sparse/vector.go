// Package sparse implements the sparse float vector used for weighted phrase
// counts, with the dot products and elementwise operations the vectorizer
// needs. Stored entries are kept in ascending index order; "sparse" describes
// storage, so a stored value may be zero after a multiply.
package sparse

import (
	"fmt"
	"math"

	"github.com/viterin/vek/vek32"
)

// Tolerance is the absolute difference under which IsClose treats two
// scalars as equal.
const Tolerance = 1e-6

// Number is any element type a dense vector can be built from.
type Number interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float32 | ~float64
}

// Vector is a sparse representation of a dense float32 vector of length
// MaxIndex. Indices are strictly ascending; Values[i] belongs to Indices[i].
type Vector struct {
	MaxIndex int
	Indices  []int
	Values   []float32
}

// FromDense records the non-zero entries of dense in ascending order.
func FromDense[T Number](dense []T) Vector {
	out := Vector{MaxIndex: len(dense)}
	for i, x := range dense {
		if x == 0 {
			continue
		}
		out.Indices = append(out.Indices, i)
		out.Values = append(out.Values, float32(x))
	}
	return out
}

// New builds a Vector from its parts, checking the storage invariants.
func New(maxIndex int, values []float32, indices []int) (Vector, error) {
	if len(values) != len(indices) {
		return Vector{}, fmt.Errorf("sparse vector has %d values but %d indices", len(values), len(indices))
	}
	for i, idx := range indices {
		if idx < 0 || idx >= maxIndex {
			return Vector{}, fmt.Errorf("sparse index %d out of range [0, %d)", idx, maxIndex)
		}
		if i > 0 && idx <= indices[i-1] {
			return Vector{}, fmt.Errorf("sparse indices not strictly ascending at position %d", i)
		}
	}
	return Vector{MaxIndex: maxIndex, Indices: indices, Values: values}, nil
}

// NNZ is the number of stored entries.
func (v Vector) NNZ() int { return len(v.Indices) }

// Empty reports whether nothing is stored.
func (v Vector) Empty() bool { return len(v.Indices) == 0 }

// Clone returns a deep copy.
func (v Vector) Clone() Vector {
	out := Vector{MaxIndex: v.MaxIndex}
	if v.Indices != nil {
		out.Indices = append([]int(nil), v.Indices...)
		out.Values = append([]float32(nil), v.Values...)
	}
	return out
}

// Dot is the inner product of two sparse vectors, computed by merging the
// two ascending index lists.
func (v Vector) Dot(o Vector) float32 {
	var out float32
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] < o.Indices[j]:
			i++
		case v.Indices[i] > o.Indices[j]:
			j++
		default:
			out += v.Values[i] * o.Values[j]
			i++
			j++
		}
	}
	return out
}

// DotDense is the inner product with a dense vector covering v.MaxIndex.
func (v Vector) DotDense(dense []float32) float32 {
	if v.Empty() {
		return 0
	}
	return vek32.Dot(v.Values, gather(dense, v.Indices))
}

// Multiply returns a copy of v with every stored value scaled by
// dense[index]. The receiver is unchanged.
func (v Vector) Multiply(dense []float32) Vector {
	out := v.Clone()
	out.MultiplyInPlace(dense)
	return out
}

// MultiplyInPlace scales every stored value by dense[index]. The caller must
// own v exclusively: its Values slice is overwritten.
func (v *Vector) MultiplyInPlace(dense []float32) {
	if v.Empty() {
		return
	}
	vek32.Mul_Inplace(v.Values, gather(dense, v.Indices))
}

// Norm is the L2 norm of the stored values.
func (v Vector) Norm() float32 {
	if v.Empty() {
		return 0
	}
	return float32(math.Sqrt(float64(vek32.Dot(v.Values, v.Values))))
}

// Normalize returns v scaled to unit L2 norm. A zero-norm vector comes back
// as an unchanged copy.
func (v Vector) Normalize() Vector {
	out := v.Clone()
	out.NormalizeInPlace()
	return out
}

// NormalizeInPlace is Normalize on a vector the caller owns.
func (v *Vector) NormalizeInPlace() {
	norm := v.Norm()
	if norm == 0 {
		return
	}
	vek32.DivNumber_Inplace(v.Values, norm)
}

// Log1pInPlace replaces every stored value x with log(1 + x).
func (v *Vector) Log1pInPlace() {
	for i, x := range v.Values {
		v.Values[i] = float32(math.Log1p(float64(x)))
	}
}

// ToDense expands v to a dense slice of length MaxIndex.
func (v Vector) ToDense() []float32 {
	out := make([]float32, v.MaxIndex)
	for i, idx := range v.Indices {
		out[idx] = v.Values[i]
	}
	return out
}

// IsClose reports whether x and y differ by less than Tolerance.
func IsClose(x, y float64) bool {
	return math.Abs(x-y) < Tolerance
}

func gather(dense []float32, indices []int) []float32 {
	out := make([]float32, len(indices))
	for i, idx := range indices {
		out[i] = dense[idx]
	}
	return out
}
