package embedding

import "errors"

// ErrEmptyEmbedding is returned when a provider answers without a vector.
var ErrEmptyEmbedding = errors.New("no embedding returned")

// Fit converts a provider vector to float32 at exactly dim entries,
// truncating or zero-padding as needed so it matches the store's vector size.
func Fit[T float32 | float64](vals []T, dim int) []float32 {
	out := make([]float32, dim)
	for i := 0; i < dim && i < len(vals); i++ {
		out[i] = float32(vals[i])
	}
	return out
}
