//go:build cgo

package vector

import vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

func init() {
	// Registers sqlite-vec on every new SQLite connection so
	// vec_distance_cosine is available to queries.
	vec.Auto()
}
