//go:build moplatdebug
// +build moplatdebug

package moplat

import (
	"fmt"

	"github.com/superxueyizou/MoPlaT/geom"
)

// assertFinite panics on NaN or infinite vectors.
func assertFinite(what string, id int, v geom.Vec2) {
	if !v.IsFinite() {
		panic(fmt.Sprintf("moplat: agent %d: non-finite %s %v", id, what, v))
	}
}
