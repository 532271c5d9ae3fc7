//go:build !moplatdebug
// +build !moplatdebug

package moplat

import "github.com/superxueyizou/MoPlaT/geom"

func assertFinite(what string, id int, v geom.Vec2) {}
