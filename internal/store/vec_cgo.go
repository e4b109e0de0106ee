//go:build sqlite_vec && cgo

package store

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

func init() {
	// Registers vec0 as an auto-loadable extension on every mattn/go-sqlite3
	// connection opened after this point.
	vec.Auto()
}
