package id

import (
	"crypto/rand"
	"encoding/hex"
)

// Generator creates opaque identifiers. Connection handles come from here so
// that no component can derive meaning from them or forge one.
type Generator interface {
	New() string
}

type RandomHex struct{}

func (RandomHex) New() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
