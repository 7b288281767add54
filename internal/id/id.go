// Package id generates identifiers for orders and positions that arrive
// without a broker assigned id.
package id

import (
	"bytes"
	cryptoRand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID stamped with the current time.
func New() string {
	return At(time.Now())
}

// At returns a ULID stamped with t. IDs generated for the same millisecond
// keep increasing. Times outside the ULID range are clamped to it.
func At(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(stamp(t), mono)
	if err != nil {
		// Monotonic entropy overflow within one millisecond.
		panic(err)
	}
	return id.String()
}

// Derive returns a ULID stamped with t whose entropy is taken from key.
// The same t and key always give the same id.
func Derive(t time.Time, key string) string {
	sum := sha256.Sum256([]byte(key))
	id, err := ulid.New(stamp(t), bytes.NewReader(sum[:]))
	if err != nil {
		panic(err)
	}
	return id.String()
}

var (
	minTime = time.Unix(0, 0).UTC()
	maxTime = ulid.Time(ulid.MaxTime()).UTC()
)

func stamp(t time.Time) uint64 {
	switch {
	case t.Before(minTime):
		return 0
	case t.After(maxTime):
		return ulid.MaxTime()
	}
	return ulid.Timestamp(t)
}

// Time extracts the timestamp of a ULID.
func Time(s string) (time.Time, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse id %q: %w", s, err)
	}
	return ulid.Time(id.Time()).UTC(), nil
}
