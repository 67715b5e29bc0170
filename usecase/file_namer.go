package usecase

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const (
	suffixLen   = 6
	suffixSpace = 36 * 36 * 36 * 36 * 36 * 36
	// suffixStep is coprime with 36 so consecutive suffixes walk the whole space.
	suffixStep = 1_000_000_007
)

// FileNamer produces <platform>_<unixMillis>_<base36 suffix>.mp4 names. The suffix
// starts at a random offset and never repeats within 36^6 calls of one process.
type FileNamer struct {
	now  func() time.Time
	seed uint64
	seq  atomic.Uint64
}

func NewFileNamer(now func() time.Time) *FileNamer {
	if now == nil {
		now = time.Now
	}
	return &FileNamer{now: now, seed: rand.Uint64N(suffixSpace)}
}

func (n *FileNamer) Next(platform string) string {
	i := n.seq.Add(1) % suffixSpace
	v := (n.seed + i*suffixStep) % suffixSpace
	suffix := strconv.FormatUint(v, 36)
	if len(suffix) < suffixLen {
		suffix = strings.Repeat("0", suffixLen-len(suffix)) + suffix
	}
	return fmt.Sprintf("%s_%d_%s.mp4", platform, n.now().UnixMilli(), suffix)
}
