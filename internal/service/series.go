package service

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// newSeries generates the externally-visible, human-readable series code for
// a request, e.g. "LR-MEW3K9J2-A41F0C". Unique (timestamp plus random
// suffix), generated once at creation, immutable afterwards.
func newSeries(prefix string) string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	buf := make([]byte, 3)
	rand.Read(buf)
	return strings.ToUpper(prefix + "-" + ts + "-" + hex.EncodeToString(buf))
}
