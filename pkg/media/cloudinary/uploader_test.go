package cloudinary

import (
	"crypto/sha1"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignSortsParamsAndAppendsSecret(t *testing.T) {
	u := NewUploader("demo", "key", "secret")
	u.now = func() time.Time { return time.Unix(1700000000, 0) }

	got := u.sign(map[string]string{
		"timestamp": "1700000000",
		"folder":    "leo_generations",
	})

	sum := sha1.Sum([]byte("folder=leo_generations&timestamp=1700000000secret"))
	assert.Equal(t, hex.EncodeToString(sum[:]), got)
}
