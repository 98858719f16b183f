package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	// nanoidAlphabet omits look-alike characters so keys survive being read aloud
	nanoidAlphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	idBodyLength   = 24
)

// Entity id prefixes
const (
	ProgramIDPrefix    = "prog_"
	RewardIDPrefix     = "rw_"
	FolderIDPrefix     = "fold_"
	PartnerIDPrefix    = "pn_"
	EnrollmentIDPrefix = "pge_"
	LinkIDPrefix       = "link_"
)

// CreateID returns a new random id with the given prefix, e.g. prog_3FQ7...
func CreateID(prefix string) string {
	return prefix + randomFrom(nanoidAlphabet, idBodyLength)
}

// Nanoid returns a random string of n url-safe characters
func Nanoid(n int) string {
	return randomFrom(nanoidAlphabet, n)
}

// GenerateRandomString returns n random alphanumeric characters
func GenerateRandomString(n int) string {
	return randomFrom(alphanumeric, n)
}

func randomFrom(alphabet string, n int) string {
	if n <= 0 {
		return ""
	}
	max := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(fmt.Sprintf("utils: read random: %v", err))
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String()
}

// ParseUUID parses s as a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid uuid %q: %w", s, err)
	}
	return id, nil
}
