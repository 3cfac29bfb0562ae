// internal/utils/tbt.go
package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

// TBT codes look like TBT-2026-A1B2C3: the certification year plus six
// uppercase alphanumerics. Global uniqueness is the database's job; this
// package only produces and validates candidates.
var tbtCodePattern = regexp.MustCompile(`^TBT-\d{4}-[A-Z0-9]{6}$`)

const tbtCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func GenerateTBTCode() (string, error) {
	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tbtCharset))))
		if err != nil {
			return "", err
		}
		suffix[i] = tbtCharset[n.Int64()]
	}

	return fmt.Sprintf("TBT-%d-%s", time.Now().Year(), string(suffix)), nil
}

func ValidateTBTCode(code string) bool {
	return tbtCodePattern.MatchString(code)
}

// NormalizeTBTCode trims surrounding whitespace and uppercases, so user
// input like " tbt-2026-a1b2c3 " resolves to the stored code.
func NormalizeTBTCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
