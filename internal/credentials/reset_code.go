package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// ResetCodeLength is the number of digits in a password reset code
const ResetCodeLength = 6

// GenerateResetCode returns a uniformly random 6-digit code, leading zeros included
func GenerateResetCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%0*d", ResetCodeLength, n.Int64()), nil
}
