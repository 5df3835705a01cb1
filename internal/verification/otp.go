package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPLength is the fixed width of every issued code.
const OTPLength = 6

// OTPTTL is how long an issued code stays valid.
const OTPTTL = 5 * time.Minute

// GenerateOTP returns a fixed-width decimal code with every digit uniformly
// distributed, so "012345" is as likely as "987654".
func GenerateOTP() (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(OTPLength), nil)

	num, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", OTPLength, num), nil
}
