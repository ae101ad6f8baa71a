package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	ReferralCodePrefix = "KIRDA"
	referralSuffixLen  = 5
	referralAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func GenerateReferralCode() (string, error) {
	buf := make([]byte, referralSuffixLen)
	max := big.NewInt(int64(len(referralAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = referralAlphabet[n.Int64()]
	}
	return ReferralCodePrefix + string(buf), nil
}
