package service

import (
	"math/rand"
	"time"

	"manai-service/internal/models"
)

// Voucher amounts in kobo, picked uniformly. Promotional only; the code uses
// math/rand on purpose, it is not an access token.
var voucherAmounts = []int64{50000, 20000, 10000, 5000}

const (
	voucherPrefix     = "MANAI-"
	voucherCodeLength = 6
	voucherAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewVoucher generates the promotional voucher attached to a placed order.
func NewVoucher(validity time.Duration, now time.Time) models.Voucher {
	code := make([]byte, voucherCodeLength)
	for i := range code {
		code[i] = voucherAlphabet[rand.Intn(len(voucherAlphabet))]
	}

	return models.Voucher{
		Code:      voucherPrefix + string(code),
		Amount:    voucherAmounts[rand.Intn(len(voucherAmounts))],
		ExpiresAt: now.Add(validity),
	}
}
