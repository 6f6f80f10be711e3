package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"gorm.io/gorm"
)

const (
	OrderNumberLength = 6
	BillNumberLength  = 8

	// MaxCodeAttempts -> batas retry saat nomor bentrok dengan unique index
	MaxCodeAttempts = 5
)

// tanpa 0/O dan 1/I/L supaya mudah dibacakan
const codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// CodeGenerator menghasilkan kode pendek untuk nomor order dan nomor bill.
type CodeGenerator func(length int) (string, error)

// RandomCode adalah generator default berbasis crypto/rand.
func RandomCode(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		sb.WriteByte(codeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// insertWithCode membuat kode lalu menjalankan insert. Hanya pelanggaran unique yang di-retry;
// error lain langsung dikembalikan. Setiap percobaan jalan di savepoint sendiri sehingga aman
// dipakai di dalam transaksi postgres.
func insertWithCode(tx *gorm.DB, gen CodeGenerator, length int, insert func(tx *gorm.DB, code string) error) (string, error) {
	for attempt := 1; attempt <= MaxCodeAttempts; attempt++ {
		code, err := gen(length)
		if err != nil {
			return "", err
		}

		err = tx.Transaction(func(sp *gorm.DB) error {
			return insert(sp, code)
		})
		if err == nil {
			return code, nil
		}
		if !isUniqueViolation(err) {
			return "", err
		}
	}
	return "", ErrExhaustedRetries
}

// isUniqueViolation mengenali duplicate key dari semua driver yang dipakai.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
