package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/foodcafeshop/food-cafe/models"
	"github.com/foodcafeshop/food-cafe/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OTPDisabledCode diterima sebagai OTP saat toko mematikan OTP.
const OTPDisabledCode = "0000"

const otpLength = 4

// OTPService memverifikasi dan merotasi OTP meja serta OTP takeaway toko.
type OTPService struct {
	db       *gorm.DB
	settings *SettingsProvider
	newCode  func() (string, error)
}

func NewOTPService(db *gorm.DB, settings *SettingsProvider) *OTPService {
	return &OTPService{db: db, settings: settings, newCode: randomDigits}
}

func randomDigits() (string, error) {
	b := make([]byte, otpLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		b[i] = byte('0' + n.Int64())
	}
	return string(b), nil
}

func codesEqual(expected, given string) bool {
	if expected == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}

// VerifyTable -> true jika code cocok dengan OTP meja (atau sentinel saat OTP dimatikan).
func (s *OTPService) VerifyTable(ctx context.Context, shopID, tableID uint, code string) (bool, error) {
	settings, err := s.settings.Get(ctx, shopID)
	if err != nil {
		return false, err
	}
	if !settings.EnableOtp {
		return codesEqual(OTPDisabledCode, code), nil
	}

	var otp models.TableOTP
	err = s.db.WithContext(ctx).
		Where("shop_id = ? AND table_id = ?", shopID, tableID).
		First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load table otp: %w", err)
	}
	return codesEqual(otp.Code, code), nil
}

// VerifyTakeaway -> verifikasi OTP level toko untuk takeaway/delivery (sentinel saat OTP dimatikan).
func (s *OTPService) VerifyTakeaway(ctx context.Context, shopID uint, code string) (bool, error) {
	settings, err := s.settings.Get(ctx, shopID)
	if err != nil {
		return false, err
	}
	if !settings.EnableOtp {
		return codesEqual(OTPDisabledCode, code), nil
	}
	return codesEqual(settings.TakeawayOTP, code), nil
}

// createForTable dipanggil di transaksi pembuatan meja.
func (s *OTPService) createForTable(tx *gorm.DB, shopID, tableID uint) (string, error) {
	code, err := s.newCode()
	if err != nil {
		return "", err
	}
	otp := models.TableOTP{ShopID: shopID, TableID: tableID, Code: code, RotatedAt: time.Now()}
	if err := tx.Create(&otp).Error; err != nil {
		return "", fmt.Errorf("create table otp: %w", err)
	}
	return code, nil
}

// RotateTable membuat OTP baru untuk meja.
func (s *OTPService) RotateTable(ctx context.Context, shopID, tableID uint) (string, error) {
	var table models.Table
	err := s.db.WithContext(ctx).Where("id = ? AND shop_id = ?", tableID, shopID).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound.WithMessage("table not found")
	}
	if err != nil {
		return "", fmt.Errorf("load table: %w", err)
	}

	code, err := s.newCode()
	if err != nil {
		return "", err
	}
	otp := models.TableOTP{ShopID: shopID, TableID: tableID, Code: code, RotatedAt: time.Now()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "table_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "rotated_at"}),
	}).Create(&otp).Error
	if err != nil {
		return "", fmt.Errorf("rotate table otp: %w", err)
	}

	utils.InfoLogger.WithFields(map[string]interface{}{"shop_id": shopID, "table_id": tableID}).Info("table otp rotated")
	return code, nil
}

// RotateTakeaway membuat OTP takeaway baru. Setting toko dibuat dari default jika belum ada.
func (s *OTPService) RotateTakeaway(ctx context.Context, shopID uint) (string, error) {
	code, err := s.newCode()
	if err != nil {
		return "", err
	}

	current, err := s.settings.Get(ctx, shopID)
	if err != nil {
		return "", err
	}
	current.ID = 0
	current.TakeawayOTP = code
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"takeaway_otp", "updated_at"}),
	}).Create(current).Error
	if err != nil {
		return "", fmt.Errorf("rotate takeaway otp: %w", err)
	}
	return code, nil
}

// tableCodes mengembalikan OTP per meja untuk listing staff.
func (s *OTPService) tableCodes(ctx context.Context, shopID uint) (map[uint]string, error) {
	var otps []models.TableOTP
	if err := s.db.WithContext(ctx).Where("shop_id = ?", shopID).Find(&otps).Error; err != nil {
		return nil, fmt.Errorf("load table otps: %w", err)
	}
	out := make(map[uint]string, len(otps))
	for _, o := range otps {
		out[o.TableID] = o.Code
	}
	return out, nil
}
