package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/foodcafeshop/food-cafe/models"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// normalizePhone membuang spasi dan tanda hubung lalu memvalidasi format.
func normalizePhone(phone string) (string, error) {
	phone = strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
	if phone == "" {
		return "", nil
	}
	if !phonePattern.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

// TableView adalah meja + OTP untuk listing staff.
type TableView struct {
	models.Table
	OTP string `json:"otp,omitempty"`
}

type TableInput struct {
	Label string  `json:"label" binding:"required,max=50"`
	Seats int     `json:"seats" binding:"required,min=1"`
	PosX  float64 `json:"pos_x"`
	PosY  float64 `json:"pos_y"`
}

type TableUpdate struct {
	Label *string  `json:"label" binding:"omitempty,max=50"`
	Seats *int     `json:"seats" binding:"omitempty,min=1"`
	PosX  *float64 `json:"pos_x"`
	PosY  *float64 `json:"pos_y"`
}

// JoinRequest adalah data sesi customer yang ingin bergabung ke meja.
type JoinRequest struct {
	SessionID string
	Name      string
	Phone     string
	OTP       string
	JoinedAt  time.Time
}

// TableService memegang state machine meja: empty -> occupied -> billed -> empty.
type TableService struct {
	db       *gorm.DB
	otp      *OTPService
	settings *SettingsProvider
}

func NewTableService(db *gorm.DB, otp *OTPService, settings *SettingsProvider) *TableService {
	return &TableService{db: db, otp: otp, settings: settings}
}

func tableLog(shopID, tableID uint) *logrus.Entry {
	return utils.InfoLogger.WithFields(logrus.Fields{"shop_id": shopID, "table_id": tableID})
}

// lockTable membaca meja dengan SELECT ... FOR UPDATE di dalam tx.
func lockTable(tx *gorm.DB, shopID, tableID uint) (*models.Table, error) {
	var table models.Table
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND shop_id = ?", tableID, shopID).
		First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound.WithMessage("table not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lock table: %w", err)
	}
	return &table, nil
}

func (s *TableService) List(ctx context.Context, shopID uint) ([]TableView, error) {
	var tables []models.Table
	if err := s.db.WithContext(ctx).Where("shop_id = ?", shopID).Order("label ASC").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	codes, err := s.otp.tableCodes(ctx, shopID)
	if err != nil {
		return nil, err
	}

	out := make([]TableView, 0, len(tables))
	for _, t := range tables {
		out = append(out, TableView{Table: t, OTP: codes[t.ID]})
	}
	return out, nil
}

func (s *TableService) Get(ctx context.Context, shopID, tableID uint) (*models.Table, error) {
	var table models.Table
	err := s.db.WithContext(ctx).Where("id = ? AND shop_id = ?", tableID, shopID).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound.WithMessage("table not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get table: %w", err)
	}
	return &table, nil
}

func (s *TableService) Create(ctx context.Context, shopID uint, in TableInput) (*TableView, error) {
	label := strings.TrimSpace(in.Label)
	if label == "" || in.Seats < 1 {
		return nil, ErrValidation.WithMessage("label and seats are required")
	}

	table := models.Table{
		ShopID:          shopID,
		Label:           label,
		Seats:           in.Seats,
		PosX:            in.PosX,
		PosY:            in.PosY,
		Status:          models.TableStatusEmpty,
		ActiveCustomers: datatypes.JSONSlice[models.ActiveCustomer]{},
	}
	var code string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&table).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateLabel
			}
			return fmt.Errorf("create table: %w", err)
		}
		var err error
		if code, err = s.otp.createForTable(tx, shopID, table.ID); err != nil {
			return err
		}
		return recordChange(tx, shopID, EntityTable, table.ID, models.ActionInsert)
	})
	if err != nil {
		return nil, err
	}

	tableLog(shopID, table.ID).WithField("label", table.Label).Info("table created")
	return &TableView{Table: table, OTP: code}, nil
}

// Update hanya mengubah atribut fisik meja; status dikelola oleh state machine.
func (s *TableService) Update(ctx context.Context, shopID, tableID uint, in TableUpdate) (*models.Table, error) {
	var table *models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if table, err = lockTable(tx, shopID, tableID); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Label != nil {
			label := strings.TrimSpace(*in.Label)
			if label == "" {
				return ErrValidation.WithMessage("label cannot be empty")
			}
			updates["label"] = label
		}
		if in.Seats != nil {
			if *in.Seats < 1 {
				return ErrValidation.WithMessage("seats must be at least 1")
			}
			updates["seats"] = *in.Seats
		}
		if in.PosX != nil {
			updates["pos_x"] = *in.PosX
		}
		if in.PosY != nil {
			updates["pos_y"] = *in.PosY
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(table).Updates(updates).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateLabel
			}
			return fmt.Errorf("update table: %w", err)
		}
		return recordChange(tx, shopID, EntityTable, table.ID, models.ActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, shopID, tableID)
}

// Delete menghapus meja. Order cancelled dilepas dari meja; jika masih ada order lain, ditolak.
func (s *TableService) Delete(ctx context.Context, shopID, tableID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := lockTable(tx, shopID, tableID)
		if err != nil {
			return err
		}
		if err := detachCancelledOrders(tx, shopID, table.ID); err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.Order{}).Where("table_id = ?", table.ID).Count(&remaining).Error; err != nil {
			return fmt.Errorf("count table orders: %w", err)
		}
		if remaining > 0 {
			return ErrTableHasOrders
		}

		if err := tx.Where("table_id = ?", table.ID).Delete(&models.TableOTP{}).Error; err != nil {
			return fmt.Errorf("delete table otp: %w", err)
		}
		if err := tx.Delete(table).Error; err != nil {
			return fmt.Errorf("delete table: %w", err)
		}
		return recordChange(tx, shopID, EntityTable, table.ID, models.ActionDelete)
	})
	if err != nil {
		return err
	}
	tableLog(shopID, tableID).Info("table deleted")
	return nil
}

func detachCancelledOrders(tx *gorm.DB, shopID, tableID uint) error {
	err := tx.Model(&models.Order{}).
		Where("shop_id = ? AND table_id = ? AND status = ?", shopID, tableID, models.OrderStatusCancelled).
		Update("table_id", nil).Error
	if err != nil {
		return fmt.Errorf("detach cancelled orders: %w", err)
	}
	return nil
}

func (s *TableService) validateJoin(ctx context.Context, shopID uint, req *JoinRequest) error {
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Name = strings.TrimSpace(req.Name)
	if req.SessionID == "" {
		return ErrValidation.WithMessage("session id is required")
	}
	if req.Name == "" {
		return ErrValidation.WithMessage("name is required")
	}

	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return err
	}
	req.Phone = phone

	settings, err := s.settings.Get(ctx, shopID)
	if err != nil {
		return err
	}
	if settings.IsPhoneMandatory && req.Phone == "" {
		return ErrPhoneRequired
	}
	if req.JoinedAt.IsZero() {
		req.JoinedAt = time.Now()
	}
	return nil
}

// Join menambahkan sesi customer ke meja secara atomik (row lock di dalam transaksi).
// Hasilnya hanya pass/fail: OTP salah, meja tidak ada, atau meja billed -> false tanpa error.
// Error hanya untuk input tidak valid dan kegagalan store.
func (s *TableService) Join(ctx context.Context, shopID, tableID uint, req JoinRequest) (bool, error) {
	if err := s.validateJoin(ctx, shopID, &req); err != nil {
		return false, err
	}

	ok, err := s.otp.VerifyTable(ctx, shopID, tableID, req.OTP)
	if err != nil {
		return false, err
	}
	if !ok {
		tableLog(shopID, tableID).Warn("join rejected: otp mismatch")
		return false, nil
	}

	joined := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := lockTable(tx, shopID, tableID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if table.Status == models.TableStatusBilled {
			return nil
		}

		table.ActiveCustomers = mergeCustomer(table.ActiveCustomers, models.ActiveCustomer{
			SessionID: req.SessionID,
			Name:      req.Name,
			Phone:     req.Phone,
			JoinedAt:  req.JoinedAt,
		})
		err = tx.Model(table).Updates(map[string]interface{}{
			"status":           models.TableStatusOccupied,
			"active_customers": table.ActiveCustomers,
		}).Error
		if err != nil {
			return fmt.Errorf("join table: %w", err)
		}
		if err := recordChange(tx, shopID, EntityTable, table.ID, models.ActionUpdate); err != nil {
			return err
		}
		joined = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if joined {
		tableLog(shopID, tableID).WithField("session_id", req.SessionID).Info("customer joined table")
	}
	return joined, nil
}

// mergeCustomer: sesi yang sama di-update; nomor telepon yang sama dengan sesi lain menggantikan sesi lama.
func mergeCustomer(list []models.ActiveCustomer, c models.ActiveCustomer) datatypes.JSONSlice[models.ActiveCustomer] {
	out := make(datatypes.JSONSlice[models.ActiveCustomer], 0, len(list)+1)
	for _, existing := range list {
		if existing.SessionID == c.SessionID {
			continue
		}
		if c.Phone != "" && existing.Phone == c.Phone {
			continue
		}
		out = append(out, existing)
	}
	return append(out, c)
}

// Clear mengembalikan meja ke empty dan menghapus semua sesi.
// Tanpa force meja harus billed; force dipakai untuk eviction kapan saja.
func (s *TableService) Clear(ctx context.Context, shopID, tableID uint, force bool) (*models.Table, error) {
	var table *models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if table, err = lockTable(tx, shopID, tableID); err != nil {
			return err
		}
		if !force && table.Status != models.TableStatusBilled {
			return ErrTableNotBilled
		}

		table.Status = models.TableStatusEmpty
		table.ActiveCustomers = datatypes.JSONSlice[models.ActiveCustomer]{}
		err = tx.Model(table).Updates(map[string]interface{}{
			"status":           table.Status,
			"active_customers": table.ActiveCustomers,
		}).Error
		if err != nil {
			return fmt.Errorf("clear table: %w", err)
		}
		if err := detachCancelledOrders(tx, shopID, table.ID); err != nil {
			return err
		}
		return recordChange(tx, shopID, EntityTable, table.ID, models.ActionUpdate)
	})
	if err != nil {
		return nil, err
	}

	tableLog(shopID, tableID).WithField("force", force).Info("table cleared")
	return table, nil
}
