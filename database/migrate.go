package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/foodcafeshop/food-cafe/models"
	"github.com/foodcafeshop/food-cafe/utils"
	"gorm.io/gorm"
)

// Models adalah semua tabel yang dikelola service ini.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.ShopSettings{},
		&models.Table{},
		&models.TableOTP{},
		&models.MenuItem{},
		&models.Customer{},
		&models.Order{},
		&models.OrderItem{},
		&models.Bill{},
		&models.DBChange{},
	}
}

// Migrate menjalankan AutoMigrate lalu file SQL tambahan di dir (jika ada).
func Migrate(db *gorm.DB, dir string) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Info("AutoMigrate completed.")

	if dir == "" {
		return nil
	}
	return ExecuteSQLFiles(db, dir)
}

// ExecuteSQLFiles menjalankan semua file *.sql di dir secara urut nama file.
// Statement dipisah dengan ";" di akhir baris. Statement yang gagal dicatat lalu dilewati,
// karena file ini berisi index/view opsional yang boleh sudah ada.
func ExecuteSQLFiles(db *gorm.DB, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		if _, statErr := os.Stat(dir); errors.Is(statErr, os.ErrNotExist) {
			return nil
		}
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}

		executed := 0
		for _, stmt := range SplitStatements(string(content)) {
			if err := db.Exec(stmt).Error; err != nil {
				utils.ErrorLogger.Errorf("Error executing statement from %s: %v\nStatement: %s", filepath.Base(file), err, stmt)
				continue
			}
			executed++
		}
		utils.InfoLogger.Infof("Executed %d statements from %s", executed, filepath.Base(file))
	}
	return nil
}

// SplitStatements memecah isi file SQL menjadi statement; komentar baris "--" dibuang.
func SplitStatements(sql string) []string {
	var (
		out     []string
		current strings.Builder
	)
	for _, line := range strings.Split(sql, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSuffix(strings.TrimSpace(current.String()), ";")
			if stmt != "" {
				out = append(out, stmt)
			}
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}
