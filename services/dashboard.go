package services

import (
	"context"
	"fmt"
	"time"

	"github.com/foodcafeshop/food-cafe/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// DashboardStats adalah ringkasan operasional satu toko untuk satu hari.
type DashboardStats struct {
	Tables       map[string]int64 `json:"tables"`
	Orders       map[string]int64 `json:"orders"`
	BillsToday   int64            `json:"bills_today"`
	RevenueToday float64          `json:"revenue_today"`
	Day          string           `json:"day"`
}

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

type statusCount struct {
	Status string
	Total  int64
}

func countByStatus(db *gorm.DB, model interface{}, shopID uint, extra func(*gorm.DB) *gorm.DB) (map[string]int64, error) {
	var rows []statusCount
	q := db.Model(model).Select("status, COUNT(*) AS total").Where("shop_id = ?", shopID)
	if extra != nil {
		q = extra(q)
	}
	if err := q.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Total
	}
	return out, nil
}

// Stats menghitung meja per status, order hari ini per status dan bill hari ini.
func (s *DashboardService) Stats(ctx context.Context, shopID uint, day time.Time) (*DashboardStats, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	stats := &DashboardStats{Day: start.Format("2006-01-02")}

	g, gctx := errgroup.WithContext(ctx)
	db := s.db.WithContext(gctx)

	g.Go(func() error {
		tables, err := countByStatus(db, &models.Table{}, shopID, nil)
		if err != nil {
			return fmt.Errorf("count tables: %w", err)
		}
		for _, st := range []string{models.TableStatusEmpty, models.TableStatusOccupied, models.TableStatusBilled} {
			if _, ok := tables[st]; !ok {
				tables[st] = 0
			}
		}
		stats.Tables = tables
		return nil
	})
	g.Go(func() error {
		orders, err := countByStatus(db, &models.Order{}, shopID, func(q *gorm.DB) *gorm.DB {
			return q.Where("created_at >= ? AND created_at < ?", start, end)
		})
		if err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		stats.Orders = orders
		return nil
	})
	g.Go(func() error {
		var row struct {
			Total   int64
			Revenue float64
		}
		err := db.Model(&models.Bill{}).
			Select("COUNT(*) AS total, COALESCE(SUM(total_amount), 0) AS revenue").
			Where("shop_id = ? AND created_at >= ? AND created_at < ?", shopID, start, end).
			Scan(&row).Error
		if err != nil {
			return fmt.Errorf("sum bills: %w", err)
		}
		stats.BillsToday = row.Total
		stats.RevenueToday = row.Revenue
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
