package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/foodcafeshop/food-cafe/models"
	"github.com/foodcafeshop/food-cafe/realtime"
	"gorm.io/gorm"
)

// GuardAction adalah apa yang harus dilakukan client customer setelah sesi dievaluasi.
type GuardAction string

const (
	// sesi valid, tidak perlu apa-apa
	GuardNone GuardAction = "none"
	// tampilkan lagi join/OTP, nama & telepon tetap diingat
	GuardReauthenticate GuardAction = "reauthenticate"
	// hapus seluruh identitas customer
	GuardLogout GuardAction = "logout"
)

// Alasan verdict
const (
	ReasonValid        = "valid"
	ReasonNotJoined    = "not_joined"
	ReasonEvicted      = "evicted"
	ReasonTableCleared = "table_cleared"
	ReasonTableRemoved = "table_removed"
)

// SessionState adalah state client yang dibawa dari evaluasi sebelumnya.
type SessionState struct {
	SessionID string `json:"session_id"`
	Validated bool   `json:"validated"`
}

type SessionVerdict struct {
	Valid       bool        `json:"valid"`
	Action      GuardAction `json:"action"`
	Reason      string      `json:"reason"`
	TableStatus string      `json:"table_status,omitempty"`
	Validated   bool        `json:"validated"`
}

// EvaluateSession adalah reducer murni: snapshot meja saat ini -> verdict.
// Sesi valid jika session id ada di active_customers dan status meja bukan empty.
// Selalu dihitung dari snapshot terbaru; flag Validated hanya membedakan
// "belum pernah tervalidasi" (reauthenticate) dari "tadinya valid lalu dikeluarkan" (logout).
func EvaluateSession(state SessionState, table *models.Table) (SessionState, SessionVerdict) {
	if table == nil {
		return SessionState{SessionID: state.SessionID}, SessionVerdict{
			Action: GuardLogout,
			Reason: ReasonTableRemoved,
		}
	}

	verdict := SessionVerdict{TableStatus: table.Status}
	if table.Status != models.TableStatusEmpty && table.HasSession(state.SessionID) {
		verdict.Valid = true
		verdict.Validated = true
		verdict.Action = GuardNone
		verdict.Reason = ReasonValid
		return SessionState{SessionID: state.SessionID, Validated: true}, verdict
	}

	switch {
	case table.Status == models.TableStatusEmpty:
		verdict.Action = GuardLogout
		verdict.Reason = ReasonTableCleared
	case state.Validated:
		verdict.Action = GuardLogout
		verdict.Reason = ReasonEvicted
	default:
		verdict.Action = GuardReauthenticate
		verdict.Reason = ReasonNotJoined
	}
	return SessionState{SessionID: state.SessionID}, verdict
}

// SessionGuard menerapkan EvaluateSession ke state meja di database dan ke stream perubahan.
type SessionGuard struct {
	db  *gorm.DB
	hub *realtime.Hub
}

func NewSessionGuard(db *gorm.DB, hub *realtime.Hub) *SessionGuard {
	return &SessionGuard{db: db, hub: hub}
}

func (g *SessionGuard) snapshot(ctx context.Context, shopID, tableID uint) (*models.Table, error) {
	var table models.Table
	err := g.db.WithContext(ctx).Where("id = ? AND shop_id = ?", tableID, shopID).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}
	return &table, nil
}

// Check mengevaluasi sesi sekali terhadap state meja saat ini.
func (g *SessionGuard) Check(ctx context.Context, shopID, tableID uint, state SessionState) (SessionState, SessionVerdict, error) {
	table, err := g.snapshot(ctx, shopID, tableID)
	if err != nil {
		return state, SessionVerdict{}, err
	}
	next, verdict := EvaluateSession(state, table)
	return next, verdict, nil
}

// Watch mengirim verdict sekali di awal lalu setiap kali meja berubah, sampai ctx selesai.
// Channel ditutup saat Watch berhenti.
func (g *SessionGuard) Watch(ctx context.Context, shopID, tableID uint, sessionID string) (<-chan SessionVerdict, error) {
	// subscribe dulu supaya perubahan di antara evaluasi awal dan subscribe tidak hilang
	sub := g.hub.Subscribe(realtime.TableTopic(tableID), 8)

	state, first, err := g.Check(ctx, shopID, tableID, SessionState{SessionID: sessionID})
	if err != nil {
		sub.Close()
		return nil, err
	}

	out := make(chan SessionVerdict, 1)
	out <- first

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.C:
				if !ok {
					return
				}
				next, verdict, err := g.Check(ctx, shopID, tableID, state)
				if err != nil {
					// state lama dipertahankan; event berikutnya akan evaluasi ulang
					continue
				}
				state = next
				select {
				case out <- verdict:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
