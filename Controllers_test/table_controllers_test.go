package Controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAllTables(t *testing.T) {
	s := newServer(t)
	staff := s.token("staff")
	s.createTable(staff, "A1")
	s.createTable(staff, "B1")

	w, resp := s.do(http.MethodGet, "/admin/tables", staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "List of tables", resp.Message)

	var tables []struct {
		Label  string `json:"label"`
		Status string `json:"status"`
		OTP    string `json:"otp"`
	}
	decode(t, resp.Data, &tables)
	require.Len(t, tables, 2)
	for _, tb := range tables {
		assert.Equal(t, "empty", tb.Status)
		assert.Len(t, tb.OTP, 4)
	}
}

func TestTableRoutesNeedStaffToken(t *testing.T) {
	s := newServer(t)

	w, _ := s.do(http.MethodGet, "/admin/tables", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodPost, "/admin/tables", s.token("kitchen"), gin.H{"label": "A1", "seats": 2})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateTableValidation(t *testing.T) {
	s := newServer(t)
	staff := s.token("staff")
	s.createTable(staff, "A1")

	w, _ := s.do(http.MethodPost, "/admin/tables", staff, gin.H{"label": "A1", "seats": 2})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPost, "/admin/tables", staff, gin.H{"label": "A2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAndDeleteTable(t *testing.T) {
	s := newServer(t)
	staff := s.token("staff")
	id, _ := s.createTable(staff, "C1")

	w, resp := s.do(http.MethodPatch, fmt.Sprintf("/admin/tables/%d", id), staff, gin.H{"label": "C2", "seats": 6})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var table struct {
		Label string `json:"label"`
		Seats int    `json:"seats"`
	}
	decode(t, resp.Data, &table)
	assert.Equal(t, "C2", table.Label)
	assert.Equal(t, 6, table.Seats)

	w, _ = s.do(http.MethodPatch, "/admin/tables/abc", staff, gin.H{"seats": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/admin/tables/%d", id), staff, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/admin/tables/%d", id), staff, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClearTableRules(t *testing.T) {
	s := newServer(t)
	staff := s.token("staff")
	id, otp := s.createTable(staff, "A1")

	w, _ := s.do(http.MethodPost, fmt.Sprintf("/shops/%d/tables/%d/join", shopID, id), "",
		gin.H{"session_id": "s1", "name": "Ana", "otp": otp})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// occupied belum bisa di-clear tanpa force
	w, _ = s.do(http.MethodPost, fmt.Sprintf("/admin/tables/%d/clear", id), staff, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, resp := s.do(http.MethodPost, fmt.Sprintf("/admin/tables/%d/clear?force=true", id), staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var table struct {
		Status          string        `json:"status"`
		ActiveCustomers []interface{} `json:"active_customers"`
	}
	decode(t, resp.Data, &table)
	assert.Equal(t, "empty", table.Status)
	assert.Empty(t, table.ActiveCustomers)
}

func TestRotateTableOTP(t *testing.T) {
	s := newServer(t)
	staff := s.token("staff")
	id, _ := s.createTable(staff, "A1")

	w, resp := s.do(http.MethodPost, fmt.Sprintf("/admin/tables/%d/otp/rotate", id), staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		OTP string `json:"otp"`
	}
	decode(t, resp.Data, &out)
	assert.Len(t, out.OTP, 4)

	w, resp = s.do(http.MethodPost, fmt.Sprintf("/shops/%d/tables/%d/join", shopID, id), "",
		gin.H{"name": "Ana", "otp": out.OTP})
	require.Equal(t, http.StatusOK, w.Code)
	var joined struct {
		Joined    bool   `json:"joined"`
		SessionID string `json:"session_id"`
	}
	decode(t, resp.Data, &joined)
	assert.True(t, joined.Joined)
	assert.NotEmpty(t, joined.SessionID)
}
