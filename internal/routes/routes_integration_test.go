//go:build integration

package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/bizid"
	"github.com/BruksfildServices01/barber-manager/internal/config"
	"github.com/BruksfildServices01/barber-manager/internal/lock"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/notify"
	"github.com/BruksfildServices01/barber-manager/internal/testutil"
)

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func (c *client) json(w *httptest.ResponseRecorder, status int) map[string]any {
	c.t.Helper()
	require.Equal(c.t, status, w.Code, w.Body.String())

	var out map[string]any
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func setup(t *testing.T, role string) *client {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	shop, user := testutil.SeedShop(t, db, "flow-"+role)

	cfg := &config.Config{JWTSecret: "segredo"}
	dispatcher := audit.NewDispatcher(audit.New(db))
	t.Cleanup(dispatcher.Close)

	r := gin.New()
	RegisterRoutes(r, Deps{
		DB:       db,
		Config:   cfg,
		Locker:   lock.NewLocalLocker(),
		Catalog:  bizid.DefaultCatalog(),
		Audit:    dispatcher,
		Notifier: notify.NewClient("", "", time.Second),
	})

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":          user.ID,
		"barbershopId": shop.ID,
		"role":         role,
		"exp":          time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	return &client{t: t, router: r, token: token}
}

func TestEmployeeIDsAreSequential(t *testing.T) {
	c := setup(t, models.RoleOwner)
	year := time.Now().UTC().Year()

	next := c.json(c.do(http.MethodGet, "/api/me/employees/next-id", nil), 200)
	assert.Equal(t, fmt.Sprintf("MSB-%d-0001", year), next["employee_id"])

	for i := 1; i <= 3; i++ {
		emp := c.json(c.do(http.MethodPost, "/api/me/employees", map[string]any{
			"first_name": "Barbeiro",
			"last_name":  fmt.Sprint(i),
			"email":      fmt.Sprintf("b%d@example.com", i),
			"position":   "barbeiro",
		}), 201)
		assert.Equal(t, fmt.Sprintf("MSB-%d-%04d", year, i), emp["employee_id"])
	}

	// e-mail repetido no mesmo salão
	w := c.do(http.MethodPost, "/api/me/employees", map[string]any{
		"first_name": "Outro", "last_name": "Nome", "email": "b1@example.com",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// validação por campo
	w = c.do(http.MethodPost, "/api/me/employees", map[string]any{"last_name": "Sem Nome"})
	body := c.json(w, 400)
	assert.Equal(t, "validation_failed", body["error_code"])

	// excluir não reaproveita o maior código
	w = c.do(http.MethodDelete, fmt.Sprintf("/api/me/employees/MSB-%d-0002", year), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	next = c.json(c.do(http.MethodGet, "/api/me/employees/next-id", nil), 200)
	assert.Equal(t, fmt.Sprintf("MSB-%d-0004", year), next["employee_id"])

	w = c.do(http.MethodGet, "/api/me/employees/export", nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, 3, strings.Count(w.Body.String(), "\n"))
}

func TestItemStockFlow(t *testing.T) {
	c := setup(t, models.RoleStaff)

	item := c.json(c.do(http.MethodPost, "/api/me/items", map[string]any{
		"name":          "Pomada modeladora",
		"unit":          "un",
		"quantity":      5,
		"reorder_level": 2,
	}), 201)
	assert.Equal(t, "MSBI-0001", item["item_id"])

	res := c.json(c.do(http.MethodPost, "/api/me/items/MSBI-0001/stock", map[string]any{
		"delta": -3, "reason": "uso no salão",
	}), 200)
	assert.Equal(t, true, res["low_stock"])

	w := c.do(http.MethodPost, "/api/me/items/MSBI-0001/stock", map[string]any{"delta": -10})
	assert.Equal(t, "insufficient_stock", c.json(w, 409)["error_code"])

	// staff não acessa folha
	w = c.do(http.MethodGet, "/api/me/payroll", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPayrollFlow(t *testing.T) {
	c := setup(t, models.RoleManager)
	year := time.Now().UTC().Year()

	emp := c.json(c.do(http.MethodPost, "/api/me/employees", map[string]any{
		"first_name": "Rafa", "last_name": "Lima",
	}), 201)

	entry := c.json(c.do(http.MethodPost, "/api/me/payroll", map[string]any{
		"employee_id":  emp["employee_id"],
		"period_start": "2025-01-01",
		"period_end":   "2025-01-31",
		"basic_pay":    2000,
		"bonus":        100,
		"deductions":   300,
	}), 201)
	assert.Equal(t, fmt.Sprintf("PAY-%d-0001", year), entry["payroll_id"])
	assert.EqualValues(t, 1800, entry["net_pay"])

	path := fmt.Sprintf("/api/me/payroll/%s/pay", entry["payroll_id"])
	paid := c.json(c.do(http.MethodPost, path, nil), 200)
	assert.Equal(t, models.PayrollPaid, paid["status"])

	w := c.do(http.MethodPost, path, nil)
	assert.Equal(t, "already_paid", c.json(w, 409)["error_code"])

	w = c.do(http.MethodPost, "/api/me/payroll", map[string]any{
		"employee_id":  "MSB-1999-0001",
		"period_start": "2025-01-01",
		"period_end":   "2025-01-31",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAppointmentFlow(t *testing.T) {
	c := setup(t, models.RoleOwner)

	emp := c.json(c.do(http.MethodPost, "/api/me/employees", map[string]any{
		"first_name": "Rafa", "last_name": "Lima",
	}), 201)

	req := map[string]any{
		"customer_name":    "Bruno",
		"customer_phone":   "11988887777",
		"barber_id":        emp["employee_id"],
		"service":          "Corte",
		"date":             "2099-05-02",
		"time":             "10:00",
		"duration_minutes": 45,
	}
	ap := c.json(c.do(http.MethodPost, "/api/me/appointments", req), 201)
	assert.Equal(t, "pending", ap["status"])

	w := c.do(http.MethodPost, "/api/me/appointments", req)
	assert.Equal(t, "time_conflict", c.json(w, 409)["error_code"])

	id := ap["id"].(string)
	confirmed := c.json(c.do(http.MethodPatch, "/api/me/appointments/"+id+"/confirm", nil), 200)
	assert.Equal(t, "confirmed", confirmed["status"])

	day := c.json(c.do(http.MethodGet, "/api/me/appointments/day?date=2099-05-02", nil), 200)
	assert.EqualValues(t, 1, day["total"])

	cancelled := c.json(c.do(http.MethodPatch, "/api/me/appointments/"+id+"/cancel", nil), 200)
	assert.Equal(t, "cancelled", cancelled["status"])

	// horário liberado
	c.json(c.do(http.MethodPost, "/api/me/appointments", req), 201)
}

func TestSubscriberFlow(t *testing.T) {
	c := setup(t, models.RoleManager)

	ana := c.json(c.do(http.MethodPost, "/api/me/subscribers", map[string]any{
		"name":         "Ana",
		"email":        "Ana@Example.com",
		"phone":        "11988887777",
		"plan":         "Premium",
		"monthly_fee":  89.9,
		"device_token": "ExponentPushToken[ana]",
	}), 201)
	assert.Equal(t, "ana@example.com", ana["email"])
	assert.Equal(t, true, ana["active"])

	c.json(c.do(http.MethodPost, "/api/me/subscribers", map[string]any{
		"name": "Beto", "plan": "Básico",
	}), 201)

	w := c.do(http.MethodPost, "/api/me/subscribers", map[string]any{"name": "Outra", "email": "ana@example.com"})
	assert.Equal(t, "subscriber_already_exists", c.json(w, 409)["error_code"])

	w = c.do(http.MethodPost, "/api/me/subscribers", map[string]any{"email": "sem-nome"})
	body := c.json(w, 400)
	assert.Equal(t, "validation_failed", body["error_code"])

	list := c.json(c.do(http.MethodGet, "/api/me/subscribers?plan=Premium", nil), 200)
	assert.EqualValues(t, 1, list["total"])

	id := ana["id"].(string)
	patched := c.json(c.do(http.MethodPatch, "/api/me/subscribers/"+id, map[string]any{"active": false}), 200)
	assert.Equal(t, false, patched["active"])
	assert.Equal(t, "Premium", patched["plan"])

	list = c.json(c.do(http.MethodGet, "/api/me/subscribers?active=true", nil), 200)
	assert.EqualValues(t, 1, list["total"])

	w = c.do(http.MethodGet, "/api/me/subscribers/export", nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, 3, strings.Count(w.Body.String(), "\n"))

	// sem webhook nem Mercado Pago configurados
	w = c.do(http.MethodPost, "/api/me/subscribers/"+id+"/notify", map[string]any{"title": "a", "body": "b"})
	assert.Equal(t, "notifications_disabled", c.json(w, 503)["error_code"])
	w = c.do(http.MethodPost, "/api/me/subscribers/"+id+"/billing", nil)
	assert.Equal(t, "billing_disabled", c.json(w, 503)["error_code"])

	w = c.do(http.MethodDelete, "/api/me/subscribers/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = c.do(http.MethodGet, "/api/me/subscribers/"+id, nil)
	assert.Equal(t, "subscriber_not_found", c.json(w, 404)["error_code"])
}
