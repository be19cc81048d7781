//go:build integration

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/billing"
	"github.com/BruksfildServices01/barber-manager/internal/config"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/notify"
	"github.com/BruksfildServices01/barber-manager/internal/testutil"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

func call(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func subscriberRouter(h *SubscriberHandler, shopID, userID uint) *gin.Engine {
	r := gin.New()
	g := r.Group("/subscribers", withScope(shopID, userID))
	g.POST("", h.Create)
	g.PATCH("/:id", h.Patch)
	g.POST("/broadcast", h.Broadcast)
	g.POST("/:id/notify", h.Notify)
	g.GET("/:id/billing", h.SyncBilling)
	g.POST("/:id/billing", h.StartBilling)
	g.DELETE("/:id/billing", h.CancelBilling)
	return r
}

func seedSubscriber(t *testing.T, db *gorm.DB, s models.Subscriber) *models.Subscriber {
	t.Helper()
	require.NoError(t, db.Create(&s).Error)
	return &s
}

func actions(events []audit.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Action)
	}
	return out
}

// ======================================================
// PUSH
// ======================================================

func TestSubscriberNotifyAndBroadcast(t *testing.T) {
	db := testutil.NewDB(t)
	shop, user := testutil.SeedShop(t, db, "push")

	withDevice := seedSubscriber(t, db, models.Subscriber{
		BarbershopID: shop.ID, Name: "Ana", DeviceToken: "ExponentPushToken[ana]", Active: true,
	})
	noDevice := seedSubscriber(t, db, models.Subscriber{
		BarbershopID: shop.ID, Name: "Beto", Active: true,
	})
	inactive := seedSubscriber(t, db, models.Subscriber{
		BarbershopID: shop.ID, Name: "Caio", DeviceToken: "ExponentPushToken[caio]",
	})
	require.NoError(t, db.Model(inactive).Update("active", false).Error)

	sender := &fakeSender{env: &notify.Envelope{Success: true}}
	var deliveries []notify.Delivery
	pushes := notify.NewDispatcher(sender, func(d notify.Delivery) { deliveries = append(deliveries, d) })

	sink := &memSink{}
	auditor := audit.NewDispatcher(sink)
	defer auditor.Close()

	r := subscriberRouter(NewSubscriberHandler(db, nil, pushes, nil, auditor), shop.ID, user.ID)
	msg := `{"title":"Promoção","body":"Barba pela metade hoje"}`

	w := call(r, http.MethodPost, "/subscribers/"+withDevice.ID.String()+"/notify", msg)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w)["queued"])

	w = call(r, http.MethodPost, "/subscribers/"+noDevice.ID.String()+"/notify", msg)
	assert.Equal(t, "missing_device_token", decode(t, w)["error_code"])

	w = call(r, http.MethodPost, "/subscribers/"+withDevice.ID.String()+"/notify", `{"title":"","body":"x"}`)
	assert.Equal(t, "invalid_notification", decode(t, w)["error_code"])

	w = call(r, http.MethodPost, "/subscribers/00000000-0000-0000-0000-000000000000/notify", msg)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(r, http.MethodPost, "/subscribers/broadcast", `{"title":"Oi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// só quem está ativo e tem dispositivo
	w = call(r, http.MethodPost, "/subscribers/broadcast", msg)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	body := decode(t, w)
	assert.EqualValues(t, 1, body["queued"])
	assert.EqualValues(t, 0, body["dropped"])

	pushes.Close()

	require.Len(t, sender.got, 2)
	for _, m := range sender.got {
		assert.Equal(t, "ExponentPushToken[ana]", m.Token)
		assert.Equal(t, "Promoção", m.Title)
	}
	require.Len(t, deliveries, 2)
	assert.Equal(t, shop.ID, deliveries[0].Job.BarbershopID)
	assert.Equal(t, withDevice.ID.String(), deliveries[0].Job.Recipient)

	// depois de fechado, a fila recusa
	w = call(r, http.MethodPost, "/subscribers/"+withDevice.ID.String()+"/notify", msg)
	assert.Equal(t, "notification_queue_full", decode(t, w)["error_code"])
}

func TestSubscriberPushDisabled(t *testing.T) {
	db := testutil.NewDB(t)
	shop, user := testutil.SeedShop(t, db, "nopush")
	s := seedSubscriber(t, db, models.Subscriber{BarbershopID: shop.ID, Name: "Ana", DeviceToken: "tok", Active: true})

	auditor := audit.NewDispatcher(&memSink{})
	defer auditor.Close()
	r := subscriberRouter(NewSubscriberHandler(db, nil, nil, nil, auditor), shop.ID, user.ID)

	for _, path := range []string{"/subscribers/" + s.ID.String() + "/notify", "/subscribers/broadcast"} {
		w := call(r, http.MethodPost, path, `{"title":"a","body":"b"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Equal(t, "notifications_disabled", decode(t, w)["error_code"], path)
	}
}

// ======================================================
// BILLING
// ======================================================

type fakeProvider struct {
	inputs    []billing.SubscriptionInput
	cancelled []string
	status    string
	err       error
}

func (f *fakeProvider) Subscribe(_ context.Context, in billing.SubscriptionInput) (*billing.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &billing.Subscription{ID: "pre-123", Status: "pending", CheckoutURL: "https://mp.example/pre-123"}, nil
}

func (f *fakeProvider) Cancel(_ context.Context, id string) (*billing.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.cancelled = append(f.cancelled, id)
	return &billing.Subscription{ID: id, Status: "cancelled"}, nil
}

func (f *fakeProvider) Status(_ context.Context, id string) (*billing.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &billing.Subscription{ID: id, Status: f.status}, nil
}

func TestSubscriberBilling(t *testing.T) {
	db := testutil.NewDB(t)
	shop, user := testutil.SeedShop(t, db, "billing")

	s := seedSubscriber(t, db, models.Subscriber{
		BarbershopID: shop.ID, Name: "Ana", Email: "ana@example.com", Plan: "Premium", MonthlyFee: 89.9, Active: true,
	})
	noEmail := seedSubscriber(t, db, models.Subscriber{BarbershopID: shop.ID, Name: "Beto", MonthlyFee: 50, Active: true})
	noFee := seedSubscriber(t, db, models.Subscriber{BarbershopID: shop.ID, Name: "Caio", Email: "caio@example.com", Active: true})

	provider := &fakeProvider{status: "pending"}
	sink := &memSink{}
	auditor := audit.NewDispatcher(sink)

	r := subscriberRouter(NewSubscriberHandler(db, nil, nil, provider, auditor), shop.ID, user.ID)
	path := "/subscribers/" + s.ID.String() + "/billing"

	w := call(r, http.MethodPost, "/subscribers/"+noEmail.ID.String()+"/billing", "")
	assert.Equal(t, "missing_email", decode(t, w)["error_code"])

	w = call(r, http.MethodPost, "/subscribers/"+noFee.ID.String()+"/billing", "")
	assert.Equal(t, "invalid_monthly_fee", decode(t, w)["error_code"])

	w = call(r, http.MethodGet, path, "")
	assert.Equal(t, "no_billing", decode(t, w)["error_code"])

	w = call(r, http.MethodPost, path, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "https://mp.example/pre-123", decode(t, w)["checkout_url"])

	require.Len(t, provider.inputs, 1)
	in := provider.inputs[0]
	assert.Equal(t, s.ID.String(), in.ExternalReference)
	assert.Equal(t, "ana@example.com", in.PayerEmail)
	assert.Equal(t, "Premium - Ana", in.Reason)
	assert.Equal(t, 89.9, in.Amount)
	assert.Equal(t, "BRL", in.Currency)

	var stored models.Subscriber
	require.NoError(t, db.First(&stored, "id = ?", s.ID).Error)
	assert.Equal(t, "pre-123", stored.BillingID)
	assert.Equal(t, "pending", stored.BillingStatus)

	// status igual não gera evento
	w = call(r, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)

	provider.status = "authorized"
	w = call(r, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "authorized", decode(t, w)["status"])
	require.NoError(t, db.First(&stored, "id = ?", s.ID).Error)
	assert.Equal(t, "authorized", stored.BillingStatus)

	provider.err = errors.New("mercado pago: 500")
	w = call(r, http.MethodGet, path, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "billing_failed", decode(t, w)["error_code"])
	provider.err = nil

	w = call(r, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"pre-123"}, provider.cancelled)
	require.NoError(t, db.First(&stored, "id = ?", s.ID).Error)
	assert.Equal(t, "cancelled", stored.BillingStatus)

	auditor.Close()
	assert.Equal(t, []string{
		"subscriber_billing_started",
		"subscriber_billing_synced",
		"subscriber_billing_cancelled",
	}, actions(sink.events))
	assert.Equal(t, map[string]string{"from": "pending", "to": "authorized"}, sink.events[1].Metadata)
}

func TestSubscriberBillingDisabled(t *testing.T) {
	db := testutil.NewDB(t)
	shop, user := testutil.SeedShop(t, db, "nobilling")
	s := seedSubscriber(t, db, models.Subscriber{BarbershopID: shop.ID, Name: "Ana", Active: true})

	auditor := audit.NewDispatcher(&memSink{})
	defer auditor.Close()
	r := subscriberRouter(NewSubscriberHandler(db, nil, nil, nil, auditor), shop.ID, user.ID)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		w := call(r, method, "/subscribers/"+s.ID.String()+"/billing", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, method)
		assert.Equal(t, "billing_disabled", decode(t, w)["error_code"], method)
	}
}

// A failing duplicate-check must not be read as "e-mail is free".
func TestSubscriberEmailCheckFailure(t *testing.T) {
	db := testutil.NewDB(t)
	shop, user := testutil.SeedShop(t, db, "countfail")

	auditor := audit.NewDispatcher(&memSink{})
	defer auditor.Close()
	r := subscriberRouter(NewSubscriberHandler(db, nil, nil, nil, auditor), shop.ID, user.ID)

	err := db.Callback().Query().Before("gorm:query").Register("test:fail_subscriber_count", func(tx *gorm.DB) {
		if _, isCount := tx.Statement.Dest.(*int64); isCount && tx.Statement.Table == "subscribers" {
			_ = tx.AddError(errors.New("connection reset by peer"))
		}
	})
	require.NoError(t, err)

	w := call(r, http.MethodPost, "/subscribers", `{"name":"Ana","email":"ana@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed_to_create_subscriber", decode(t, w)["error_code"])

	var subs []models.Subscriber
	require.NoError(t, db.Find(&subs).Error)
	assert.Empty(t, subs)
}

// ======================================================
// AUTH
// ======================================================

// knownDomains resolves only the listed domains.
type knownDomains map[string]bool

func (k knownDomains) LookupMX(_ context.Context, name string) ([]*net.MX, error) {
	if k[name] {
		return []*net.MX{{Host: "mx." + name + ".", Pref: 10}}, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

func (k knownDomains) LookupHost(_ context.Context, host string) ([]string, error) {
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

func authRouter(db *gorm.DB) *gin.Engine {
	h := NewAuthHandler(db, &config.Config{JWTSecret: "segredo"})
	h.resolver = knownDomains{"barbearia.com": true}

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	return r
}

func registerBody(slug, email, tz string) string {
	return fmt.Sprintf(`{
		"barbershop_name": "Barbearia do Zé",
		"barbershop_slug": %q,
		"timezone": %q,
		"name": "Zé",
		"email": %q,
		"password": "segredo123"
	}`, slug, tz, email)
}

func TestRegisterAndLogin(t *testing.T) {
	db := testutil.NewDB(t)
	r := authRouter(db)

	w := call(r, http.MethodPost, "/auth/register", registerBody(" Barbearia-Do-Ze ", "Ze@Barbearia.com", ""))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)

	shopOut := body["barbershop"].(map[string]any)
	userOut := body["user"].(map[string]any)
	assert.Equal(t, "barbearia-do-ze", shopOut["slug"])
	assert.Equal(t, timezone.Default(), shopOut["timezone"])
	assert.Equal(t, "ze@barbearia.com", userOut["email"])
	assert.Equal(t, models.RoleOwner, userOut["role"])

	var user models.User
	require.NoError(t, db.Where("email = ?", "ze@barbearia.com").First(&user).Error)
	assert.EqualValues(t, shopOut["id"], user.BarbershopID)
	assert.NotEqual(t, "segredo123", user.PasswordHash)

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(body["token"].(string), claims, func(*jwt.Token) (any, error) {
		return []byte("segredo"), nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, user.ID, claims["sub"])
	assert.EqualValues(t, user.BarbershopID, claims["barbershopId"])
	assert.Equal(t, models.RoleOwner, claims["role"])

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name   string
			body   string
			status int
			code   string
		}{
			{"duplicate slug", registerBody("barbearia-do-ze", "outro@barbearia.com", ""), 409, "slug_already_exists"},
			{"duplicate email", registerBody("outra", "ZE@barbearia.com", ""), 409, "email_already_exists"},
			{"unknown timezone", registerBody("outra", "outro@barbearia.com", "Marte/Olympus"), 400, "invalid_timezone"},
			{"unresolvable domain", registerBody("outra", "outro@nao-existe.com", ""), 400, "invalid_email_domain"},
			{"short password", `{"barbershop_name":"x","barbershop_slug":"x","name":"x","email":"x@barbearia.com","password":"1"}`, 400, "invalid_request"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := call(r, http.MethodPost, "/auth/register", tt.body)
				assert.Equal(t, tt.status, w.Code)
				assert.Equal(t, tt.code, decode(t, w)["error_code"])
			})
		}

		var shops int64
		require.NoError(t, db.Model(&models.Barbershop{}).Where("slug = ?", "outra").Count(&shops).Error)
		assert.Zero(t, shops)
	})

	t.Run("login", func(t *testing.T) {
		w := call(r, http.MethodPost, "/auth/login", `{"email":"ZE@barbearia.com","password":"segredo123"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		out := decode(t, w)
		assert.NotEmpty(t, out["token"])
		assert.Equal(t, "barbearia-do-ze", out["barbershop"].(map[string]any)["slug"])

		w = call(r, http.MethodPost, "/auth/login", `{"email":"ze@barbearia.com","password":"errada"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_credentials", decode(t, w)["error_code"])

		w = call(r, http.MethodPost, "/auth/login", `{"email":"ninguem@barbearia.com","password":"segredo123"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_credentials", decode(t, w)["error_code"])
	})

	// falha no usuário desfaz a barbearia
	t.Run("register is atomic", func(t *testing.T) {
		err := db.Callback().Create().Before("gorm:create").Register("test:fail_user_insert", func(tx *gorm.DB) {
			if tx.Statement.Table == "users" {
				_ = tx.AddError(errors.New("disk full"))
			}
		})
		require.NoError(t, err)
		defer db.Callback().Create().Remove("test:fail_user_insert")

		w := call(r, http.MethodPost, "/auth/register", registerBody("sem-dono", "dono@barbearia.com", "UTC"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "failed_to_register", decode(t, w)["error_code"])

		var shops int64
		require.NoError(t, db.Model(&models.Barbershop{}).Where("slug = ?", "sem-dono").Count(&shops).Error)
		assert.Zero(t, shops)
	})
}

// ======================================================
// AUDIT LOGS
// ======================================================

func TestAuditLogsFilters(t *testing.T) {
	db := testutil.NewDB(t)
	shop, user := testutil.SeedShop(t, db, "audit")
	other, _ := testutil.SeedShop(t, db, "audit-other")
	require.NoError(t, db.Model(shop).Update("timezone", "America/Sao_Paulo").Error)

	id := func(s string) *string { return &s }
	logs := []models.AuditLog{
		{BarbershopID: shop.ID, Action: "subscriber_created", Entity: "subscriber", EntityID: id("s1"),
			CreatedAt: time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)},
		// 23:00 do dia 9 em São Paulo
		{BarbershopID: shop.ID, Action: "subscriber_updated", Entity: "subscriber", EntityID: id("s1"),
			CreatedAt: time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)},
		{BarbershopID: shop.ID, Action: "employee_created", Entity: "employee", EntityID: id("MSB-2025-0001"),
			CreatedAt: time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)},
		{BarbershopID: other.ID, Action: "subscriber_created", Entity: "subscriber", EntityID: id("s9"),
			CreatedAt: time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, db.Create(&logs).Error)

	r := gin.New()
	r.GET("/audit-logs", withScope(shop.ID, user.ID), NewAuditLogsHandler(db).List)

	tests := []struct {
		query   string
		total   int
		actions []string
	}{
		{"", 3, []string{"employee_created", "subscriber_updated", "subscriber_created"}},
		{"?entity=subscriber", 2, []string{"subscriber_updated", "subscriber_created"}},
		{"?action=employee_created", 1, []string{"employee_created"}},
		{"?entity_id=s1", 2, []string{"subscriber_updated", "subscriber_created"}},
		{"?from=2025-03-10", 1, []string{"employee_created"}},
		{"?to=2025-03-09", 2, []string{"subscriber_updated", "subscriber_created"}},
		{"?from=2025-03-09&to=2025-03-09&entity=subscriber", 2, []string{"subscriber_updated", "subscriber_created"}},
		{"?from=ontem", 3, []string{"employee_created", "subscriber_updated", "subscriber_created"}},
		{"?limit=1&page=2", 3, []string{"subscriber_updated"}},
	}

	for _, tt := range tests {
		t.Run("query"+tt.query, func(t *testing.T) {
			w := call(r, http.MethodGet, "/audit-logs"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			body := decode(t, w)

			assert.EqualValues(t, tt.total, body["total"])
			var got []string
			for _, row := range body["data"].([]any) {
				got = append(got, row.(map[string]any)["action"].(string))
			}
			assert.Equal(t, tt.actions, got)
		})
	}
}
