package httperr

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessErrorThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create employee: %w", ErrBusiness("employee_not_found"))

	assert.True(t, IsBusiness(err, "employee_not_found"))
	assert.False(t, IsBusiness(err, "item_not_found"))

	code, ok := BusinessCode(err)
	assert.True(t, ok)
	assert.Equal(t, "employee_not_found", code)

	_, ok = BusinessCode(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestPostgresClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_employees_shop_business_id"})
	excl := &pgconn.PgError{Code: "23P01"}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsExclusionConflict(unique))
	assert.Equal(t, "idx_employees_shop_business_id", ConstraintName(unique))

	assert.True(t, IsExclusionConflict(excl))
	assert.False(t, IsUniqueViolation(fmt.Errorf("other")))
}

func TestWriteEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Conflict(c, "employee_already_exists", "Funcionário já cadastrado.")

	assert.Equal(t, http.StatusConflict, w.Code)

	var body HTTPError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "employee_already_exists", body.Code)
}
