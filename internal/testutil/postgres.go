//go:build integration

// Package testutil starts throwaway Postgres instances for integration tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	dbpkg "github.com/BruksfildServices01/barber-manager/internal/db"
	"github.com/BruksfildServices01/barber-manager/internal/models"
)

// NewDB starts a postgres container, migrates it and returns the gorm
// handle. The container is terminated when the test ends.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("barber_test"),
		postgres.WithUsername("barber"),
		postgres.WithPassword("barber"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := dbpkg.Open(dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := dbpkg.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}

// SeedShop creates a barbershop with one owner.
func SeedShop(t *testing.T, db *gorm.DB, slug string) (*models.Barbershop, *models.User) {
	t.Helper()

	shop := &models.Barbershop{Name: "Barbearia " + slug, Slug: slug, Timezone: "UTC"}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("seed barbershop: %v", err)
	}

	user := &models.User{
		BarbershopID: shop.ID,
		Name:         "Dono " + slug,
		Email:        slug + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleOwner,
	}
	if err := db.Omit("Barbershop").Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return shop, user
}
