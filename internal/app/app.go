// Package app builds the long-lived services shared by the API server and
// the admin CLI.
package app

import (
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/billing"
	"github.com/BruksfildServices01/barber-manager/internal/bizid"
	"github.com/BruksfildServices01/barber-manager/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-manager/internal/db"
	"github.com/BruksfildServices01/barber-manager/internal/lock"
	"github.com/BruksfildServices01/barber-manager/internal/notify"
	"github.com/BruksfildServices01/barber-manager/internal/routes"
	"github.com/BruksfildServices01/barber-manager/internal/storage"
	"github.com/BruksfildServices01/barber-manager/internal/timezone"
)

type App struct {
	Config  *config.Config
	DB      *gorm.DB
	Redis   *redis.Client
	Locker  lock.Locker
	Catalog bizid.Catalog
	Audit   *audit.Dispatcher

	Store    storage.Store
	Notifier *notify.Client
	Pushes   *notify.Dispatcher
	Billing  billing.Provider
}

// New connects to Postgres (and Redis when configured), runs migrations
// and wires the optional integrations.
func New(cfg *config.Config) (*App, error) {
	timezone.SetDefault(cfg.Timezone)

	db, err := dbpkg.Open(cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := dbpkg.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	catalog, err := bizid.LoadCatalog(cfg.IDSchemesFile)
	if err != nil {
		return nil, fmt.Errorf("load id schemes: %w", err)
	}

	a := &App{
		Config:  cfg,
		DB:      db,
		Catalog: catalog,
	}

	// --------------------------------------------------
	// Locks: redis quando disponível, senão em memória
	// --------------------------------------------------
	rdb, err := dbpkg.NewRedis(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		a.Redis = rdb
		a.Locker = lock.NewRedisLocker(rdb)
	} else {
		log.Println("REDIS_URL not set, using in-process locks")
		a.Locker = lock.NewLocalLocker()
	}

	a.Audit = audit.NewDispatcher(audit.New(db))

	// --------------------------------------------------
	// Storage
	// --------------------------------------------------
	if !cfg.StorageEnabled() {
		log.Println("storage: no bucket or local dir configured; photo uploads and stored exports are off")
	}
	switch {
	case cfg.S3Bucket != "":
		s3, err := storage.NewS3Store(storage.S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKeyID:   cfg.S3AccessKeyID,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		a.Store = s3
	case cfg.LocalStorageDir != "":
		a.Store = &storage.LocalStore{Root: cfg.LocalStorageDir, BaseURL: cfg.LocalStorageURL}
	}

	// --------------------------------------------------
	// Push notifications
	// --------------------------------------------------
	a.Notifier = notify.NewClient(
		cfg.NotifyWebhookURL,
		cfg.NotifyWebhookSecret,
		time.Duration(cfg.NotifyTimeoutSec)*time.Second,
	)
	if a.Notifier.Enabled() {
		a.Pushes = notify.NewDispatcher(a.Notifier, a.auditDelivery)
	}

	// --------------------------------------------------
	// Billing
	// --------------------------------------------------
	if cfg.BillingEnabled() {
		mp, err := billing.NewMercadoPago(cfg.MercadoPagoToken, cfg.MercadoPagoBackURL)
		if err != nil {
			return nil, err
		}
		a.Billing = mp
	}

	return a, nil
}

func (a *App) auditDelivery(d notify.Delivery) {
	action, failure := "notification_sent", ""
	if d.Err != nil {
		action, failure = "notification_failed", d.Err.Error()
	}
	a.Audit.Dispatch(audit.Event{
		BarbershopID: d.Job.BarbershopID,
		Action:       action,
		Entity:       "subscriber",
		EntityID:     d.Job.Recipient,
		Metadata:     map[string]string{"title": d.Job.Message.Title, "error": failure},
	})
}

func (a *App) Routes() routes.Deps {
	return routes.Deps{
		DB:       a.DB,
		Config:   a.Config,
		Locker:   a.Locker,
		Catalog:  a.Catalog,
		Audit:    a.Audit,
		Store:    a.Store,
		Notifier: a.Notifier,
		Pushes:   a.Pushes,
		Billing:  a.Billing,
	}
}

// Close drains the background queues before releasing connections.
func (a *App) Close() {
	if a.Pushes != nil {
		a.Pushes.Close()
	}
	a.Audit.Close()

	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
