package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/princinho/catalogbackend/auth"
	"github.com/princinho/catalogbackend/config"
	"github.com/princinho/catalogbackend/controllers"
	"github.com/princinho/catalogbackend/database"
	"github.com/princinho/catalogbackend/images"
	"github.com/princinho/catalogbackend/images/gcsblob"
	"github.com/princinho/catalogbackend/images/r2blob"
	"github.com/princinho/catalogbackend/models"
	"github.com/princinho/catalogbackend/services"
	"github.com/princinho/catalogbackend/store"
	"github.com/princinho/catalogbackend/store/memstore"
	"github.com/princinho/catalogbackend/store/mongostore"
	"github.com/princinho/catalogbackend/store/pgstore"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	products, categories, closeStore, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	blobs, closeBlobs, err := openBlobs(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeBlobs()

	policy, err := services.ParseDeletePolicy(cfg.CategoryDeletePolicy)
	if err != nil {
		log.Fatal(err)
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTTL)
	if err != nil {
		log.Fatal(err)
	}
	admin, err := auth.NewAccount(cfg.AdminEmail, cfg.AdminPassword, models.RoleAdmin)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("Admin account configured:", admin.Email)

	accessor := images.NewAccessor(products, blobs)
	handlers := controllers.Handlers{
		Catalog:    services.NewCatalogQueryService(products, categories, accessor, cfg.ReadQueryMaxLimit),
		Products:   services.NewProductService(products, categories, accessor),
		Categories: services.NewCategoryService(categories, products, accessor, policy),
		Images:     accessor,
		Auth:       auth.NewAuthenticator(issuer, admin),
	}

	r := gin.New()

	log.Printf("Allowed origins: %v", cfg.AllowedOrigins)
	allowedOrigins := map[string]bool{}
	for _, origin := range cfg.AllowedOrigins {
		allowedOrigins[origin] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	controllers.RegisterRoutes(r, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Listening on %s (store=%s, images=%s)", srv.Addr, cfg.StoreDriver, cfg.ImageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

func openStores(ctx context.Context, cfg *config.Config) (store.ProductStore, store.CategoryStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, nil, err
		}
		db := client.Database(cfg.DatabaseName)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Printf("mongo disconnect: %v", err)
			}
		}
		return mongostore.NewProductStore(db), mongostore.NewCategoryStore(db), closeFn, nil

	case config.DriverPostgres:
		db, err := database.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pgstore.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return pgstore.NewProductStore(db), pgstore.NewCategoryStore(db), closeFn, nil

	case config.DriverMemory:
		log.Println("Using in-memory store; data is lost on restart")
		return memstore.NewProductStore(), memstore.NewCategoryStore(), func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func openBlobs(ctx context.Context, cfg *config.Config) (images.Blobs, func(), error) {
	switch cfg.ImageBackend {
	case config.ImageEmbedded:
		return nil, func() {}, nil

	case config.ImageGCS:
		bucket, err := gcsblob.New(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := bucket.Close(); err != nil {
				log.Printf("gcs close: %v", err)
			}
		}
		return bucket, closeFn, nil

	case config.ImageR2:
		bucket, err := r2blob.New(ctx, r2blob.Options{
			Bucket:          cfg.R2Bucket,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			Endpoint:        cfg.R2Endpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		return bucket, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown IMAGE_BACKEND %q", cfg.ImageBackend)
	}
}
