package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/CareFund/app/models"
	"github.com/ManuelReschke/CareFund/app/repository"
	"github.com/ManuelReschke/CareFund/internal/pkg/cache"
	"github.com/ManuelReschke/CareFund/internal/pkg/database"
	"github.com/ManuelReschke/CareFund/internal/pkg/env"
	"github.com/ManuelReschke/CareFund/internal/pkg/jobqueue"
	"github.com/ManuelReschke/CareFund/internal/pkg/payment"
	"github.com/ManuelReschke/CareFund/internal/pkg/router"
)

func main() {
	app := NewApplication()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		jobqueue.GetManager().Stop()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	repository.InitializeFactory(db)
	seedAdmin()

	module, err := payment.Setup(db, cache.GetClient())
	if err != nil {
		panic(err)
	}

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/carefund to project root
		"../../../", // Fallback
	}
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	// the webhook needs the untouched body, so it goes in before any middleware
	router.InstallWebhookRoutes(app)

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	installMetrics(app)

	// SWAGGER / OPENAPI
	if basePath != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: basePath + "public/docs/v1/openapi.yml",
			Path:     "v1",
		}))
	} else {
		log.Println("public/docs not found, API docs disabled")
	}

	// ROUTER
	router.InstallRouter(app)

	// receipt backfill only makes sense with a live processor
	manager := jobqueue.GetManager()
	if module.Gateway.Configured() {
		interval := time.Duration(env.GetEnvInt("RECEIPT_BACKFILL_INTERVAL_MINUTES", 60)) * time.Minute
		manager.Configure(module.Backfill, interval)
	}
	manager.Start()

	return app
}

// installMetrics mounts the fiber monitor behind basic auth. Without
// METRICS_PASSWORD the route is not registered at all.
func installMetrics(app *fiber.App) bool {
	password := env.GetEnv("METRICS_PASSWORD", "")
	if password == "" {
		log.Println("METRICS_PASSWORD not set, /metrics disabled")
		return false
	}
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "metrics"): password,
		},
	}), monitor.New())
	return true
}

// seedAdmin creates the first admin account from ADMIN_EMAIL / ADMIN_PASSWORD
// when no admin exists yet.
func seedAdmin() {
	email := strings.ToLower(strings.TrimSpace(env.GetEnv("ADMIN_EMAIL", "")))
	password := env.GetEnv("ADMIN_PASSWORD", "")
	if email == "" || password == "" {
		return
	}

	admins := repository.GetGlobalFactory().GetAdminRepository()
	n, err := admins.Count()
	if err != nil {
		log.Printf("Could not count admins: %v", err)
		return
	}
	if n > 0 {
		return
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		log.Printf("Could not hash admin password: %v", err)
		return
	}
	admin := &models.Admin{
		Name:     env.GetEnv("ADMIN_NAME", "Administrator"),
		Email:    email,
		Password: hash,
		Status:   models.STATUS_ACTIVE,
	}
	if err := admins.Create(admin); err != nil {
		log.Printf("Could not seed admin %s: %v", email, err)
		return
	}
	log.Printf("Seeded admin account %s", email)
}
