package app

import (
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/biblio-app/biblio-api/api"
	"github.com/biblio-app/biblio-api/config"
	"github.com/biblio-app/biblio-api/database"
	"github.com/biblio-app/biblio-api/router"
	"github.com/biblio-app/biblio-api/services/cron"
)

// SetupAndRunServer loads config, connects the stores, starts cron and
// serves the API until the listener exits.
func SetupAndRunServer() error {
	if err := config.LoadENV(); err != nil {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Println("Check whether Postgres is running")
		return err
	}

	if err := store.Init(); err != nil {
		log.Println("Failed to run database migrations")
		return err
	}

	// Raw SQL store for the statistics endpoint. Optional: the rest of
	// the API runs fine without it.
	statsStore, err := database.StartPostgres()
	if err != nil {
		log.Printf("Warning: stats store unavailable: %v", err)
		statsStore = nil
	}

	var cronManager *cron.CronManager
	if os.Getenv("CRON_ENABLED") != "false" {
		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			log.Println("Warning: failed to get database connection for cron jobs")
		} else {
			cronManager = cron.NewCronManager(db)
			if err := cronManager.Start(); err != nil {
				log.Printf("Warning: failed to start cron jobs: %v", err)
			}
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		if statsStore != nil {
			statsStore.Close()
		}
		store.Close()
	}()

	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT))

	router.SetupRoutes(server.GetEngine(), store, statsStore, env)

	return server.Run()
}
