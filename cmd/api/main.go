package main

import (
	"context"
	"net"
	"net/http"

	"github.com/bookdatabase/bookdb/pkg/config"
	"github.com/bookdatabase/bookdb/pkg/covers"
	"github.com/bookdatabase/bookdb/pkg/database"
	"github.com/bookdatabase/bookdb/pkg/migrations"
	"github.com/bookdatabase/bookdb/pkg/referencedata"
	"github.com/bookdatabase/bookdb/pkg/server"
	"github.com/bookdatabase/bookdb/pkg/version"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting bookdb", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	storage, err := covers.NewLocalStorage(cfg.UploadDir, cfg.MaxUploadSizeBytes())
	if err != nil {
		log.Err(err).Fatal("upload directory error")
	}
	log.Info("upload directory initialized", logger.Data{"path": storage.Dir()})

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	if err := referencedata.Seed(ctx, db); err != nil {
		log.Err(err).Fatal("reference data error")
	}

	srv, err := server.New(cfg, db, storage)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", srv.Addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}
		log.Info("server started", logger.Data{"addr": listener.Addr().String()})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
