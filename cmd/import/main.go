package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bookdatabase/bookdb/pkg/config"
	"github.com/bookdatabase/bookdb/pkg/covers"
	"github.com/bookdatabase/bookdb/pkg/database"
	"github.com/bookdatabase/bookdb/pkg/importer"
	"github.com/bookdatabase/bookdb/pkg/migrations"
	"github.com/bookdatabase/bookdb/pkg/referencedata"
	"github.com/gofrs/flock"
	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
)

type options struct {
	File       string `short:"f" long:"file" default:"notion_data.json" description:"Path to the catalogue export"`
	Clear      bool   `long:"clear" description:"Delete existing books, authors, series, reads and covers first"`
	SkipCovers bool   `long:"skip-covers" description:"Don't download cover images"`
	Yes        bool   `short:"y" long:"yes" description:"Don't ask for confirmation before clearing"`
}

func main() {
	log := logger.New()
	ctx := log.WithContext(context.Background())

	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	if opts.Clear && !opts.Yes && !confirm("This will delete all existing books, authors, series and reads. Continue?") {
		fmt.Println("Aborted.")
		return
	}

	lock := flock.New(lockPath(cfg))
	locked, err := lock.TryLock()
	if err != nil {
		log.Err(err).Fatal("lock error")
	}
	if !locked {
		log.Fatal("another import is already running", logger.Data{"lock_file": lock.Path()})
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Err(err).Warn("failed to release lock")
		}
	}()

	storage, err := covers.NewLocalStorage(cfg.UploadDir, cfg.MaxUploadSizeBytes())
	if err != nil {
		log.Err(err).Fatal("upload directory error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	if _, err := migrations.BringUpToDate(ctx, db); err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if err := referencedata.Seed(ctx, db); err != nil {
		log.Err(err).Fatal("reference data error")
	}

	summary, err := importer.New(db, storage).ImportFile(ctx, opts.File, importer.Options{
		Clear:      opts.Clear,
		SkipCovers: opts.SkipCovers,
	})
	if err != nil {
		log.Err(err).Fatal("import error")
	}

	fmt.Println(renderSummary(summary, os.Stdout))
}

// lockPath keeps the lock file next to the database so concurrent imports
// into the same catalogue are refused.
func lockPath(cfg *config.Config) string {
	if cfg.DatabaseFilePath == ":memory:" {
		return os.TempDir() + "/bookdb-import.lock"
	}
	return cfg.DatabaseFilePath + ".import.lock"
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}
