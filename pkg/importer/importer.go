package importer

import (
	"context"
	"database/sql"
	"io"
	"os"

	"github.com/bookdatabase/bookdb/pkg/authors"
	"github.com/bookdatabase/bookdb/pkg/books"
	"github.com/bookdatabase/bookdb/pkg/covers"
	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/bookdatabase/bookdb/pkg/reads"
	"github.com/bookdatabase/bookdb/pkg/referencedata"
	"github.com/bookdatabase/bookdb/pkg/series"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

// CoverStore is the cover storage an import writes to. Clearing the
// catalogue also empties it.
type CoverStore interface {
	covers.Storage
	RemoveAll(ctx context.Context) (int, error)
}

type Options struct {
	// Clear wipes books, authors, series, reads and covers before importing.
	// Formats and genders are kept.
	Clear      bool
	SkipCovers bool
}

type Importer struct {
	db         *bun.DB
	storage    CoverStore
	downloader *covers.Downloader

	authorService    *authors.Service
	bookService      *books.Service
	readService      *reads.Service
	referenceService *referencedata.Service
	seriesService    *series.Service
}

func New(db *bun.DB, storage CoverStore) *Importer {
	return &Importer{
		db:               db,
		storage:          storage,
		downloader:       covers.NewDownloader(storage),
		authorService:    authors.NewService(db),
		bookService:      books.NewService(db, storage),
		readService:      reads.NewService(db),
		referenceService: referencedata.NewService(db),
		seriesService:    series.NewService(db),
	}
}

// ImportFile reads an export from path and imports it.
func (im *Importer) ImportFile(ctx context.Context, path string, opts Options) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	return im.Import(ctx, f, opts)
}

func (im *Importer) Import(ctx context.Context, r io.Reader, opts Options) (*Summary, error) {
	log := logger.FromContext(ctx)

	export := &Export{}
	if err := json.NewDecoder(r).Decode(export); err != nil {
		return nil, errors.Wrap(err, "failed to decode export")
	}
	log.Info("importing catalogue", logger.Data{
		"exported_at": export.ExportedAt,
		"authors":     len(export.Authors),
		"series":      len(export.Series),
		"books":       len(export.Books),
	})

	if opts.Clear {
		if err := im.clear(ctx); err != nil {
			return nil, err
		}
	}

	run := &importRun{
		Importer: im,
		opts:     opts,
		log:      log,
		summary:  &Summary{},
		genders:  map[string]int{},
		formats:  map[string]int{},
		authors:  map[string]*models.Author{},
		series:   map[string]int{},
	}

	steps := []func(context.Context, *Export) error{
		run.importGenders,
		run.importFormats,
		run.importAuthors,
		run.linkAliases,
		run.importSeries,
		run.importBooks,
	}
	for _, step := range steps {
		if err := step(ctx, export); err != nil {
			return run.summary, err
		}
	}

	if err := im.countTotals(ctx, run.summary); err != nil {
		return run.summary, err
	}

	log.Info("import finished", logger.Data{
		"books_created": run.summary.Books.Created,
		"reads_created": run.summary.Reads.Created,
		"warnings":      run.summary.Warnings,
	})
	return run.summary, nil
}

// clear removes everything an import creates. Reference data stays.
func (im *Importer) clear(ctx context.Context) error {
	err := im.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		deletes := []interface{}{
			(*models.Read)(nil),
			(*models.BookAuthor)(nil),
			(*models.Book)(nil),
		}
		for _, model := range deletes {
			if _, err := tx.NewDelete().Model(model).Where("1 = 1").Exec(ctx); err != nil {
				return errors.WithStack(err)
			}
		}

		_, err := tx.NewUpdate().
			Model((*models.Author)(nil)).
			Set("alias_of_id = NULL").
			Where("alias_of_id IS NOT NULL").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		for _, model := range []interface{}{(*models.Author)(nil), (*models.Series)(nil)} {
			if _, err := tx.NewDelete().Model(model).Where("1 = 1").Exec(ctx); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to clear catalogue")
	}

	removed, err := im.storage.RemoveAll(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to clear covers")
	}
	logger.FromContext(ctx).Info("cleared catalogue", logger.Data{"covers_removed": removed})
	return nil
}

func (im *Importer) countTotals(ctx context.Context, summary *Summary) error {
	totals := []struct {
		model interface{}
		count *EntityCount
	}{
		{(*models.Gender)(nil), &summary.Genders},
		{(*models.Format)(nil), &summary.Formats},
		{(*models.Author)(nil), &summary.Authors},
		{(*models.Series)(nil), &summary.Series},
		{(*models.Book)(nil), &summary.Books},
		{(*models.Read)(nil), &summary.Reads},
	}
	for _, t := range totals {
		n, err := im.db.NewSelect().Model(t.model).Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		t.count.Total = n
	}
	return nil
}

// importRun holds the notion id mappings of a single import.
type importRun struct {
	*Importer
	opts    Options
	log     logger.Logger
	summary *Summary

	genders map[string]int
	formats map[string]int
	authors map[string]*models.Author
	series  map[string]int
}

func (run *importRun) warn(msg string, data logger.Data) {
	run.summary.Warnings++
	run.log.Warn(msg, data)
}

func (run *importRun) importGenders(ctx context.Context, export *Export) error {
	for _, g := range export.Genders {
		gender, created, err := run.referenceService.FindOrCreateGender(ctx, g.Name)
		if errcodes.HasCode(err, errcodes.CodeValidation) {
			run.warn("skipping gender without a name", logger.Data{"notion_id": g.NotionID})
			continue
		}
		if err != nil {
			return err
		}
		run.genders[g.NotionID] = gender.ID
		run.summary.Genders.record(created)
	}
	return nil
}

func (run *importRun) importFormats(ctx context.Context, export *Export) error {
	for _, f := range export.Formats {
		format, created, err := run.referenceService.FindOrCreateFormat(ctx, f.Name)
		if errcodes.HasCode(err, errcodes.CodeValidation) {
			run.warn("skipping format without a name", logger.Data{"notion_id": f.NotionID})
			continue
		}
		if err != nil {
			return err
		}
		run.formats[f.NotionID] = format.ID
		run.summary.Formats.record(created)
	}
	return nil
}

// importAuthors creates authors without their alias links. Aliases can point
// forward in the file, so they are linked in a second pass.
func (run *importRun) importAuthors(ctx context.Context, export *Export) error {
	for _, a := range export.Authors {
		if !run.opts.Clear {
			name := a.Name
			existing, err := run.authorService.RetrieveAuthor(ctx, authors.RetrieveAuthorOptions{Name: &name})
			if err == nil {
				run.authors[a.NotionID] = existing
				run.summary.Authors.Skipped++
				continue
			}
			if !errcodes.HasCode(err, errcodes.CodeNotFound) {
				return err
			}
		}

		author := &models.Author{
			Name:          a.Name,
			Pronouns:      blank(a.Pronouns),
			GoodreadsURL:  blank(a.GoodreadsURL),
			AmazonURL:     blank(a.AmazonURL),
			StorygraphURL: blank(a.StorygraphURL),
			Website:       blank(a.Website),
		}
		if id, ok := run.genders[str(a.GenderNotionID)]; ok {
			author.GenderID = &id
		}

		err := run.authorService.CreateAuthor(ctx, author)
		if errcodes.HasCode(err, errcodes.CodeValidation) {
			run.warn("skipping invalid author", logger.Data{"notion_id": a.NotionID, "error": err.Error()})
			continue
		}
		if err != nil {
			return err
		}
		run.authors[a.NotionID] = author
		run.summary.Authors.Created++
	}
	return nil
}

func (run *importRun) linkAliases(ctx context.Context, export *Export) error {
	for _, a := range export.Authors {
		if a.AliasOfNotionID == nil || *a.AliasOfNotionID == "" {
			continue
		}
		author, ok := run.authors[a.NotionID]
		target, targetOK := run.authors[*a.AliasOfNotionID]
		if !ok || !targetOK {
			run.warn("alias target missing", logger.Data{"notion_id": a.NotionID, "alias_of": *a.AliasOfNotionID})
			continue
		}
		if author.AliasOfID != nil && *author.AliasOfID == target.ID {
			continue
		}

		previous := author.AliasOfID
		author.AliasOfID = &target.ID
		err := run.authorService.UpdateAuthor(ctx, author, authors.UpdateAuthorOptions{Columns: []string{"alias_of_id"}})
		if errcodes.HasCode(err, errcodes.CodeCycle) || errcodes.HasCode(err, errcodes.CodeNotFound) {
			author.AliasOfID = previous
			run.warn("skipping alias", logger.Data{"author": author.Name, "alias_of": target.Name, "error": err.Error()})
			continue
		}
		if err != nil {
			return err
		}
		run.summary.Aliases++
	}
	return nil
}

func (run *importRun) importSeries(ctx context.Context, export *Export) error {
	for _, s := range export.Series {
		if !run.opts.Clear {
			name := s.Name
			existing, err := run.seriesService.RetrieveSeries(ctx, series.RetrieveSeriesOptions{Name: &name})
			if err == nil {
				run.series[s.NotionID] = existing.ID
				run.summary.Series.Skipped++
				continue
			}
			if !errcodes.HasCode(err, errcodes.CodeNotFound) {
				return err
			}
		}

		sr := &models.Series{
			Name:           s.Name,
			NumberInSeries: toInt(s.NumberInSeries),
			GoodreadsURL:   blank(s.GoodreadsURL),
			AmazonURL:      blank(s.AmazonURL),
			StorygraphURL:  blank(s.StorygraphURL),
		}
		err := run.seriesService.CreateSeries(ctx, sr)
		if errcodes.HasCode(err, errcodes.CodeValidation) {
			run.warn("skipping invalid series", logger.Data{"notion_id": s.NotionID, "error": err.Error()})
			continue
		}
		if err != nil {
			return err
		}
		run.series[s.NotionID] = sr.ID
		run.summary.Series.Created++
	}
	return nil
}

func (run *importRun) importBooks(ctx context.Context, export *Export) error {
	formats, err := run.referenceService.ListFormats(ctx)
	if err != nil {
		return err
	}
	if len(formats) == 0 {
		return errors.New("no formats available, seed reference data first")
	}
	fallbackFormatID := formats[0].ID

	for i := range export.Books {
		if err := run.importBook(ctx, &export.Books[i], fallbackFormatID); err != nil {
			return err
		}
	}
	return nil
}

func (run *importRun) importBook(ctx context.Context, b *ExportBook, fallbackFormatID int) error {
	data := logger.Data{"notion_id": b.NotionID, "title": b.Title}

	if !run.opts.Clear {
		title := b.Title
		_, err := run.bookService.RetrieveBook(ctx, books.RetrieveBookOptions{Title: &title})
		if err == nil {
			run.summary.Books.Skipped++
			return nil
		}
		if !errcodes.HasCode(err, errcodes.CodeNotFound) {
			return err
		}
	}

	book := &models.Book{
		Title:        b.Title,
		Subtitle:     blank(b.Subtitle),
		Description:  blank(b.Description),
		PageCount:    toInt(b.PageCount),
		SeriesNumber: b.SeriesNumber,
		FormatID:     fallbackFormatID,
		Cost:         b.Cost,
		Paid:         b.Paid,
		Discounts:    b.Discounts,
		IsBundle:     b.IsBookBundle,
		BundledBooks: blank(b.BundledBooks),
		Rating:       b.Rating,
		Comment:      blank(b.Comment),
	}
	if id, ok := run.series[str(b.SeriesNotionID)]; ok {
		book.SeriesID = &id
	}
	if id, ok := run.formats[str(b.FormatNotionID)]; ok {
		book.FormatID = id
	}
	if book.Rating != nil && !models.ValidRating(*book.Rating) {
		run.warn("dropping invalid rating", logger.Data{"title": b.Title, "rating": *book.Rating})
		book.Rating = nil
	}

	dateAdded, ok := parseExportDate(b.DateAdded)
	if !ok {
		run.warn("ignoring unparseable date_added", data)
	}
	if dateAdded != nil {
		book.DateAdded = *dateAdded
	}
	if book.DatePurchased, ok = parseExportDate(b.DatePurchased); !ok {
		run.warn("ignoring unparseable date_purchased", data)
	}

	authorIDs := make([]int, 0, len(b.AuthorNotionIDs))
	for _, notionID := range b.AuthorNotionIDs {
		if author, ok := run.authors[notionID]; ok {
			authorIDs = append(authorIDs, author.ID)
		}
	}

	err := run.bookService.CreateBook(ctx, book, authorIDs)
	if errcodes.HasCode(err, errcodes.CodeValidation) {
		run.warn("skipping invalid book", logger.Data{"notion_id": b.NotionID, "title": b.Title, "error": err.Error()})
		return nil
	}
	if err != nil {
		return err
	}
	run.summary.Books.Created++

	if err := run.importReads(ctx, book, b); err != nil {
		return err
	}

	if !run.opts.SkipCovers && blank(b.CoverURL) != nil {
		run.importCover(ctx, book, *blank(b.CoverURL))
	}
	return nil
}

// importReads records read_count-1 earlier completed reads without dates,
// followed by the current read when the export has a status for it.
func (run *importRun) importReads(ctx context.Context, book *models.Book, b *ExportBook) error {
	readCount := 0
	if b.ReadCount != nil {
		readCount = int(*b.ReadCount)
	}
	for i := 1; i < readCount; i++ {
		prior := &models.Read{BookID: book.ID, Status: models.ReadStatusCompleted}
		if err := run.readService.RecordRead(ctx, prior); err != nil {
			return err
		}
		run.summary.Reads.Created++
	}

	status := str(blank(b.ReadStatus))
	if status == "" {
		return nil
	}
	if !models.IsValidReadStatus(status) {
		run.warn("skipping read with unknown status", logger.Data{"title": b.Title, "status": status})
		return nil
	}

	start, _ := parseExportDate(b.StartDate)
	finish, _ := parseExportDate(b.FinishDate)
	current := &models.Read{BookID: book.ID, StartDate: start, FinishDate: finish, Status: status}
	err := run.readService.RecordRead(ctx, current)
	if errcodes.HasCode(err, errcodes.CodeValidation) || errcodes.HasCode(err, errcodes.CodeConflict) {
		run.warn("skipping invalid read", logger.Data{"title": b.Title, "error": err.Error()})
		return nil
	}
	if err != nil {
		return err
	}
	run.summary.Reads.Created++
	return nil
}

// importCover never fails the import. A missing cover is only worth a
// warning.
func (run *importRun) importCover(ctx context.Context, book *models.Book, url string) {
	filename, err := run.downloader.Download(ctx, book.ID, url)
	if err != nil {
		run.summary.CoverFailures++
		run.warn("failed to download cover", logger.Data{"title": book.Title, "url": url, "error": err.Error()})
		return
	}

	book.CoverImagePath = &filename
	err = run.bookService.UpdateBook(ctx, book, books.UpdateBookOptions{Columns: []string{"cover_image_path"}})
	if err != nil {
		run.summary.CoverFailures++
		run.warn("failed to save cover", logger.Data{"title": book.Title, "error": err.Error()})
		if derr := run.storage.DeleteCoverImage(ctx, filename); derr != nil {
			run.log.Err(derr).Warn("failed to remove unused cover", logger.Data{"filename": filename})
		}
		return
	}
	run.summary.Covers++
}
