package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/libraryms/libraryms/pkg/binder"
	"github.com/libraryms/libraryms/pkg/books"
	"github.com/libraryms/libraryms/pkg/config"
	"github.com/libraryms/libraryms/pkg/database"
	"github.com/libraryms/libraryms/pkg/errcodes"
	"github.com/libraryms/libraryms/pkg/migrations"
	"github.com/libraryms/libraryms/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	var opts struct {
		File   string `short:"f" long:"file" description:"A JSON file holding an array of books" required:"true"`
		DryRun bool   `short:"n" long:"dry-run" description:"Validate the file without writing anything"`
	}

	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		fmt.Println("go run ./cmd/scripts/seed-books -f <path/to/books.json>")
		os.Exit(1)
	}

	payloads, err := readPayloads(opts.File)
	if err != nil {
		log.Err(err).Fatal("seed file error")
	}

	b, err := binder.New()
	if err != nil {
		log.Err(err).Fatal("binder error")
	}

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	if _, err := migrations.BringUpToDate(ctx, db); err != nil {
		log.Err(err).Fatal("migrations error")
	}

	svc := books.NewService(db)
	created, skipped := 0, 0
	for i := range payloads {
		p := &payloads[i]
		if err := b.Conform(ctx, p); err != nil {
			log.Err(err).Warn("invalid book", logger.Data{"index": i, "title": p.Title})
			skipped++
			continue
		}
		if opts.DryRun {
			continue
		}

		book := &models.Book{
			Title:       p.Title,
			Author:      p.Author,
			Genre:       p.Genre,
			ISBN:        p.ISBN,
			Description: p.Description,
			Copies:      *p.Copies,
		}
		err := svc.CreateBook(ctx, book)
		if errors.Is(err, errcodes.DuplicateKey("ISBN")) {
			log.Warn("book already exists", logger.Data{"isbn": p.ISBN})
			skipped++
			continue
		}
		if err != nil {
			log.Err(err).Fatal("create book error")
		}
		created++
	}

	log.Info("seeding finished", logger.Data{"created": created, "skipped": skipped, "dry_run": opts.DryRun})
}

func readPayloads(path string) ([]books.CreateBookPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var payloads []books.CreateBookPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	return payloads, nil
}
