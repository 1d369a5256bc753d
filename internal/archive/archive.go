package archive

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"flyhigh/internal/components/telemetry"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("flyhigh/internal/archive")

var ErrDocumentNotFound = errors.New("document not found")

const keyPrefix = "doc/"

// Document is one fetched results page, kept so extraction can be run again
// without fetching.
type Document struct {
	// Date is the searched departure date as YYYY-MM-DD.
	Date       string
	ObservedAt time.Time
	Contents   string
	// Ingested is set once the observations of the document have been appended.
	Ingested bool
}

func documentKey(date string, observedAt time.Time) []byte {
	return fmt.Appendf(nil, "%s%s/%020d", keyPrefix, date, observedAt.Unix())
}

// Archive stores raw documents in badger keyed by (departure date, observed at),
// keys sort by date and then by fetch time.
type Archive struct {
	db  *badger.DB
	tel telemetry.API
}

// Open opens the archive in `dir`, an empty dir keeps the archive in memory.
func Open(dir string, tel telemetry.API) (Archive, error) {
	if tel == nil {
		tel = telemetry.SlogAPI{}
	}
	tel = telemetry.NewScopedAPI("archive", tel)

	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{tel: tel})

	db, err := badger.Open(opts)
	if err != nil {
		return Archive{}, fmt.Errorf("open archive: %w", err)
	}
	return Archive{db: db, tel: tel}, nil
}

func encode(doc Document) ([]byte, error) {
	var buff bytes.Buffer
	err := gob.NewEncoder(&buff).Encode(doc)
	if err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

func decode(serialized []byte) (Document, error) {
	var doc Document
	err := gob.NewDecoder(bytes.NewReader(serialized)).Decode(&doc)
	return doc, err
}

func (a Archive) Put(ctx context.Context, doc Document) error {
	_, span := tracer.Start(ctx, "Put")
	defer span.End()
	span.SetAttributes(
		attribute.String("date", doc.Date),
		attribute.Int("contentlength", len(doc.Contents)),
	)

	serialized, err := encode(doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize document")
		return err
	}
	err = a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(documentKey(doc.Date, doc.ObservedAt), serialized)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write document")
		return err
	}
	return nil
}

// Get returns ErrDocumentNotFound if nothing was archived for the date and time.
func (a Archive) Get(ctx context.Context, date string, observedAt time.Time) (Document, error) {
	_, span := tracer.Start(ctx, "Get")
	defer span.End()

	var doc Document
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(documentKey(date, observedAt))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrDocumentNotFound
		}
		if err != nil {
			return err
		}
		serialized, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		doc, err = decode(serialized)
		return err
	})
	if errors.Is(err, ErrDocumentNotFound) {
		span.AddEvent("document not found", trace.WithAttributes(
			attribute.String("date", date),
			attribute.Int64("observed_at", observedAt.Unix()),
		))
	} else if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return doc, err
}

// MarkIngested flags a document as appended to the store.
func (a Archive) MarkIngested(ctx context.Context, date string, observedAt time.Time) error {
	_, span := tracer.Start(ctx, "MarkIngested")
	defer span.End()

	key := documentKey(date, observedAt)
	err := a.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrDocumentNotFound
		}
		if err != nil {
			return err
		}
		serialized, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		doc, err := decode(serialized)
		if err != nil {
			return err
		}
		doc.Ingested = true
		serialized, err = encode(doc)
		if err != nil {
			return err
		}
		return txn.Set(key, serialized)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// List returns the documents whose dates are within [from, to] ordered by date and
// fetch time, zero bounds are open. Ingested documents are skipped unless
// `includeIngested` is set.
func (a Archive) List(ctx context.Context, from, to time.Time, includeIngested bool) ([]Document, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	start := []byte(keyPrefix)
	if !from.IsZero() {
		start = []byte(keyPrefix + from.Format(time.DateOnly))
	}
	var last string
	if !to.IsZero() {
		last = to.Format(time.DateOnly)
	}

	var docs []Document
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(start); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key := string(item.Key())
			date := key[len(keyPrefix):min(len(key), len(keyPrefix)+len(time.DateOnly))]
			if last != "" && date > last {
				break
			}

			serialized, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			doc, err := decode(serialized)
			if err != nil {
				a.tel.ReportBroken(report_decode, err, key)
				continue
			}
			if doc.Ingested && !includeIngested {
				continue
			}
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("documents", len(docs)))
	return docs, nil
}

func (a Archive) Close() error {
	return a.db.Close()
}
