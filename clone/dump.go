package clone

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/percona/percona-dbcopy-mongodb/config"
	"github.com/percona/percona-dbcopy-mongodb/ejsonl"
	"github.com/percona/percona-dbcopy-mongodb/errors"
	"github.com/percona/percona-dbcopy-mongodb/log"
	"github.com/percona/percona-dbcopy-mongodb/metrics"
	"github.com/percona/percona-dbcopy-mongodb/topo"
)

const dumpFileMode = 0o600

// Dump exports every non-system collection of the database to
// newline-delimited Extended JSON files in dir, one file per collection
// named "<collection>.json". The directory is created if absent. The
// result is a point-in-time snapshot with no isolation guarantee against
// concurrent source mutation.
func (e *Engine) Dump(ctx context.Context, db, dir string) *Result {
	r := e.newRun()

	return r.finish(e.dump(ctx, r, db, dir))
}

func (e *Engine) dump(ctx context.Context, r *run, db, dir string) error {
	lg := log.New("dump")
	startedAt := time.Now()

	r.progress.Reportf("Dumping database %s to %s", db, dir)

	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		return errors.Wrap(err, "create output directory")
	}

	collections, err := topo.ListCollectionNames(ctx, e.source, db)
	if err != nil {
		return errors.Wrap(err, "list collections")
	}

	for _, name := range collections {
		if !e.filter(name) {
			lg.With(log.Coll(name)).Debugf("Collection %q excluded", name)

			continue
		}

		r.progress.Reportf("Exporting collection: %s", name)

		path := filepath.Join(dir, name+config.DumpFileSuffix)

		count, size, err := e.dumpCollection(ctx, e.source.Database(db).Collection(name), path)
		if err != nil {
			return errors.Wrap(err, name)
		}

		r.collections++
		r.documents += count

		lg.With(log.Coll(name), log.Count(count)).
			Debugf("Collection %q exported: %d documents (%s)",
				name, count, humanize.Bytes(size))
	}

	r.progress.Report("Dump completed successfully.")

	elapsed := time.Since(startedAt)
	lg.With(log.Count(r.documents), log.Elapsed(elapsed)).
		Infof("Dump completed: %d documents in %s", r.documents, elapsed.Round(time.Second))

	return nil
}

// dumpCollection streams all documents of coll into the file at path,
// one encoded document per line. The file is truncated first and closed
// before the next collection is processed.
func (e *Engine) dumpCollection(
	ctx context.Context,
	coll *mongo.Collection,
	path string,
) (int64, uint64, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, dumpFileMode)
	if err != nil {
		return 0, 0, errors.Wrap(err, "create dump file")
	}
	defer file.Close() //nolint:errcheck

	cur, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return 0, 0, errors.Wrap(err, "find")
	}
	defer cur.Close(ctx)

	w := bufio.NewWriter(file)

	var count int64
	var size uint64

	for cur.Next(ctx) {
		line, err := ejsonl.Marshal(cur.Current)
		if err != nil {
			return count, size, errors.Wrap(err, "encode document")
		}

		_, err = w.Write(line)
		if err == nil {
			err = w.WriteByte('\n')
		}
		if err != nil {
			return count, size, errors.Wrap(err, "write dump file")
		}

		count++
		size += uint64(len(line) + 1)

		metrics.AddDocumentsRead(1)
		metrics.AddDumpBytesWritten(uint64(len(line) + 1))
	}

	err = cur.Err()
	if err != nil {
		return count, size, errors.Wrap(err, "cursor")
	}

	err = w.Flush()
	if err != nil {
		return count, size, errors.Wrap(err, "flush dump file")
	}

	err = file.Close()
	if err != nil {
		return count, size, errors.Wrap(err, "close dump file")
	}

	return count, size, nil
}
