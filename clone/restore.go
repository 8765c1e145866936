package clone

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
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

// maxDumpLineSize bounds a single dump line. The BSON document limit is
// 16 MiB; Extended JSON encoding can inflate it several times over.
const maxDumpLineSize = 64 * humanize.MiByte

// PathError indicates the restore input path is missing or not a
// directory.
type PathError struct {
	Path string
}

func (e *PathError) Error() string {
	return e.Path + " is not a directory"
}

// Restore imports every dump file in dir into the database using batched
// upserts. Collection names are recovered by stripping the dump file
// suffix; files whose derived name carries the reserved system prefix are
// skipped. A non-directory path fails before any collection-level write.
func (e *Engine) Restore(ctx context.Context, db, dir string) *Result {
	r := e.newRun()

	return r.finish(e.restore(ctx, r, db, dir))
}

func (e *Engine) restore(ctx context.Context, r *run, db, dir string) error {
	lg := log.New("restore")
	startedAt := time.Now()

	r.progress.Reportf("Restoring database %s from %s", db, dir)

	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return &PathError{Path: dir}
	}

	files, err := listDumpFiles(dir)
	if err != nil {
		return errors.Wrap(err, "list dump files")
	}

	for _, name := range files {
		collName := strings.TrimSuffix(name, config.DumpFileSuffix)

		if strings.HasPrefix(collName, topo.SystemCollectionPrefix) {
			lg.With(log.Coll(collName)).Debugf("System collection %q skipped", collName)

			continue
		}

		if !e.filter(collName) {
			lg.With(log.Coll(collName)).Debugf("Collection %q excluded", collName)

			continue
		}

		r.progress.Reportf("Importing collection: %s", collName)

		coll := e.target.Database(db).Collection(collName)

		count, err := e.restoreCollection(ctx, r, coll, filepath.Join(dir, name))
		if err != nil {
			return errors.Wrap(err, collName)
		}

		r.collections++

		lg.With(log.Coll(collName), log.Count(count)).
			Debugf("Collection %q imported: %d documents", collName, count)
	}

	r.progress.Report("Restore completed successfully.")

	elapsed := time.Since(startedAt)
	lg.With(log.Count(r.documents), log.Elapsed(elapsed)).
		Infof("Restore completed: %d documents in %s", r.documents, elapsed.Round(time.Second))

	return nil
}

// listDumpFiles returns the dump file names in dir, sorted.
func listDumpFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read dir")
	}

	var names []string

	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), config.DumpFileSuffix) {
			continue
		}

		names = append(names, ent.Name())
	}

	slices.Sort(names)

	return names, nil
}

// restoreCollection streams the dump file at path into coll. Blank lines
// are skipped; a malformed line aborts the run with a DecodeError scoped
// to that line. The file is closed before the next collection is
// processed.
func (e *Engine) restoreCollection(
	ctx context.Context,
	r *run,
	coll *mongo.Collection,
	path string,
) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open dump file")
	}
	defer file.Close() //nolint:errcheck

	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 64*humanize.KiByte), maxDumpLineSize)

	batch := newUpsertBatch(e.batchSize)

	var count int64

	lineNo := 0

	for sc.Scan() {
		lineNo++

		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		doc, err := ejsonl.UnmarshalLine(line, lineNo)
		if err != nil {
			return count, err
		}

		id, ok := docID(doc)
		if !ok {
			return count, &ejsonl.DecodeError{
				Line: lineNo,
				Err:  errors.New("document has no _id"),
			}
		}

		metrics.AddDocumentsRead(1)
		batch.Add(id, doc)

		if batch.Full() {
			count, err = e.flushBatch(ctx, r, batch, coll, count)
			if err != nil {
				return count, err
			}
		}
	}

	err = sc.Err()
	if err != nil {
		return count, errors.Wrap(err, "read dump file")
	}

	count, err = e.flushBatch(ctx, r, batch, coll, count)
	if err != nil {
		return count, err
	}

	r.progress.Reportf("  Finished %s with %d documents.", coll.Name(), count)

	return count, nil
}

func docID(doc bson.D) (any, bool) {
	for _, elem := range doc {
		if elem.Key == "_id" {
			return elem.Value, true
		}
	}

	return nil, false
}
