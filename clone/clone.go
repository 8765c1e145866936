package clone

import (
	"bytes"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/percona/percona-dbcopy-mongodb/config"
	"github.com/percona/percona-dbcopy-mongodb/errors"
	"github.com/percona/percona-dbcopy-mongodb/log"
	"github.com/percona/percona-dbcopy-mongodb/metrics"
	"github.com/percona/percona-dbcopy-mongodb/sel"
	"github.com/percona/percona-dbcopy-mongodb/topo"
)

// Options configures the Engine.
type Options struct {
	// BatchSize is the number of pending upserts that triggers a flush.
	// Default: 1000 (config.DefaultBatchSize)
	BatchSize int
	// Filter selects which collections are copied. System collections are
	// excluded before the filter applies. Default: allow all.
	Filter sel.Filter
	// OnProgress receives each progress line as it is emitted, in order.
	// Optional.
	OnProgress func(line string)
}

// Engine runs the copy operations. It holds no state across calls: every
// operation returns a fresh Result, so an Engine may be reused for
// repeated invocations.
type Engine struct {
	source *mongo.Client // Source MongoDB client (clone, dump)
	target *mongo.Client // Target MongoDB client (clone, restore)

	batchSize  int
	filter     sel.Filter
	onProgress func(line string)
}

// New creates an Engine. Operations that do not touch one of the sides
// accept a nil client for it: dump needs only source, restore only target.
func New(source, target *mongo.Client, opts *Options) *Engine {
	if opts == nil {
		opts = &Options{}
	}

	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = config.DefaultBatchSize
	}

	filter := opts.Filter
	if filter == nil {
		filter = sel.AllowAll
	}

	return &Engine{
		source:     source,
		target:     target,
		batchSize:  batchSize,
		filter:     filter,
		onProgress: opts.OnProgress,
	}
}

// Result is the outcome of a single operation run.
type Result struct {
	// Status is 0 on success, 1 on failure.
	Status int
	// Collections is the number of collections processed.
	Collections int
	// Documents is the number of documents transferred.
	Documents int64
	// Log holds the progress lines in emission order, including the final
	// "ERROR: ..." line on failure.
	Log []string
	// Err is the first error encountered, nil on success.
	Err error
}

// run carries the per-invocation mutable state: progress sink and
// counters. Nothing here outlives the operation.
type run struct {
	progress *Progress

	collections int
	documents   int64
}

func (e *Engine) newRun() *run {
	return &run{progress: newProgress(e.onProgress)}
}

// finish converts the first error into the logged "ERROR: <details>" line
// and a failure status. Collections already written stay in the
// destination; re-running is safe because every write is an upsert.
func (r *run) finish(err error) *Result {
	if err != nil {
		r.progress.Reportf("ERROR: %s", err.Error())
	}

	res := &Result{
		Collections: r.collections,
		Documents:   r.documents,
		Err:         err,
		Log:         r.progress.Close(),
	}

	if err != nil {
		res.Status = 1
	}

	return res
}

// DirectClone copies every non-system collection of the source database
// into the same-named collection of the target database using batched
// upserts.
func (e *Engine) DirectClone(ctx context.Context, srcDB, dstDB string) *Result {
	r := e.newRun()

	return r.finish(e.directClone(ctx, r, srcDB, dstDB))
}

func (e *Engine) directClone(ctx context.Context, r *run, srcDB, dstDB string) error {
	lg := log.New("clone")
	startedAt := time.Now()

	r.progress.Reportf("Starting direct clone from %s to %s", srcDB, dstDB)

	collections, err := topo.ListCollectionNames(ctx, e.source, srcDB)
	if err != nil {
		return errors.Wrap(err, "list collections")
	}

	src := e.source.Database(srcDB)
	dst := e.target.Database(dstDB)

	for _, name := range collections {
		if !e.filter(name) {
			lg.With(log.Coll(name)).Debugf("Collection %q excluded", name)

			continue
		}

		r.progress.Reportf("Cloning collection: %s", name)

		count, err := e.cloneCollection(ctx, r, src.Collection(name), dst.Collection(name))
		if err != nil {
			return errors.Wrap(err, name)
		}

		r.collections++

		lg.With(log.Coll(name), log.Count(count)).
			Debugf("Collection %q cloned: %d documents", name, count)
	}

	r.progress.Report("Direct clone completed successfully.")

	elapsed := time.Since(startedAt)
	lg.With(log.Count(r.documents), log.Elapsed(elapsed)).
		Infof("Direct clone completed: %d documents in %s",
			r.documents, elapsed.Round(time.Second))

	return nil
}

// cloneCollection streams all documents of src into dst. Exactly one
// cursor is open at a time; the batch is flushed whenever it reaches the
// threshold and once more after the cursor is exhausted.
func (e *Engine) cloneCollection(
	ctx context.Context,
	r *run,
	src, dst *mongo.Collection,
) (int64, error) {
	cur, err := src.Find(ctx, bson.D{})
	if err != nil {
		return 0, errors.Wrap(err, "find")
	}
	defer cur.Close(ctx)

	batch := newUpsertBatch(e.batchSize)

	var count int64

	for cur.Next(ctx) {
		// cur.Current is only valid until the next iteration
		doc := bson.Raw(bytes.Clone(cur.Current))

		metrics.AddDocumentsRead(1)

		err = batch.AddRaw(doc)
		if err != nil {
			return count, err
		}

		if batch.Full() {
			count, err = e.flushBatch(ctx, r, batch, dst, count)
			if err != nil {
				return count, err
			}
		}
	}

	err = cur.Err()
	if err != nil {
		return count, errors.Wrap(err, "cursor")
	}

	count, err = e.flushBatch(ctx, r, batch, dst, count)
	if err != nil {
		return count, err
	}

	r.progress.Reportf("  Finished %s with %d documents.", dst.Name(), count)

	return count, nil
}

// flushBatch flushes pending upserts and reports the cumulative count for
// the collection. Flushing an empty batch reports nothing.
func (e *Engine) flushBatch(
	ctx context.Context,
	r *run,
	batch *upsertBatch,
	dst *mongo.Collection,
	count int64,
) (int64, error) {
	if batch.Empty() {
		return count, nil
	}

	flushed, err := batch.Flush(ctx, dst)
	if err != nil {
		return count, err
	}

	count += int64(flushed)
	r.documents += int64(flushed)

	r.progress.Reportf("  Processed %d documents in %s (upserts)...", count, dst.Name())

	return count, nil
}
