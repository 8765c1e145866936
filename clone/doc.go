/*
Package clone implements the PDCM copy engine for MongoDB databases.

This package includes the following main components:

  - Engine: Runs the three copy operations: direct clone between two
    deployments, dump to a directory of Extended JSON line files, and
    restore from such a directory.

  - upsertBatch: Accumulates ReplaceOne-with-upsert write models keyed by
    the document _id and applies them as one unordered bulk write. Upserts
    make every operation idempotent: re-running after a partial failure
    reproduces the same final state without duplicate-key errors.

  - Progress: Delivers human-readable progress lines to a consumer in
    strict emission order and accumulates them for the operation Result.

Each operation streams one collection at a time with exactly one open
cursor or file, aborts on the first error, and returns a Result holding
the exit status, counters, and the accumulated progress log. The engine
keeps no state across calls.
*/
package clone
