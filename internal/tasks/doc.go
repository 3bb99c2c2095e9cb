// Package tasks is the concurrent acquisition pipeline: it expands references into work items,
// hands them to a fixed pool of workers and aggregates their progress.
//
// # Control Flow
//
//  1. [Resolver.ResolveAll] probes every reference sequentially on the calling goroutine
//     - a collection becomes one item per member with an ID, ordinals dense over those members
//     - a single track becomes one 1/1 item in its own folder
//     - a failed probe becomes one 1/1 item in [SinglesFolder]
//
//  2. The items are [TaskQueue.Put] before any worker starts, so the overall total is final
//     and an empty [TaskQueue.TryTake] means no more work.
//
//  3. [Pool.Run] starts N workers. Each one loops: take or exit, run the [Pipeline] under
//     [shared.Retry], advance the overall counter, [TaskQueue.MarkDone]. The pool returns
//     after [TaskQueue.Join].
//
// # Pipeline
//
// One attempt is acquire, transcode, enrich, finalize. Only acquire and transcode can fail
// an attempt; their errors are wrapped in [StageError]. Enrichment (cover art, lyrics,
// duration) and tag writing are best effort. After the last failed attempt the item is
// abandoned and logged once; the worker moves on.
//
// # Progress Reporting
//
// Workers report through the [ProgressSink] interface. [Aggregator] serializes every update
// so that [Aggregator.Snapshot] is always consistent; [NopSink] discards everything. Byte
// progress during acquisition sets the slot total once and never lowers completed.
//
// # Track Catalog
//
// The optional [TrackRecorder] persists produced tracks. Errors are logged at debug and never
// affect the run.
package tasks
