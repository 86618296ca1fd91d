// Package gamevault provides a reusable library for saving, forking, and
// publishing versioned generated games with pluggable metadata repositories
// and content store backends.
//
// It exposes a single Service interface that orchestrates the save path
// (validate, upload, append version), fork lineage creation, per-channel
// publication state, listing, and deletion. Implementations of repositories
// (e.g., memory, Postgres) and content stores (e.g., memory, S3) are provided
// under subpackages.
//
// Versioning Strategy
//
// A Game's version history is append-only: a Version is never mutated or
// deleted once written, and Game.CurrentVersion always equals the number of
// the most recently appended Version. Concurrent saves against the same game
// are serialized solely by the optimistic-concurrency check in
// Repository.AppendVersion; callers that observe a conflict re-read the game
// and retry the whole save.
package gamevault
