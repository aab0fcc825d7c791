// Package records holds the account's synchronized content records and the sets that store
// them.
//
// A Record carries a content type and client-owned app data. Sets find records by content
// type, add new ones and mark them dirty for the next sync; a Syncer asks the surrounding
// system to run a sync cycle. MemorySet is volatile. SQLiteSet and RedisSet persist content
// as deterministic CBOR. ModalSet switches between a volatile and a durable set according to
// the current records storage mode.
//
// # Usage
//
//	durable, err := records.NewSQLiteSet(ctx, db)
//	if err != nil {
//	    return err
//	}
//	set := records.NewModalSet(store, records.NewMemorySet(), durable)
//
//	prefs, ok, err := set.FindByContentType(ctx, "SN|UserPreferences")
//
// # Error Handling
//
// MarkDirty on a record the set does not hold returns ErrNotFound. Storage failures wrap
// ErrStorageFailed.
package records
