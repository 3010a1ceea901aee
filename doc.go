// Package formz provides the validation and derived-state engine behind a
// catalog item form.
//
// The core type is Form, which owns one field per item attribute, keeps
// every field's error bag current as values change, and submits the item
// to a Catalog once everything checks out:
//
//	SetValue → Rules → Uniqueness (debounced) → Derived fields → Group rule → Submit
//
// # Fields and Error Bags
//
// Each field carries a value, an ErrorBag of active error kinds, and a
// Status: untouched, pending, valid or invalid. Rules own exactly one
// error kind each, so evaluating a rule sets or clears that kind without
// disturbing kinds produced by other rules or by the identifier lookup.
//
//	id            required, minLength(3), maxLength(10), idExists (async)
//	name          required, minLength(5), maxLength(100)
//	description   required, minLength(10), maxLength(200)
//	logo          required
//	date_release  required, date, minDate(today)
//	date_revision required, date (derived: release + 1 year)
//
// The form itself carries oneYearAfter when the revision date is not
// exactly one calendar year after the release date.
//
// # Identifier Uniqueness
//
// Identifier edits of at least three characters schedule a lookup against
// Catalog.Exists after a quiet period (default 500ms). A later edit
// restarts the period; a lookup superseded while in flight is cancelled
// and its result dropped. The field stays pending until the latest lookup
// lands.
//
// # Modes
//
// A form opened without an item id is in create mode. With an id it is in
// edit mode: the identifier field is disabled and the item is fetched from
// the catalog. Submit sends RawValues, which includes disabled fields, as
// a create or an update.
//
// # Backends
//
// Catalog implementations are available in pkg/:
//
//   - pkg/memory: In-process map
//   - pkg/rest: HTTP client and chi handler for the catalog REST API
//   - pkg/redis: Redis JSON values
//   - pkg/postgres: PostgreSQL via pgx
//   - pkg/sqlite: SQLite via sqlx with embedded migrations
//   - pkg/etcd: etcd transactions
//   - pkg/consul: Consul KV check-and-set
//   - pkg/nats: NATS JetStream KeyValue
//   - pkg/kubernetes: One ConfigMap per item
//   - pkg/zookeeper: ZooKeeper znodes
//   - pkg/firestore: Firestore documents
//
// # Drafts
//
// Bind applies partial items (JSON or YAML) from a Watcher as user edits.
// ChannelWatcher and FileWatcher live here, MergeWatchers fans several
// sources into one, and each shared-store backend offers a DraftWatcher
// so collaborators can fill the same form from a common key. Watchers
// send through a DraftFeed, which drops repeats and, given a Codec,
// payloads that are not drafts.
//
// # Example
//
//	form := formz.New(memory.New(), "",
//	    formz.WithRetry(3),
//	).OnSubmitted(func(ctx context.Context, item formz.Item) {
//	    log.Printf("created %s", item.ID)
//	})
//
//	if err := form.Open(ctx); err != nil {
//	    return err
//	}
//	defer form.Close()
//
//	_ = form.SetValue(ctx, formz.FieldID, "TEST001")
//	_ = form.SetValue(ctx, formz.FieldDateRelease, "2030-01-01")
//
//	if err := form.Submit(ctx); errors.Is(err, formz.ErrInvalid) {
//	    for _, f := range form.Fields() {
//	        log.Printf("%s: %s %v", f.Key, f.Status, f.Errors)
//	    }
//	}
package formz
