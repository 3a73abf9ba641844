// Package tax2go embeds the tax2go-search index manager in a Go program.
//
// Every user gets an isolated on-disk full-text index under the data
// directory. Documents are ranked with BM25 over title and body.
//
//	client, _ := tax2go.New(ctx, tax2go.WithDataDir("/var/lib/tax2go"))
//	defer client.Close()
//
//	idx, _ := client.User("6f1c0d4e-2b8a-4c3e-9d7f-1a2b3c4d5e6f")
//	id, _ := idx.Put(ctx, tax2go.Document{Title: "Rust guide", Body: "ownership"})
//	page, _ := idx.Search(ctx, tax2go.SearchQuery{Query: "rust", Limit: 10})
//
// A data directory can be opened by one process at a time.
package tax2go
