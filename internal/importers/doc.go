// Package importers turns raw Kobo database rows into per-book highlight groups.
//
// # Flow
//
//	Bookmark rows ─┐
//	               ├─ Aggregate ─→ []entities.BookWithHighlights (sorted by title)
//	content rows ──┘  (BookIndex)
//
// Aggregate normalizes highlight text (trim, collapse spaces and tabs, keep
// newlines), drops highlights that carry neither text nor annotation, groups by
// volume and resolves book metadata. When a volume has no title the last path
// segment of its identifier is used, minus any known e-book extension.
//
// # Example Usage
//
//	books, _ := reader.ListBooks(ctx, false)
//	highlights, _ := reader.ListHighlights(ctx, false)
//	grouped := importers.Aggregate(highlights, importers.NewBookIndex(books))
package importers
