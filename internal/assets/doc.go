// Package assets tracks uploaded and rendered media files. It resolves
// client-supplied video references to files on disk and keeps a best-effort
// SQLite ledger of uploads and renders for operator inspection.
package assets
