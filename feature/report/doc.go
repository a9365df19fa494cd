// Package report turns a cached roster into the battalion summary and the
// export document, and writes both to a local directory or an object storage
// bucket.
package report
