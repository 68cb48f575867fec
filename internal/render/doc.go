// Package render assembles escape-time fields.
//
// An Engine owns one worker pool for its lifetime. Each call to Render is a
// pass: the view is snapshotted at the precision its zoom depth needs, one
// row task per device row is submitted through a keyed distributor, and the
// rows are fetched back in ascending order and copied into the output
// field. The first failed row aborts the pass; no partial field is returned.
package render
