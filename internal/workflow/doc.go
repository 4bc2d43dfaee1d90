// Package workflow orchestrates one migration run: it pulls the range of
// origin changes past the destination's last migrated marker, applies the
// authoring policy and the transformation pipeline, and writes one or more
// destination changes according to the configured mode (squash, iterative, or
// change request).
package workflow
