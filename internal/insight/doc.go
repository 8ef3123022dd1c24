// Package insight defines the core types shared across the acquisition and
// analysis subsystems: normalized snapshots, per-section results, and the
// error taxonomy that drives retry classification.
package insight
