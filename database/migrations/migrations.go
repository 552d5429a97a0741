// Package migrations registers the schema of the delivery platform. Import it
// for side effects wherever migration.Runner is used.
package migrations
