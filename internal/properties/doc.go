// Package properties loads the bootstrap catalina.properties configuration.
//
// Candidate sources are tried in a fixed order: an explicit configuration
// URL, <base>/conf/catalina.properties, then the defaults bundled into the
// binary. The first source that opens is parsed as a Java-style properties
// file and every entry is published into a sysprops.Store. Load failures
// degrade to an empty configuration with a warning; only fatal errors
// (ErrAborted, ErrExhausted, cancellation) are returned.
//
// Init performs the load once per process; Property and PropertyOr read the
// result.
package properties
