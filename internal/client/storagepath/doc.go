// Package storagepath normalizes message attachment references into
// canonical object paths and builds the public and absolute URLs that
// point at them.
//
// A canonical path looks like
//
//	<context>/<contextID>/<senderID>/<unixMillis>-<file>
//
// where context is one of dm, group or glytch. Attachment references arrive
// in many shapes (public storage URLs, signed URLs, proxy URLs, URLs that
// carry the path in a query parameter, or the bare path itself) and every
// shape of the same object maps to the same canonical path. Everything in
// this package is pure: no I/O and no shared state.
package storagepath
