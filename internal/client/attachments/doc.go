// Package attachments resolves message attachment references to a URL a
// client can display.
//
// Private objects are served through short-lived signed URLs. The Resolver
// caches each signed URL per canonical object path until shortly before it
// expires, and remembers signing failures briefly so a missing or deleted
// object is not re-requested on every render. Resolution never fails: when
// signing is impossible the best available public URL is returned instead.
package attachments
