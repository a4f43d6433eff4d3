package common

// Outbound header names and PostgREST preference values.
const (
	AuthorizationHeaderName = "Authorization"
	ContentTypeHeaderName   = "Content-Type"
	PreferHeaderName        = "Prefer"

	ContentTypeJSON = "application/json"

	PreferRepresentation  = "return=representation"
	PreferMinimal         = "return=minimal"
	PreferMergeDuplicates = "resolution=merge-duplicates,return=representation"
)
