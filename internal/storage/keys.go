package storage

// DefaultKeyPrefix namespaces keys the way the mobile client did.
const DefaultKeyPrefix = "@property_app:"

// Keys names the store keys of the four persisted documents.
type Keys struct {
	Users       string
	CurrentUser string
	Properties  string
	Visits      string
}

// NewKeys returns the document keys under prefix.
func NewKeys(prefix string) Keys {
	return Keys{
		Users:       prefix + "users",
		CurrentUser: prefix + "current_user",
		Properties:  prefix + "properties",
		Visits:      prefix + "visits",
	}
}

// All returns every key, for bulk removal.
func (k Keys) All() []string {
	return []string{k.Users, k.CurrentUser, k.Properties, k.Visits}
}
