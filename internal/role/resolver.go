package role

// Identity is the part of an authenticated user that carries role claims.
type Identity struct {
	UserID       string
	UserMetadata map[string]any
	AppMetadata  map[string]any
}

// ResolveUserRole resolves the role from token metadata first, then from the
// cache entry owned by the same user.
func ResolveUserRole(id Identity, cache *Cache) (string, bool) {
	if id.UserID == "" {
		return "", false
	}

	if r := metadataRole(id.UserMetadata); r != "" {
		return NormalizeRoleValue(r), true
	}
	if r := metadataRole(id.AppMetadata); r != "" {
		return NormalizeRoleValue(r), true
	}

	if cache != nil {
		if r, ok := cache.Get(id.UserID); ok {
			return NormalizeRoleValue(r), true
		}
	}
	return "", false
}

func metadataRole(md map[string]any) string {
	if md == nil {
		return ""
	}
	if r, ok := md["role"].(string); ok {
		return r
	}
	return ""
}
