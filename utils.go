package dishbook

import (
	"fmt"
	"strings"

	"github.com/foodielens/dishbook/internal/domain"
)

// ComposeAssetRef renders a reference as "<content hash>@<location>".
func ComposeAssetRef(ref domain.AssetRef) string {
	if ref.IsZero() {
		return ""
	}
	return ref.ContentHash + "@" + ref.Location
}

// ParseAssetRef is the inverse of ComposeAssetRef. The hash never contains '@',
// so everything after the first one is the location.
func ParseAssetRef(s string) (domain.AssetRef, error) {
	hash, location, ok := strings.Cut(s, "@")
	if !ok || hash == "" || location == "" {
		return domain.AssetRef{}, fmt.Errorf("invalid asset reference %q", s)
	}
	if !IsContentHash(hash) {
		return domain.AssetRef{}, fmt.Errorf("invalid content hash %q", hash)
	}
	return domain.AssetRef{ContentHash: hash, Location: location}, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// IsContentHash reports whether s looks like a value produced by domain.ContentHash.
func IsContentHash(s string) bool {
	prefix := domain.HashAlgorithm + ":"
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	digest := s[len(prefix):]
	return len(digest) == 64 && isHex(digest)
}
