package domain

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"
)

// HashAlgorithm prefixes every content hash so the algorithm can be migrated later.
const HashAlgorithm = "blake2b256"

// AssetRef is a stable, content-addressed pointer to an uploaded asset.
// Two assets with the same ContentHash always share a Location.
type AssetRef struct {
	ContentHash string `json:"contentHash"`
	Location    string `json:"location"`
}

// IsZero reports whether the reference is missing either half.
func (r AssetRef) IsZero() bool {
	return r.ContentHash == "" || r.Location == ""
}

// Asset is the index entry kept for every distinct stored object.
type Asset struct {
	ContentHash string    `json:"contentHash"`
	Location    string    `json:"location"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Ref returns the reference handed out for this asset.
func (a Asset) Ref() AssetRef {
	return AssetRef{ContentHash: a.ContentHash, Location: a.Location}
}

// ContentHash computes the content address of data.
func ContentHash(data []byte) string {
	sum := blake2b.Sum256(data)
	return HashAlgorithm + ":" + hex.EncodeToString(sum[:])
}
