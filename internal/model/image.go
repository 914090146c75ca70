package model

import "time"

// Kinds of resources an image can be attached to.
const (
	OwnerPlant = "plant"
	OwnerDiary = "diary"
)

// Image type tags.
const (
	ImageGeneral = "general"
	ImageProfile = "profile"
	ImageDiary   = "diary"
)

// ValidImageType reports whether t is a known image type tag.
func ValidImageType(t string) bool {
	switch t {
	case ImageGeneral, ImageProfile, ImageDiary:
		return true
	}
	return false
}

// Image mirrors `images`. RelPath is relative to the media root and URL is
// the public address the file is served from.
type Image struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	OwnerKind   string    `db:"owner_kind"`
	OwnerID     string    `db:"owner_id"`
	RelPath     string    `db:"rel_path"`
	URL         string    `db:"url"`
	Type        string    `db:"type"`
	Note        string    `db:"note"`
	ContentType string    `db:"content_type"`
	SizeBytes   int64     `db:"size_bytes"`
	UploadedAt  time.Time `db:"uploaded_at"`
}
