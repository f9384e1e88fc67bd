package publishers

import "time"

// Event kinds.
const (
	KindURLLink = "url_link"
	KindQRCode  = "qrcode"
)

// LinkEvent announces a generated mini-program entry point.
type LinkEvent struct {
	Kind        string    `json:"kind"`
	Path        string    `json:"path,omitempty"`
	Query       string    `json:"query,omitempty"`
	Scene       string    `json:"scene,omitempty"`
	Link        string    `json:"link,omitempty"`
	ImageFile   string    `json:"image_file,omitempty"`
	ImageSize   int       `json:"image_size,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewURLLinkEvent describes a url_link generated for path?query.
func NewURLLinkEvent(path, query, link string) LinkEvent {
	return LinkEvent{
		Kind:        KindURLLink,
		Path:        path,
		Query:       query,
		Link:        link,
		GeneratedAt: time.Now().UTC(),
	}
}

// NewQRCodeEvent describes a QR code image written to file.
func NewQRCodeEvent(page, scene, file string, size int) LinkEvent {
	return LinkEvent{
		Kind:        KindQRCode,
		Path:        page,
		Scene:       scene,
		ImageFile:   file,
		ImageSize:   size,
		GeneratedAt: time.Now().UTC(),
	}
}
