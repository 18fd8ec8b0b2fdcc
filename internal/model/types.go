package model

// ReleaseDescriptor is what the release index reports for the newest published
// version of the add-on. It is produced fresh on every resolution and never
// persisted.
type ReleaseDescriptor struct {
	// Version is the release tag. It is an opaque identifier: the updater
	// compares it byte-wise against the locally recorded value and performs
	// no semantic ordering.
	Version string

	// Notes is the free-text release body, possibly empty.
	Notes string

	// ArchiveURL locates the source archive for this release.
	ArchiveURL string

	// Assets are the supplemental files attached to the release (checksum
	// lists, signatures). The source archive itself is not listed here.
	Assets []Asset
}

// Asset is a single downloadable file attached to a release.
type Asset struct {
	Name        string
	DownloadURL string
	Size        int64
}

// FindAsset returns the asset with the given exact name, or nil.
func (r *ReleaseDescriptor) FindAsset(name string) *Asset {
	for i := range r.Assets {
		if r.Assets[i].Name == name {
			return &r.Assets[i]
		}
	}
	return nil
}
