package domain

// ArtifactContentType is the media type of rendered charm images.
const ArtifactContentType = "image/png"

// Artifact is a rendered charm.
type Artifact struct {
	Text        string
	Image       []byte
	ContentType string
}

// ArtifactKey derives the artifact store key from a session handle. The key
// never depends on anything else, so repeated fulfillment overwrites one object.
func ArtifactKey(handle string) string {
	return handle + ".png"
}
