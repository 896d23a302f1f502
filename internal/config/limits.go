package config

const (
	// MaxNodeNameLength is the maximum length for folder and document
	// names. Limited to 255 to fit common storage layouts and provide
	// reasonable UX (names should be short and descriptive).
	MaxNodeNameLength = 255

	// MaxTagLength is the maximum length of a single tag. Tags are
	// free-form caller vocabulary; the engine only bounds their size.
	MaxTagLength = 100

	// MaxTagsPerNode bounds the tag set so listings stay cheap.
	MaxTagsPerNode = 50
)
