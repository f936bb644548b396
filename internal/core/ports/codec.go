package ports

// Codec persists one class of call results.
//
//go:generate mockgen -source=codec.go -destination=mocks/mock_codec.go -package=mocks
type Codec interface {
	// Name identifies the codec in logs and errors.
	Name() string

	// Extension is appended to the record base path, including the leading dot.
	Extension() string

	// CanHandle reports whether the codec can persist v.
	CanHandle(v any) bool

	// Save writes v to path. It returns an error wrapping fs.ErrExist if the file
	// already exists.
	Save(path string, v any) error

	// Load reads the value stored at path.
	Load(path string) (any, error)
}
