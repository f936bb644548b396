package domain

import "go.trai.ch/zerr"

var (
	// ErrCacheMiss is returned when no codec produced a record during replay.
	ErrCacheMiss = zerr.New("cache miss")

	// ErrCodecFailure is returned when every capable codec failed to save or load a record.
	ErrCodecFailure = zerr.New("codec failure")

	// ErrUnknownType is returned when a cached type name cannot be resolved against the schema.
	ErrUnknownType = zerr.New("unknown schema type")

	// ErrUnknownField is returned when a cached field is not declared on its schema type.
	ErrUnknownField = zerr.New("unknown schema field")

	// ErrPayloadShape is returned when a raw payload does not match the shape its field type declares.
	ErrPayloadShape = zerr.New("payload does not match field type")

	// ErrSchemaMismatch is returned when a record was captured against a different schema.
	ErrSchemaMismatch = zerr.New("record was captured against a different schema")

	// ErrRegistryIO is returned when the fingerprint registry cannot be read or written.
	ErrRegistryIO = zerr.New("registry i/o failure")

	// ErrFingerprintFailed is returned when call arguments cannot be canonicalized.
	ErrFingerprintFailed = zerr.New("failed to fingerprint call")

	// ErrInvalidCallName is returned when a qualified call name cannot be mapped to a record path.
	ErrInvalidCallName = zerr.New("invalid qualified call name")

	// ErrInvalidMode is returned when an execution mode is not record, strict or lazy.
	ErrInvalidMode = zerr.New("invalid execution mode, expected 'record', 'strict' or 'lazy'")

	// ErrClearNotForced is returned when a cache clear was requested without force.
	ErrClearNotForced = zerr.New("refusing to clear the cache without force")

	// ErrStoreCreateFailed is returned when a record directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create record directory")

	// ErrStoreClearFailed is returned when the record tree cannot be removed.
	ErrStoreClearFailed = zerr.New("failed to clear record tree")

	// ErrUnsafeClear is returned when the record tree root is a filesystem root or
	// contains the working directory or the project.
	ErrUnsafeClear = zerr.New("refusing to clear a directory that holds the project or the working directory")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidLogLevel is returned when the configured log level is unknown.
	ErrInvalidLogLevel = zerr.New("invalid log level, expected 'debug', 'info', 'warn' or 'error'")

	// ErrSchemaReadFailed is returned when the schema catalogue cannot be read.
	ErrSchemaReadFailed = zerr.New("failed to read schema file")

	// ErrSchemaParseFailed is returned when the schema catalogue cannot be parsed.
	ErrSchemaParseFailed = zerr.New("failed to parse schema file")

	// ErrInvalidSchema is returned when the schema catalogue references undeclared types.
	ErrInvalidSchema = zerr.New("invalid schema")
	// ErrInvalidKwarg is returned when a keyword argument is not of the form key=value.
	ErrInvalidKwarg = zerr.New("invalid keyword argument, expected key=value")
	// ErrVerifyFailed is returned when one or more records cannot be read back.
	ErrVerifyFailed = zerr.New("one or more records failed verification")
)

type codecFailure struct {
	cause error
}

func (e *codecFailure) Error() string {
	return ErrCodecFailure.Error() + ": " + e.cause.Error()
}

func (e *codecFailure) Unwrap() []error {
	return []error{ErrCodecFailure, e.cause}
}

// CodecFailure marks cause as a codec failure. The result matches both
// ErrCodecFailure and every error in cause's chain.
func CodecFailure(cause error) error {
	if cause == nil {
		return nil
	}
	return &codecFailure{cause: cause}
}
