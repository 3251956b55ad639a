package lvapi

// AdapterConfig is the serial form of a registry configuration.
// See lvapi.ipldsch for the field names used on the wire.
type AdapterConfig struct {
	Mem  *MemAdapterConfig
	File *FileAdapterConfig
	HTTP *HTTPAdapterConfig
	S3   *S3AdapterConfig
}

type MemAdapterConfig struct {
}

type FileAdapterConfig struct {
	Root string
}

type HTTPAdapterConfig struct {
	TimeoutSeconds *int64
}

type S3AdapterConfig struct {
	Endpoint *string
	Region   string
	Bucket   string
}
