package config

const (
	// EnvLedgerviewConfig is the path of an adapter config file.
	// It wins over any config file found by searching from the working directory.
	EnvLedgerviewConfig = "LEDGERVIEW_CONFIG"
	// EnvLedgerviewFileRoot is the directory file:// uris are resolved against.
	// Defaults to the working directory.
	EnvLedgerviewFileRoot = "LEDGERVIEW_FILE_ROOT"
	// EnvLedgerviewS3Endpoint overrides the S3 endpoint, for S3-compatible stores.
	EnvLedgerviewS3Endpoint = "LEDGERVIEW_S3_ENDPOINT"
	// EnvLedgerviewS3Region and EnvLedgerviewS3Bucket enable the s3 backend when both are set.
	EnvLedgerviewS3Region = "LEDGERVIEW_S3_REGION"
	EnvLedgerviewS3Bucket = "LEDGERVIEW_S3_BUCKET"
)

// NOTE: keep this up to date or the config loader won't load them
var envKeys = []string{
	EnvLedgerviewConfig,
	EnvLedgerviewFileRoot,
	EnvLedgerviewS3Endpoint,
	EnvLedgerviewS3Region,
	EnvLedgerviewS3Bucket,
}
