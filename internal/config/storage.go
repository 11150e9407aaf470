package config

// S3Config points at the S3-compatible bucket holding course thumbnails.
// Thumbnail uploads are disabled unless a bucket is configured.
type S3Config struct {
	Bucket        string
	Region        string
	Endpoint      string // optional, e.g. a MinIO url
	AccessKey     string
	SecretKey     string
	PublicBaseURL string // base url objects are served from
	UsePathStyle  bool
}

// Enabled reports whether enough settings are present to presign uploads.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.Region != ""
}

func LoadS3Config() S3Config {
	return S3Config{
		Bucket:        envStr("S3_BUCKET", ""),
		Region:        envStr("S3_REGION", "us-east-1"),
		Endpoint:      envStr("S3_ENDPOINT", ""),
		AccessKey:     envStr("S3_ACCESS_KEY", ""),
		SecretKey:     envStr("S3_SECRET_KEY", ""),
		PublicBaseURL: envStr("S3_PUBLIC_BASE_URL", ""),
		UsePathStyle:  envBool("S3_USE_PATH_STYLE", false),
	}
}
