package api

// Standard integrity-related HTTP request/response constants.
const (
	AmzTrailer              = "X-Amz-Trailer"
	AmzSdkChecksumAlgorithm = "X-Amz-Sdk-Checksum-Algorithm"
	AmzChecksumMode         = "X-Amz-Checksum-Mode"
	AmzDecodedContentLength = "X-Amz-Decoded-Content-Length"
	AmzContentSha256        = "X-Amz-Content-Sha256"

	ContentType      = "Content-Type"
	ContentLength    = "Content-Length"
	ContentEncoding  = "Content-Encoding"
	ContentMD5       = "Content-Md5"
	TransferEncoding = "Transfer-Encoding"
	ETag             = "ETag"
	ServerInfo       = "Server"
)

const (
	// AwsChunked is the Content-Encoding token declaring aws-chunked body
	// framing with a possible trailing checksum chunk.
	AwsChunked = "aws-chunked"

	// ChecksumModeEnabled is the AmzChecksumMode value opting a request in
	// to response checksum verification.
	ChecksumModeEnabled = "ENABLED"
)
