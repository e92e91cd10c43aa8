// Package errors maps integrity failures onto standard S3 API error codes.
package errors

import (
	"fmt"
	"net/http"
)

type (
	// ErrorCode type of error status.
	ErrorCode int

	// Error structure represents API error.
	Error struct {
		ErrCode        ErrorCode
		Code           string
		Description    string
		HTTPStatusCode int
	}
)

const (
	_ ErrorCode = iota
	ErrBadDigest
	ErrInvalidDigest
	ErrInvalidChecksumAlgorithm
	ErrIncompleteBody
	ErrMalformedChunkedEncoding
	ErrInternalError
)

// errorCodes is the non-exhaustive list of S3 standard error responses -
// http://docs.aws.amazon.com/AmazonS3/latest/API/ErrorResponses.html
var errorCodes = map[ErrorCode]Error{
	ErrBadDigest: {
		ErrCode:        ErrBadDigest,
		Code:           "BadDigest",
		Description:    "The checksum you specified did not match what we received.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrInvalidDigest: {
		ErrCode:        ErrInvalidDigest,
		Code:           "InvalidDigest",
		Description:    "The checksum you specified is not valid.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrInvalidChecksumAlgorithm: {
		ErrCode:        ErrInvalidChecksumAlgorithm,
		Code:           "InvalidRequest",
		Description:    "Checksum algorithm provided is unsupported.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrIncompleteBody: {
		ErrCode:        ErrIncompleteBody,
		Code:           "IncompleteBody",
		Description:    "You did not provide the number of bytes specified by the Content-Length HTTP header.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrMalformedChunkedEncoding: {
		ErrCode:        ErrMalformedChunkedEncoding,
		Code:           "MalformedChunkedEncoding",
		Description:    "The aws-chunked body framing is malformed.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrInternalError: {
		ErrCode:        ErrInternalError,
		Code:           "InternalError",
		Description:    "We encountered an internal error, please try again.",
		HTTPStatusCode: http.StatusInternalServerError,
	},
}

// GetAPIError provides API Error for input API error code.
func GetAPIError(code ErrorCode) Error {
	if err, ok := errorCodes[code]; ok {
		return err
	}
	return errorCodes[ErrInternalError]
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %d => %s", e.Code, e.HTTPStatusCode, e.Description)
}
