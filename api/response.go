package api

import (
	"encoding/xml"
	"net/http"

	"github.com/trailsum/trailsum/api/errors"
	"github.com/trailsum/trailsum/misc"
)

// ErrorResponse -- error response format.
type ErrorResponse struct {
	XMLName   xml.Name `xml:"Error" json:"-"`
	Code      string
	Message   string
	Resource  string
	RequestID string `xml:"RequestId" json:"RequestId"`

	// Underlying HTTP status code for the returned error.
	StatusCode int `xml:"-" json:"-"`
}

const (
	hdrAmzRequestID = "x-amz-request-id"

	mimeXML = "application/xml"
)

var xmlHeader = []byte(xml.Header)

// WriteErrorResponse writes an S3-shaped XML error for err to w.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	apiErr, ok := err.(errors.Error)
	if !ok {
		apiErr = errors.GetAPIError(errors.ErrInternalError)
	}

	resp := ErrorResponse{
		Code:       apiErr.Code,
		Message:    apiErr.Description,
		Resource:   r.URL.Path,
		RequestID:  w.Header().Get(hdrAmzRequestID),
		StatusCode: apiErr.HTTPStatusCode,
	}

	w.Header().Set(ContentType, mimeXML)
	w.Header().Set(ServerInfo, misc.ApplicationName)
	w.WriteHeader(resp.StatusCode)

	_, _ = w.Write(xmlHeader)
	_ = xml.NewEncoder(w).Encode(resp)
}
