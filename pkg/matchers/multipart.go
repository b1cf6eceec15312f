package matchers

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
)

// MultipartBody matches multipart/form-data request bodies: every
// expected form field and file part must be present with equal content.
// The boundary is taken from the request's Content-Type header, so the
// same matcher works regardless of how the client generated it. Extra
// parts the expectation doesn't mention are ignored.
func MultipartBody(fields map[string]string, files map[string][]byte) Matcher {
	return func(req *http.Request, body []byte) (bool, string) {
		mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			return false, "request is not multipart/form-data"
		}
		boundary := params["boundary"]
		if boundary == "" {
			return false, "multipart boundary is missing"
		}

		gotFields := map[string]string{}
		gotFiles := map[string][]byte{}
		mr := multipart.NewReader(bytes.NewReader(body), boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return false, fmt.Sprintf("request body is not valid multipart: %v", err)
			}
			data, err := io.ReadAll(part)
			if err != nil {
				return false, fmt.Sprintf("reading multipart part %s: %v", part.FormName(), err)
			}
			if part.FileName() != "" {
				gotFiles[part.FormName()] = data
			} else {
				gotFields[part.FormName()] = string(data)
			}
		}

		for name, want := range fields {
			got, ok := gotFields[name]
			if !ok {
				return false, fmt.Sprintf("form field %s is missing", name)
			}
			if got != want {
				return false, fmt.Sprintf("form field %s value %q doesn't match %q", name, got, want)
			}
		}
		for name, want := range files {
			got, ok := gotFiles[name]
			if !ok {
				return false, fmt.Sprintf("file part %s is missing", name)
			}
			if !bytes.Equal(got, want) {
				return false, fmt.Sprintf("file part %s content doesn't match", name)
			}
		}
		return true, ""
	}
}
