package blob

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	ErrNotConfigured = errors.New("blob: file storage is not configured")
	ErrInvalidConfig = errors.New("blob: invalid configuration")
	ErrBadEncoding   = errors.New("blob: file data is not valid base64")
	ErrNotFound      = errors.New("blob: object not found")
	ErrAccessDenied  = errors.New("blob: access denied")
	ErrUploadFailed  = errors.New("blob: upload failed")
	ErrUnreachable   = errors.New("blob: bucket unreachable")
)

// wrapS3Error maps S3 API errors onto package sentinels. The original error
// is kept as text only, so callers match with errors.Is on the sentinels.
func wrapS3Error(err error, fallback error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}

	var notFound *types.NoSuchKey
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %v", fallback, err)
}
