package client

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/glytch/internal/client/storagepath"
)

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

// SignObject asks storage for a time-limited URL to objectPath in bucket.
// The result is usually storage-relative ("/object/sign/..."); an empty
// string means the backend answered without one.
func SignObject(ctx context.Context, c Client, accessToken, bucket, objectPath string, expiresInSeconds int) (string, error) {
	var resp signResponse
	err := c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        "/storage/v1/object/sign/" + bucket + "/" + storagepath.EncodePath(objectPath),
		Body:        map[string]int{"expiresIn": expiresInSeconds},
		AccessToken: accessToken,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.SignedURL, nil
}
