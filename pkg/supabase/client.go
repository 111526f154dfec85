// Package supabase is a minimal client for the two Supabase surfaces the
// pipeline needs: storage signed-URL uploads/downloads and PostgREST row
// access.
package supabase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"clipgen/log"
	apperrors "clipgen/pkg/errors"
)

type Client struct {
	baseURL string
	client  *resty.Client
}

func NewClient(baseURL, apiKey string) *Client {
	base := strings.TrimSuffix(baseURL, "/")
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(120 * time.Second).
		SetHeader("apikey", apiKey).
		SetHeader("Authorization", "Bearer "+apiKey)
	return &Client{baseURL: base, client: client}
}

type signedUploadRes struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// CreateSignedUploadURL asks storage for a one-time upload token for
// bucket/key. Older API versions return the token only inside the url's query
// string, so both shapes are accepted. An empty token is a hard failure.
func (c *Client) CreateSignedUploadURL(ctx context.Context, bucket, key string) (string, error) {
	var result signedUploadRes
	res, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Post(fmt.Sprintf("/storage/v1/object/upload/sign/%s/%s", bucket, key))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeSignedURLFailed, "create signed upload url", err)
	}
	if res.IsError() {
		return "", apperrors.WrapWithDetail(apperrors.CodeSignedURLFailed, "create signed upload url",
			res.String(), fmt.Errorf("status %d", res.StatusCode()))
	}

	token := result.Token
	if token == "" {
		token = tokenFromURL(result.URL)
	}
	if token == "" {
		log.GetLogger().Error("signed upload url response carries no token",
			zap.String("bucket", bucket), zap.String("key", key), zap.String("body", res.String()))
		return "", apperrors.New(apperrors.CodeSignedURLFailed, "signed upload url response carries no token")
	}
	return token, nil
}

// UploadToSignedURL completes the two-phase upload by PUTting the payload to
// the signed endpoint with the token from CreateSignedUploadURL.
func (c *Client) UploadToSignedURL(ctx context.Context, bucket, key, token string, data []byte, contentType string) error {
	res, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("token", token).
		SetHeader("Content-Type", contentType).
		SetBody(data).
		Put(fmt.Sprintf("/storage/v1/object/upload/sign/%s/%s", bucket, key))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUploadFailed, "upload to signed url", err)
	}
	if res.IsError() {
		return apperrors.WrapWithDetail(apperrors.CodeUploadFailed, "upload to signed url",
			res.String(), fmt.Errorf("status %d", res.StatusCode()))
	}
	return nil
}

type signedDownloadRes struct {
	SignedURL string `json:"signedURL"`
}

// CreateSignedDownloadURL returns a time-limited absolute URL for reading a
// private object. expiresIn is in seconds.
func (c *Client) CreateSignedDownloadURL(ctx context.Context, bucket, key string, expiresIn int) (string, error) {
	var result signedDownloadRes
	res, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]int{"expiresIn": expiresIn}).
		SetResult(&result).
		Post(fmt.Sprintf("/storage/v1/object/sign/%s/%s", bucket, key))
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeSignedURLFailed, "create signed download url", err)
	}
	if res.IsError() || result.SignedURL == "" {
		return "", apperrors.WrapWithDetail(apperrors.CodeSignedURLFailed, "create signed download url",
			res.String(), fmt.Errorf("status %d", res.StatusCode()))
	}
	if strings.HasPrefix(result.SignedURL, "http") {
		return result.SignedURL, nil
	}
	return c.baseURL + "/storage/v1" + result.SignedURL, nil
}

// InsertRow inserts one row and returns its id from the representation the
// server echoes back.
func (c *Client) InsertRow(ctx context.Context, table string, fields map[string]any) (string, error) {
	var rows []map[string]any
	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=representation").
		SetBody(fields).
		SetResult(&rows).
		Post("/rest/v1/" + table)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeRowInsertFailed, "insert row into "+table, err)
	}
	if res.IsError() {
		return "", apperrors.WrapWithDetail(apperrors.CodeRowInsertFailed, "insert row into "+table,
			res.String(), fmt.Errorf("status %d", res.StatusCode()))
	}
	if len(rows) == 0 {
		return "", apperrors.New(apperrors.CodeRowInsertFailed, "insert into "+table+" returned no representation")
	}
	return fmt.Sprintf("%v", rows[0]["id"]), nil
}

// UpdateRow patches the row with the given id.
func (c *Client) UpdateRow(ctx context.Context, table, id string, fields map[string]any) error {
	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("id", "eq."+id).
		SetBody(fields).
		Patch("/rest/v1/" + table)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStatusUpdateFail, "update row in "+table, err)
	}
	if res.IsError() {
		return apperrors.WrapWithDetail(apperrors.CodeStatusUpdateFail, "update row in "+table,
			res.String(), fmt.Errorf("status %d", res.StatusCode()))
	}
	return nil
}

// DownloadToBytes fetches an absolute URL, typically one minted by
// CreateSignedDownloadURL.
func (c *Client) DownloadToBytes(ctx context.Context, rawURL string) ([]byte, error) {
	res, err := resty.New().SetTimeout(10 * time.Minute).R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFileNotFound, "download object", err)
	}
	if res.IsError() {
		return nil, apperrors.WrapWithDetail(apperrors.CodeFileNotFound, "download object",
			res.Status(), fmt.Errorf("status %d", res.StatusCode()))
	}
	return res.Body(), nil
}

func tokenFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("token")
}
