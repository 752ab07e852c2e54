package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"kofa_admin/internal/config"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// MaxImageSize is the largest file accepted for upload.
const MaxImageSize int64 = 5 * 1024 * 1024

const (
	ReasonNoFile      = "No file selected"
	ReasonInvalidType = "Invalid file type. Please upload JPEG, PNG, WebP, or GIF."
	ReasonTooLarge    = "File too large. Maximum size is 5MB."
)

var ErrUploadFailed = errors.New("image upload failed")

var allowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// RejectedError means the file failed local checks and nothing was sent.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return e.Reason
}

type File struct {
	Name string
	Data []byte
}

// OpenFile reads at most one byte past MaxImageSize so oversize files are
// still rejected by UploadImage.
func OpenFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type Uploader struct {
	http      *resty.Client
	cloudName string
	preset    string
	folder    string
	compress  bool
	logger    *zap.Logger
}

func NewUploader(cfg config.Config, logger *zap.Logger) *Uploader {
	transport := otelhttp.NewTransport(http.DefaultTransport)
	httpClient := resty.NewWithClient(&http.Client{Transport: transport}).
		SetBaseURL(strings.TrimRight(cfg.UploadBaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout)

	return &Uploader{
		http:      httpClient,
		cloudName: strings.TrimSpace(cfg.CloudName),
		preset:    strings.TrimSpace(cfg.UploadPreset),
		folder:    strings.TrimSpace(cfg.UploadFolder),
		compress:  cfg.CompressImages,
		logger:    logger.Named("media"),
	}
}

// Validate sniffs the content type and checks size. It returns the detected
// MIME type or a *RejectedError.
func Validate(f File) (string, error) {
	if len(f.Data) == 0 {
		return "", &RejectedError{Reason: ReasonNoFile}
	}

	detected := mimetype.Detect(f.Data)
	if !mimetype.EqualsAny(detected.String(), allowedTypes...) {
		return "", &RejectedError{Reason: ReasonInvalidType}
	}
	if int64(len(f.Data)) > MaxImageSize {
		return "", &RejectedError{Reason: ReasonTooLarge}
	}
	return detected.String(), nil
}

// UploadImage validates f and sends it as an unsigned upload. Rejected files
// return a nil image and a *RejectedError without any request.
func (u *Uploader) UploadImage(ctx context.Context, f File) (*Image, error) {
	contentType, err := Validate(f)
	if err != nil {
		u.logger.Info("image rejected", zap.String("file", f.Name), zap.Error(err))
		return nil, err
	}

	name, data := f.Name, f.Data
	if u.compress {
		compressed, ok, err := Compress(data, contentType, DefaultMaxWidth)
		switch {
		case err != nil:
			u.logger.Warn("compression failed, uploading original", zap.String("file", f.Name), zap.Error(err))
		case ok:
			u.logger.Debug("image compressed",
				zap.String("file", f.Name),
				zap.Int("before", len(data)),
				zap.Int("after", len(compressed)),
			)
			name, data, contentType = jpegName(name), compressed, "image/jpeg"
		}
	}

	resp, err := u.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"upload_preset": u.preset,
			"folder":        u.folder,
		}).
		SetMultipartField("file", name, contentType, bytes.NewReader(data)).
		Post("/" + url.PathEscape(u.cloudName) + "/image/upload")
	if err != nil {
		u.logger.Warn("upload failed", zap.String("file", name), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if resp.IsError() {
		reason := gjson.GetBytes(resp.Body(), "error.message").String()
		u.logger.Warn("upload rejected by provider",
			zap.Int("status", resp.StatusCode()),
			zap.String("reason", reason),
		)
		if reason == "" {
			return nil, fmt.Errorf("%w: %s", ErrUploadFailed, resp.Status())
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrUploadFailed, resp.Status(), reason)
	}

	var out uploadResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUploadFailed, err)
	}
	if out.SecureURL == "" {
		return nil, fmt.Errorf("%w: response has no secure_url", ErrUploadFailed)
	}

	u.logger.Info("image uploaded", zap.String("public_id", out.PublicID), zap.Int("bytes", len(data)))
	return &Image{
		URL:      out.SecureURL,
		PublicID: out.PublicID,
		Width:    out.Width,
		Height:   out.Height,
	}, nil
}

// DeleteImage never contacts the provider: deleting an asset needs a signed
// request this client cannot make. It always reports success.
func (u *Uploader) DeleteImage(_ context.Context, publicID string) (bool, error) {
	u.logger.Debug("image delete is a no-op", zap.String("public_id", publicID))
	return true, nil
}

func jpegName(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		base = "image"
	}
	return base + ".jpg"
}
