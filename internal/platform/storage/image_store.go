package storage

import (
	"context"
	"errors"
	"mime"
	"path/filepath"
	"strings"
)

// ImageStore uploads catalog images, composing object paths from the
// registered builders.
type ImageStore struct {
	uploader *Uploader
}

// NewImageStore constructs an ImageStore over the given uploader.
func NewImageStore(uploader *Uploader) (*ImageStore, error) {
	if uploader == nil {
		return nil, errors.New("storage image store: uploader is required")
	}
	return &ImageStore{uploader: uploader}, nil
}

// UploadProductImage stores a product image and returns its public URL.
func (s *ImageStore) UploadProductImage(ctx context.Context, productID, fileName string, data []byte) (string, error) {
	objectPath, err := BuildObjectPath(PurposeProductImage, PathParams{
		ProductID: productID,
		FileName:  fileName,
	})
	if err != nil {
		return "", err
	}
	return s.uploader.Upload(ctx, objectPath, data, contentTypeFor(fileName))
}

// UploadSaleImage stores a sale image and returns its public URL.
func (s *ImageStore) UploadSaleImage(ctx context.Context, saleID, fileName string, data []byte) (string, error) {
	objectPath, err := BuildObjectPath(PurposeSaleImage, PathParams{
		SaleID:   saleID,
		FileName: fileName,
	})
	if err != nil {
		return "", err
	}
	return s.uploader.Upload(ctx, objectPath, data, contentTypeFor(fileName))
}

func contentTypeFor(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		return "application/octet-stream"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
