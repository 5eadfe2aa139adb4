// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package advisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// Multipart field names for POST /upload_resume.
const (
	FieldResume = "resume"
	FieldUserID = "userId"
)

// DefaultUploadExtensions lists the resume formats the service accepts.
var DefaultUploadExtensions = []string{".pdf", ".doc", ".docx"}

// DefaultMaxUploadBytes caps the size of an uploaded resume.
const DefaultMaxUploadBytes = 10 * 1024 * 1024

var (
	// ErrUnsupportedAttachment indicates a file extension outside the allow list.
	ErrUnsupportedAttachment = errors.New("unsupported attachment type")

	// ErrAttachmentTooLarge indicates a file over the size limit.
	ErrAttachmentTooLarge = errors.New("attachment too large")

	// ErrEmptyAttachment indicates a file with no content.
	ErrEmptyAttachment = errors.New("attachment is empty")
)

// Attachment is an opaque file handed to the upload endpoint.
type Attachment struct {
	Name string
	Data []byte
}

// LoadAttachment reads a file from disk, refusing anything above maxBytes.
func LoadAttachment(path string, maxBytes int64) (Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to open attachment: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return Attachment{}, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrAttachmentTooLarge, info.Name(), info.Size(), maxBytes)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to read attachment: %w", err)
	}
	return Attachment{Name: filepath.Base(path), Data: data}, nil
}

// Ext returns the lower-cased file extension including the dot.
func (a Attachment) Ext() string {
	return strings.ToLower(filepath.Ext(a.Name))
}

// Validate checks the attachment against an extension allow list and a size
// limit. An empty allow list accepts any extension; maxBytes <= 0 disables the
// size check.
func (a Attachment) Validate(allowed []string, maxBytes int64) error {
	if len(a.Data) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyAttachment, a.Name)
	}
	if maxBytes > 0 && int64(len(a.Data)) > maxBytes {
		return fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrAttachmentTooLarge, a.Name, len(a.Data), maxBytes)
	}
	if len(allowed) == 0 {
		return nil
	}
	ext := a.Ext()
	for _, want := range allowed {
		if strings.EqualFold(ext, want) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (accepted: %s)", ErrUnsupportedAttachment, ext, strings.Join(allowed, ", "))
}

// Upload sends a resume for userID. Errors wrap ErrTransport.
func (c *Client) Upload(ctx context.Context, userID string, att Attachment) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(FieldResume, filepath.Base(att.Name))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(att.Data); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	if err := mw.WriteField(FieldUserID, userID); err != nil {
		return fmt.Errorf("failed to write form field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	payload := buf.Bytes()
	_, err = c.do(ctx, PathUpload, mw.FormDataContentType(), func() io.Reader { return bytes.NewReader(payload) })
	return err
}
