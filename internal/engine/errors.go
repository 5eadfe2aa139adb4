// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"errors"
	"fmt"

	"github.com/ece1786-2024/CourseCraft/internal/advisor"
)

// UploadError reports a failed attachment upload. Hosts show it as a
// notice; it never enters the transcript.
type UploadError struct {
	Name string
	Err  error
}

// Error implements the error interface.
func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying cause.
func (e *UploadError) Unwrap() error {
	return e.Err
}

// Rejected reports whether the file was refused locally, before any
// request was made.
func (e *UploadError) Rejected() bool {
	return errors.Is(e.Err, advisor.ErrUnsupportedAttachment) ||
		errors.Is(e.Err, advisor.ErrAttachmentTooLarge) ||
		errors.Is(e.Err, advisor.ErrEmptyAttachment)
}
