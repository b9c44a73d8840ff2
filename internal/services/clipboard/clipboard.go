// Package clipboard provides access to the system clipboard.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrEmptyDocument reports an attempt to copy nothing.
var ErrEmptyDocument = errors.New("clipboard: document is empty")

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a clipboard service implementation.
func NewService() *Service {
	return &Service{}
}

// Copy writes the rendered document to the system clipboard.
func (service *Service) Copy(text string) error {
	if text == "" {
		return ErrEmptyDocument
	}
	return clipboard.WriteAll(text)
}

var _ Copier = (*Service)(nil)
