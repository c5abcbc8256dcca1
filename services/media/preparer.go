package mediasvc

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/wizard"
)

var imageFormats = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
	"image/gif":  imaging.GIF,
}

// Preparer checks the type of uploaded files and shrinks oversized images.
type Preparer struct {
	maxWidth  int
	maxHeight int
	maxSize   int64
}

var _ wizard.FilePreparer = (*Preparer)(nil)

func NewPreparer(conf core.WizardConfig) *Preparer {
	return &Preparer{maxWidth: conf.ImageMaxWidth, maxHeight: conf.ImageMaxHeight, maxSize: conf.MaxUploadSize}
}

func invalid(kind wizard.FileKind, msg string) error {
	return core.NewValidationError(nil, core.FieldError{Field: string(kind), Error: msg})
}

// Prepare sniffs the content type of file, rejects files of the wrong kind and
// returns the file to attach. Unnamed files get a random name.
func (p *Preparer) Prepare(kind wizard.FileKind, file *wizard.File) (*wizard.File, error) {
	if len(file.Data) == 0 {
		return nil, invalid(kind, "file is empty")
	}
	if p.maxSize > 0 && file.Size() > p.maxSize {
		return nil, invalid(kind, fmt.Sprintf("file must be at most %d MB", p.maxSize>>20))
	}

	mtype := mimetype.Detect(file.Data)
	out := &wizard.File{Name: file.Name, ContentType: mtype.String(), Data: file.Data}
	if out.Name == "" {
		out.Name = uuid.NewString() + mtype.Extension()
	} else if filepath.Ext(out.Name) == "" {
		out.Name += mtype.Extension()
	}

	switch kind {
	case wizard.FileImage:
		if !strings.HasPrefix(mtype.String(), "image/") {
			return nil, invalid(kind, "file must be an image")
		}
		return p.shrink(out, mtype)
	case wizard.FilePDF:
		if !mtype.Is("application/pdf") {
			return nil, invalid(kind, "file must be a PDF")
		}
	case wizard.FileVideo:
		if !strings.HasPrefix(mtype.String(), "video/") {
			return nil, invalid(kind, "file must be a video")
		}
	}
	return out, nil
}

// shrink fits images larger than the configured bounds. Formats imaging cannot encode pass through.
func (p *Preparer) shrink(file *wizard.File, mtype *mimetype.MIME) (*wizard.File, error) {
	format, ok := imageFormats[mtype.String()]
	if !ok || p.maxWidth <= 0 || p.maxHeight <= 0 {
		return file, nil
	}
	img, err := imaging.Decode(bytes.NewReader(file.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, invalid(wizard.FileImage, "image could not be read")
	}
	bounds := img.Bounds()
	if bounds.Dx() <= p.maxWidth && bounds.Dy() <= p.maxHeight {
		return file, nil
	}

	var buf bytes.Buffer
	fitted := imaging.Fit(img, p.maxWidth, p.maxHeight, imaging.Lanczos)
	if err := imaging.Encode(&buf, fitted, format); err != nil {
		return nil, errors.Wrap(err, "encoding resized image")
	}
	file.Data = buf.Bytes()
	return file, nil
}
