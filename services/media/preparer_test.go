package mediasvc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/wizard"
)

func pngBytes(t *testing.T, w, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newPreparer() *Preparer {
	return NewPreparer(core.WizardConfig{ImageMaxWidth: 100, ImageMaxHeight: 100, MaxUploadSize: 1 << 20})
}

func TestPreparer_image(t *testing.T) {
	p := newPreparer()

	file, err := p.Prepare(wizard.FileImage, &wizard.File{Name: "cover", Data: pngBytes(t, 400, 200)})
	require.NoError(t, err)
	assert.Equal(t, "image/png", file.ContentType)
	assert.Equal(t, "cover.png", file.Name)

	img, err := imaging.Decode(bytes.NewReader(file.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	small := pngBytes(t, 20, 20)
	file, err = p.Prepare(wizard.FileImage, &wizard.File{Name: "icon.png", Data: small})
	require.NoError(t, err)
	assert.Equal(t, small, file.Data, "small images are kept as is")
}

func TestPreparer_rejects(t *testing.T) {
	pdf := []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n")
	tests := []struct {
		name string
		kind wizard.FileKind
		data []byte
		want string
	}{
		{name: "pdf as image", kind: wizard.FileImage, data: pdf, want: "file must be an image"},
		{name: "image as pdf", kind: wizard.FilePDF, data: pngBytes(t, 2, 2), want: "file must be a PDF"},
		{name: "text as video", kind: wizard.FileVideo, data: []byte("hello"), want: "file must be a video"},
		{name: "empty", kind: wizard.FilePDF, want: "file is empty"},
		{name: "too large", kind: wizard.FilePDF, data: append(pdf, make([]byte, 1<<20)...), want: "file must be at most 1 MB"},
	}
	p := newPreparer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Prepare(tt.kind, &wizard.File{Name: "f", Data: tt.data})
			var vErr *core.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.want, vErr.Error())
		})
	}
}

func TestPreparer_pdf(t *testing.T) {
	file, err := newPreparer().Prepare(wizard.FilePDF, &wizard.File{Data: []byte("%PDF-1.7\n")})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Regexp(t, `^[0-9a-f-]{36}\.pdf$`, file.Name)
}
