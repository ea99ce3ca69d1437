package feed

import (
	"bytes"
	"image"
	"net/http"
	"path/filepath"
	"strings"

	// Decoders for the formats an upload may carry.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"photoshare/internal/models"
)

// Upload validation messages.
const (
	MsgSelectImage = "Please select an image."
	MsgNotAnImage  = "The selected file is not a supported image."
)

// UploadForm is the state of the creation overlay.
type UploadForm struct {
	FileName string
	Image    []byte
	Caption  string
	Title    string
	Location string
}

// IsEmpty reports whether nothing has been entered.
func (f UploadForm) IsEmpty() bool {
	return f.FileName == "" && len(f.Image) == 0 && f.Caption == "" && f.Title == "" && f.Location == ""
}

// Validate checks the attachment and builds the upload payload. Text fields
// are trimmed.
func (f UploadForm) Validate() (models.NewPost, error) {
	if len(f.Image) == 0 {
		return models.NewPost{}, models.NewValidationError(MsgSelectImage)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(f.Image))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return models.NewPost{}, models.NewValidationError(MsgNotAnImage)
	}

	name := filepath.Base(f.FileName)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "upload." + format
	}

	return models.NewPost{
		FileName:    name,
		ContentType: contentType(format, f.Image),
		Image:       f.Image,
		Caption:     strings.TrimSpace(f.Caption),
		Title:       strings.TrimSpace(f.Title),
		Location:    strings.TrimSpace(f.Location),
	}, nil
}

func contentType(format string, data []byte) string {
	switch format {
	case "jpeg", "png", "gif", "webp", "bmp", "tiff":
		return "image/" + format
	}
	return http.DetectContentType(data)
}
