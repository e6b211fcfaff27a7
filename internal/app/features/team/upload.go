package team

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxImageBytes = 5 << 20

// imageExts maps the accepted image content types to the extension the
// stored file gets when the upload's own name carries none.
var imageExts = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var allowedExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

var (
	errNotImage      = apperr.Validation("only image files are allowed")
	errImageTooLarge = apperr.Validation("image must be 5MB or smaller")
	errNoImageStore  = apperr.Validation("image uploads are not configured")
)

// memberInput is the body of create and update, sent either as JSON or as
// multipart form fields with an optional "image" file part.
type memberInput struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
	Order    *int    `json:"order"`
	LinkedIn *string `json:"linkedin"`
	GitHub   *string `json:"github"`
	Email    *string `json:"email"`
	IsActive *bool   `json:"isActive"`
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// readInput decodes the request and stores any uploaded image, setting
// in.Image to its public URL. stored is the storage path of that upload so
// the caller can remove it if the write that follows fails.
func (h *Handler) readInput(ctx context.Context, w http.ResponseWriter, r *http.Request) (in memberInput, stored string, err error) {
	if !isMultipart(r) {
		err = respond.Decode(w, r, &in)
		return in, "", err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return in, "", errImageTooLarge
		}
		return in, "", apperr.Wrap(apperr.Validation("invalid multipart form"), err)
	}

	str := func(key string) *string {
		if vs, ok := r.MultipartForm.Value[key]; ok && len(vs) > 0 {
			v := vs[0]
			return &v
		}
		return nil
	}
	in.Name = str("name")
	in.Role = str("role")
	in.Bio = str("bio")
	in.Image = str("image")
	in.LinkedIn = str("linkedin")
	in.GitHub = str("github")
	in.Email = str("email")
	if v := str("order"); v != nil {
		n, err := strconv.Atoi(strings.TrimSpace(*v))
		if err != nil {
			return in, "", apperr.Validation("order must be a whole number")
		}
		in.Order = &n
	}
	if v := str("isActive"); v != nil {
		b, err := strconv.ParseBool(strings.TrimSpace(*v))
		if err != nil {
			return in, "", apperr.Validation("isActive must be true or false")
		}
		in.IsActive = &b
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, "", nil
	}
	if err != nil {
		return in, "", apperr.Wrap(apperr.Validation("invalid image upload"), err)
	}
	defer file.Close()

	if h.Images == nil {
		return in, "", errNoImageStore
	}
	if header.Size > maxImageBytes {
		return in, "", errImageTooLarge
	}
	contentType, ext, ok := imageType(header.Header.Get("Content-Type"), header.Filename)
	if !ok {
		return in, "", errNotImage
	}

	name := uuid.New().String() + ext
	if err := h.Images.Put(ctx, name, file, &storage.PutOptions{ContentType: contentType}); err != nil {
		return in, "", fmt.Errorf("store team image: %w", err)
	}
	url := h.Images.URL(name)
	in.Image = &url
	return in, name, nil
}

// imageType checks an upload against the accepted image types and returns
// its media type and the extension to store it under. The file name's
// extension must be an image extension; without one, the media type
// decides.
func imageType(contentType, filename string) (string, string, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", "", false
	}
	mt = strings.ToLower(mt)
	fallback, ok := imageExts[mt]
	if !ok {
		return "", "", false
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return mt, fallback, true
	}
	if !allowedExts[ext] {
		return "", "", false
	}
	return mt, ext, true
}

// discardImage removes a stored image, logging rather than failing.
func (h *Handler) discardImage(ctx context.Context, path string) {
	if path == "" || h.Images == nil {
		return
	}
	if err := h.Images.Delete(ctx, path); err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.Log.Warn("team image cleanup failed", zap.String("path", path), zap.Error(err))
	}
}

// imagePath reverses Images.URL. It reports false for URLs outside
// ImagesURL, such as links to externally hosted portraits.
func (h *Handler) imagePath(url string) (string, bool) {
	prefix := h.ImagesURL + "/"
	if h.ImagesURL == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	p := strings.TrimPrefix(url, prefix)
	if p == "" || strings.Contains(p, "/") || strings.Contains(p, "..") {
		return "", false
	}
	return p, true
}

// discardImageURL removes the stored file behind url, if this store owns it.
func (h *Handler) discardImageURL(ctx context.Context, url string) {
	if p, ok := h.imagePath(url); ok {
		h.discardImage(ctx, p)
	}
}
