package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fairyhunter13/property-admin-console/internal/model"
	"github.com/fairyhunter13/property-admin-console/internal/obs"
	"github.com/fairyhunter13/property-admin-console/internal/store"
)

// uploadField is the multipart field carrying image files.
const uploadField = "images"

func (a *App) getGalleryHandler(c *gin.Context) {
	imgs, err := a.Store.Gallery(c.Param("id"))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, imgs)
}

// readUploads stores every file of the multipart "images" field as a blob
// and returns their paths in submission order.
func (a *App) readUploads(c *gin.Context) ([]string, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		WriteJSONError(c, http.StatusBadRequest, "invalid_form", err.Error())
		return nil, false
	}
	files := form.File[uploadField]
	if len(files) == 0 {
		WriteJSONError(c, http.StatusBadRequest, "validation_error", uploadField+": at least one file is required")
		return nil, false
	}
	paths := make([]string, 0, len(files))
	for _, fh := range files {
		p, err := a.storeUpload(fh)
		if err != nil {
			WriteJSONError(c, http.StatusBadRequest, "validation_error", err.Error())
			return nil, false
		}
		paths = append(paths, p)
	}
	return paths, true
}

func (a *App) storeUpload(fh *multipart.FileHeader) (string, error) {
	if a.Cfg.MaxUploadBytes > 0 && fh.Size > a.Cfg.MaxUploadBytes {
		return "", fmt.Errorf("%s: file too large", fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("%s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", fh.Filename, err)
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return "", fmt.Errorf("%s: not an image (%s)", fh.Filename, ct)
	}
	name := "uploads/" + uuid.NewString() + strings.ToLower(path.Ext(fh.Filename))
	a.Store.PutBlob(name, store.Blob{ContentType: ct, Data: data})
	return name, nil
}

func (a *App) uploadGalleryHandler(c *gin.Context) {
	if a.rejectWhileClosing(c) {
		return
	}
	id := c.Param("id")
	if _, ok := a.Store.Get(id); !ok {
		WriteJSONError(c, http.StatusNotFound, "not_found", "")
		return
	}
	paths, ok := a.readUploads(c)
	if !ok {
		return
	}
	category := c.PostForm("category")
	imgs := make([]model.GalleryImage, 0, len(paths))
	for _, p := range paths {
		imgs = append(imgs, model.GalleryImage{ID: uuid.NewString(), URL: p, Category: category})
	}
	added, err := a.Store.AddGalleryImages(id, imgs)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	obs.Logger.Info("gallery_images_uploaded",
		"request_id", RequestIDFromContext(c.Request.Context()),
		"property_id", id,
		"count", len(added),
	)
	c.JSON(http.StatusCreated, added)
}

func (a *App) uploadFeaturedHandler(c *gin.Context) {
	if a.rejectWhileClosing(c) {
		return
	}
	id := c.Param("id")
	if _, ok := a.Store.Get(id); !ok {
		WriteJSONError(c, http.StatusNotFound, "not_found", "")
		return
	}
	paths, ok := a.readUploads(c)
	if !ok {
		return
	}
	p, err := a.Store.Update(id, a.Store.NextSequence(), func(p *model.Property) {
		p.Images = append(p.Images, paths...)
	})
	if err != nil {
		writeStoreError(c, err)
		return
	}
	obs.Logger.Info("featured_images_uploaded",
		"request_id", RequestIDFromContext(c.Request.Context()),
		"property_id", id,
		"count", len(paths),
	)
	c.JSON(http.StatusOK, p)
}

func (a *App) updateGalleryImageHandler(c *gin.Context) {
	if a.rejectWhileClosing(c) {
		return
	}
	var patch model.GalleryImagePatch
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		WriteJSONError(c, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if patch.Position != nil && *patch.Position < 0 {
		WriteJSONError(c, http.StatusBadRequest, "validation_error", "position must be >= 0")
		return
	}
	img, err := a.Store.UpdateGalleryImage(c.Param("imageId"), patch)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, img)
}

func (a *App) deleteGalleryImageHandler(c *gin.Context) {
	if a.rejectWhileClosing(c) {
		return
	}
	if err := a.Store.DeleteGalleryImage(c.Param("imageId")); err != nil {
		writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *App) uploadBlobHandler(c *gin.Context) {
	b, ok := a.Store.Blob("uploads/" + c.Param("name"))
	if !ok {
		WriteJSONError(c, http.StatusNotFound, "not_found", "")
		return
	}
	c.Data(http.StatusOK, b.ContentType, b.Data)
}
