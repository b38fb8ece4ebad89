package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fairyhunter13/property-admin-console/internal/model"
	"github.com/fairyhunter13/property-admin-console/internal/obs"
	"github.com/fairyhunter13/property-admin-console/internal/store"
)

func (a *App) getPropertyHandler(c *gin.Context) {
	p, ok := a.Store.Get(c.Param("id"))
	if !ok {
		WriteJSONError(c, http.StatusNotFound, "not_found", "")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *App) updatePropertyHandler(c *gin.Context) {
	if a.rejectWhileClosing(c) {
		return
	}
	id := c.Param("id")
	form, err := bindPropertyForm(c)
	if err != nil {
		WriteJSONError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", err.Error())
		return
	}
	if details := form.validate(); details != "" {
		a.Metrics.ObserveWrite("invalid")
		WriteJSONError(c, http.StatusBadRequest, "validation_error", details)
		return
	}
	seq := a.Store.NextSequence()
	p, err := a.Store.Update(id, seq, form.apply)
	if err != nil {
		switch err {
		case store.ErrNotFound:
			a.Metrics.ObserveWrite("not_found")
		case store.ErrStale:
			a.Metrics.ObserveWrite("stale")
		}
		writeStoreError(c, err)
		return
	}
	a.Metrics.ObserveWrite("applied")
	obs.Logger.Info("property_updated",
		"request_id", RequestIDFromContext(c.Request.Context()),
		"property_id", id,
		"sequence", seq,
	)
	c.JSON(http.StatusOK, p)
}

func (a *App) listCommentsHandler(c *gin.Context) {
	f := model.CommentFilter{
		PropertyID: c.Query("propertyId"),
		Status:     c.Query("status"),
	}
	c.JSON(http.StatusOK, a.Store.Comments(f))
}
