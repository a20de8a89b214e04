package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phillip/college-events-go/middleware"
	"github.com/phillip/college-events-go/services"
	"github.com/phillip/college-events-go/utils"
)

const requestTimeout = 5 * time.Second

// ---------------- CREATE ----------------
func CreateEvent(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		// --- Decode form fields and the optional image ---
		fields, fh, err := readEventPayload(c, d)
		if err != nil {
			respondError(c, d, err)
			return
		}

		image, err := storeImage(ctx, d, fh)
		if err != nil {
			respondError(c, d, err)
			return
		}

		// --- Save event ---
		event, err := d.Events.Create(ctx, fields, image, middleware.Identity(c))
		if err != nil {
			discardImage(ctx, d, image)
			respondError(c, d, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Event created successfully",
			"event":   event,
		})
	}
}

// ---------------- LIST ----------------
func ListEvents(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		events, err := d.Events.List(ctx, services.ListFilter{
			Search:    c.Query("search"),
			EventType: c.Query("type"),
			Status:    c.Query("status"),
		})
		if err != nil {
			respondError(c, d, err)
			return
		}

		etag := utils.ListETag(events)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)
		if latest := utils.LastModified(events); !latest.IsZero() {
			c.Header("Last-Modified", latest.UTC().Format(http.TimeFormat))
		}

		c.JSON(http.StatusOK, events)
	}
}

// ---------------- GET ----------------
func GetEvent(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		event, err := d.Events.GetByID(ctx, c.Param("id"))
		if err != nil {
			respondError(c, d, err)
			return
		}

		etag := utils.GenerateETag(event.ID, event.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		c.JSON(http.StatusOK, event)
	}
}

// ---------------- UPDATE ----------------
func UpdateEvent(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		// ✅ Reject anonymous callers before reading the body
		who := middleware.Identity(c)
		if who == nil {
			respondError(c, d, services.ErrUnauthenticated("User not authenticated"))
			return
		}

		fields, fh, err := readEventPayload(c, d)
		if err != nil {
			respondError(c, d, err)
			return
		}

		image, err := storeImage(ctx, d, fh)
		if err != nil {
			respondError(c, d, err)
			return
		}

		// ✅ Apply update; the service checks ownership
		event, replaced, err := d.Events.Update(ctx, c.Param("id"), fields, image, who)
		if err != nil {
			discardImage(ctx, d, image)
			respondError(c, d, err)
			return
		}

		// 🔹 Old image is no longer referenced
		discardImage(ctx, d, replaced)

		c.JSON(http.StatusOK, gin.H{
			"message": "Event updated successfully",
			"event":   event,
		})
	}
}

// ---------------- DELETE ----------------
func DeleteEvent(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		removed, err := d.Events.Delete(ctx, c.Param("id"), middleware.Identity(c))
		if err != nil {
			respondError(c, d, err)
			return
		}

		discardImage(ctx, d, removed.Image)

		c.JSON(http.StatusOK, gin.H{
			"message": "Event deleted successfully",
			"id":      removed.ID.Hex(),
		})
	}
}
