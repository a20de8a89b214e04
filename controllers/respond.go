package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/phillip/college-events-go/services"
	"github.com/phillip/college-events-go/utils"
)

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body for err and aborts the chain.
func respondError(c *gin.Context, d *Deps, err error) {
	var ue *utils.UploadError
	if errors.As(err, &ue) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   string(services.KindValidation),
			"message": ue.Message,
		})
		return
	}

	var se *services.Error
	if !errors.As(err, &se) {
		se = &services.Error{Kind: services.KindInternal, Message: "Something went wrong!", Err: err}
	}

	body := gin.H{
		"error":   string(se.Kind),
		"message": se.Message,
	}
	switch se.Validation {
	case services.MissingFields:
		body["fields"] = se.Fields
	case services.InvalidEnum:
		body["field"] = se.Field
		body["value"] = se.Value
	case services.InvalidDate, services.InvalidTime, services.InvalidField, services.UnknownField:
		if se.Field != "" {
			body["field"] = se.Field
		}
	}
	if len(se.Details) > 0 {
		body["errors"] = se.Details
	}

	if se.Kind == services.KindInternal {
		log.Ctx(c.Request.Context()).Error().Err(err).Str("route", c.FullPath()).Msg(se.Message)
		if d.Development && se.Err != nil {
			body["details"] = se.Err.Error()
		}
	}

	c.AbortWithStatusJSON(statusFor(se.Kind), body)
}
