package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/phillip/college-events-go/services"
	"github.com/phillip/college-events-go/utils"
)

const imageField = "image"

// formOverhead is the allowance for text fields on top of the image limit.
const formOverhead int64 = 1 << 20

// readEventPayload decodes multipart, urlencoded or flat-JSON event bodies.
// It returns the single uploaded image header, if any.
func readEventPayload(c *gin.Context, d *Deps) (services.EventFields, *multipart.FileHeader, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, d.MaxUploadBytes+formOverhead)

	switch c.ContentType() {
	case gin.MIMEJSON:
		var body map[string]any
		if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
			return services.EventFields{}, nil, bodyError(err, d, "invalid JSON body")
		}
		values := make(map[string]string, len(body))
		for k, v := range body {
			s, ok := v.(string)
			if !ok {
				return services.EventFields{}, nil, services.ErrBadInput(fmt.Sprintf("%s must be a string", k))
			}
			values[k] = s
		}
		fields, err := services.FieldsFromMap(values)
		return fields, nil, err

	case gin.MIMEMultipartPOSTForm:
		form, err := c.MultipartForm()
		if err != nil {
			return services.EventFields{}, nil, bodyError(err, d, "invalid form data")
		}
		var image *multipart.FileHeader
		for key, files := range form.File {
			if key != imageField {
				return services.EventFields{}, nil, services.ErrUnknownField(key)
			}
			if len(files) > 1 {
				return services.EventFields{}, nil, &utils.UploadError{Message: "Only one image may be uploaded"}
			}
			if len(files) == 1 {
				image = files[0]
			}
		}
		// a text-valued image key carries no file
		delete(form.Value, imageField)
		fields, err := services.FieldsFromForm(form.Value)
		return fields, image, err

	default:
		if err := c.Request.ParseForm(); err != nil {
			return services.EventFields{}, nil, bodyError(err, d, "invalid form data")
		}
		c.Request.PostForm.Del(imageField)
		fields, err := services.FieldsFromForm(c.Request.PostForm)
		return fields, nil, err
	}
}

func bodyError(err error, d *Deps, msg string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &utils.UploadError{Message: fmt.Sprintf("File size too large. Maximum size is %dMB.", d.MaxUploadBytes/(1024*1024))}
	}
	return services.ErrBadInput(msg)
}

// storeImage checks and saves the upload, returning its reference. A nil
// header stores nothing.
func storeImage(ctx context.Context, d *Deps, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", nil
	}
	file, ext, err := utils.OpenImage(fh, d.MaxUploadBytes)
	if err != nil {
		if utils.IsUploadError(err) {
			return "", err
		}
		return "", services.ErrInternal("image upload failed", err)
	}
	defer file.Close()

	ref, err := d.Images.Save(ctx, file, ext)
	if err != nil {
		return "", services.ErrInternal("image upload failed", err)
	}
	return ref, nil
}

// discardImage removes a stored image best-effort.
func discardImage(ctx context.Context, d *Deps, ref string) {
	if ref == "" {
		return
	}
	if err := d.Images.Delete(ctx, ref); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("image", ref).Msg("image cleanup failed")
	}
}
