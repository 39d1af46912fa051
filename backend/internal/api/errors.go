package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "circle-media/backend/pkg/errors"
)

// statusFor maps an engine error onto an HTTP status
func statusFor(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeInvalidOperation:
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case apperrors.ErrorTypePersistence:
		if errors.Is(err, apperrors.ErrWriteConflict) {
			return http.StatusConflict
		}
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// respondError writes the failure envelope
func (h *handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{
		"success":      false,
		"message":      messageFor(status),
		"errorMessage": err.Error(),
	}

	var pw *apperrors.ErrPartialWrite
	if errors.As(err, &pw) {
		body["partial"] = true
		body["committed"] = pw.Committed
		body["failed"] = pw.Failed
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, body)
}

// respondBindError writes a 400 for payloads gin could not bind or validate
func (h *handler) respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success":      false,
		"message":      "Invalid request payload",
		"errorMessage": describeBindError(err),
	})
}

func messageFor(status int) string {
	switch status {
	case http.StatusNotFound:
		return "Requested resource not found"
	case http.StatusBadRequest:
		return "Request rejected"
	case http.StatusConflict:
		return "Request conflicts with current state, please retry"
	}
	return "Error occurred, kindly check the error message for more details"
}

func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
