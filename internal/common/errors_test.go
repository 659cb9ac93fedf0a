package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{NewAppError("NOT_FOUND", "invoice", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", ErrInvalidInput), http.StatusBadRequest},
		{InvalidInputErrorf("bad %s", "id"), http.StatusBadRequest},
		{WrapError(ErrValidation, "schema"), http.StatusBadRequest},
		{NewAppError("OCR", "tesseract", ErrExtraction), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "%v", tc.err)
	}
}

func TestAppError_Message(t *testing.T) {
	err := NewAppError("DB", "save invoice", ErrDatabase)
	assert.Equal(t, "DB: save invoice: database error", err.Error())
	assert.Equal(t, "DB: plain", NewAppError("DB", "plain", nil).Error())
	assert.Nil(t, WrapError(nil, "x"))
}
