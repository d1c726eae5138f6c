package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arnavdesai/MentorLink/internal/apperr"
)

func TestKindOfWalksWrappedChains(t *testing.T) {
	base := apperr.New(apperr.KindConflict, "slot taken")
	wrapped := fmt.Errorf("creating booking: %w", base)

	assert.Equal(t, apperr.KindConflict, apperr.KindOf(wrapped))
	assert.Equal(t, apperr.KindUnknown, apperr.KindOf(errors.New("plain")))
	assert.Equal(t, apperr.KindUnknown, apperr.KindOf(nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("camera is busy")
	err := apperr.Wrap(apperr.KindDevice, "camera unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "camera unavailable: camera is busy", err.Error())
}

func TestIsMatchesByKind(t *testing.T) {
	err := apperr.New(apperr.KindNotFound, "booking not found")
	assert.ErrorIs(t, err, apperr.New(apperr.KindNotFound, "anything"))
	assert.NotErrorIs(t, err, apperr.New(apperr.KindConflict, "anything"))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.KindValidation:    http.StatusBadRequest,
		apperr.KindAuthorization: http.StatusForbidden,
		apperr.KindNotFound:      http.StatusNotFound,
		apperr.KindConflict:      http.StatusConflict,
		apperr.KindDevice:        http.StatusInternalServerError,
		apperr.KindUnknown:       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, apperr.HTTPStatus(apperr.New(kind, "x")), kind.String())
	}
	assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(errors.New("plain")))
}
