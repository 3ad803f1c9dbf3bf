package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/adminkit-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUpBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func newBodyRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeJSONBodyReportsFieldErrorsByJSONName(t *testing.T) {
	var dest signUpBody
	err := DecodeJSONBody(newBodyRequest(`{"email":"nope","password":"short"}`), &dest)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be at least 8", details["password"])
}

func TestDecodeJSONBodyRejectsEmptyAndUnknownFields(t *testing.T) {
	var dest signUpBody
	err := DecodeJSONBody(newBodyRequest(""), &dest)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, err.Error(), "request body is required")

	err = DecodeJSONBody(newBodyRequest(`{"email":"a@b.com","password":"longenough1","extra":1}`), &dest)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyAcceptsValidBody(t *testing.T) {
	var dest signUpBody
	require.NoError(t, DecodeJSONBody(newBodyRequest(`{"email":"a@b.com","password":"longenough1"}`), &dest))
	assert.Equal(t, "a@b.com", dest.Email)
}
