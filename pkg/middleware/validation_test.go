package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupBody struct {
	Email        string `json:"email" binding:"required,email"`
	RefreshToken string `json:"refreshToken" binding:"required"`
	Nickname     string `binding:"max=3"`
}

func bind(t *testing.T, body string) error {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var b signupBody
	return c.ShouldBindJSON(&b)
}

func TestValidationErrorsUseJSONNames(t *testing.T) {
	err := bind(t, `{"email":"nope","Nickname":"toolong"}`)
	require.Error(t, err)

	fields := ValidationErrors(err)
	assert.Equal(t, map[string][]string{
		"email":        {"email must be an email"},
		"refreshToken": {"refreshToken should not be empty"},
		"Nickname":     {"Nickname must be shorter than or equal to 3 characters"},
	}, fields)
}

func TestValidationErrorsMalformedBody(t *testing.T) {
	assert.Equal(t, map[string][]string{"body": {"request body must be valid JSON"}}, ValidationErrors(bind(t, `{"email":`)))
	assert.Contains(t, ValidationErrors(bind(t, `{"email":true}`)), "email")
	assert.Contains(t, ValidationErrors(errors.New("boom")), "body")
}

func TestFailValidationEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	FailValidation(c, bind(t, `{}`))

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"message":"Failed"`)
	assert.Contains(t, body, `"error":{`)
	assert.Contains(t, body, `"email":["email should not be empty"]`)
	assert.NotContains(t, body, `"data"`)
	assert.NotContains(t, body, "signupBody")
}
