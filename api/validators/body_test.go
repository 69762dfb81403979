package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stondral/tsew-sub002/pkg/enums"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
)

type inviteBody struct {
	Email string           `json:"email" validate:"required,email"`
	Role  enums.MemberRole `json:"role" validate:"required,enum"`
}

func decode(t *testing.T, body string) (inviteBody, error) {
	t.Helper()
	var dest inviteBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := DecodeJSONBody(httptest.NewRecorder(), req, &dest)
	return dest, err
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	got, err := decode(t, `{"email":"a@example.com","role":"finance"}`)
	require.NoError(t, err)
	assert.Equal(t, enums.MemberRoleFinance, got.Role)
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	_, err := decode(t, `{"email":"nope","role":"emperor"}`)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email", details["inviteBody.email"])
	assert.Equal(t, "is not a recognized value", details["inviteBody.role"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	_, err := decode(t, `{"email":"a@example.com","role":"owner","price":"1"}`)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestParseQueryIntBounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders?limit=500", nil)
	_, err := ParseQueryInt(req, "limit", 20, 1, 100)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	req = httptest.NewRequest(http.MethodGet, "/orders", nil)
	v, err := ParseQueryInt(req, "limit", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, v)
}

func TestParseQueryEnum(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders?status=SHIPPED", nil)
	status, err := ParseQueryEnum(req, "status", enums.ParseOrderStatus)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, enums.OrderStatusShipped, *status)

	req = httptest.NewRequest(http.MethodGet, "/orders?status=lost", nil)
	_, err = ParseQueryEnum(req, "status", enums.ParseOrderStatus)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	req = httptest.NewRequest(http.MethodGet, "/orders", nil)
	status, err = ParseQueryEnum(req, "status", enums.ParseOrderStatus)
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestSanitizeStringCapsRunes(t *testing.T) {
	assert.Equal(t, "héllo", SanitizeString("  héllo\x00  ", 0))
	assert.Equal(t, "hé", SanitizeString("héllo", 2))
}
