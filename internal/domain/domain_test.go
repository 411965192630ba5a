package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeImageURLs(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want ImageURLs
	}{
		{"nil", nil, ImageURLs{}},
		{"single string", "  https://img/1.jpg ", ImageURLs{"https://img/1.jpg"}},
		{"blank string", "   ", ImageURLs{}},
		{"string slice", []string{"a", " ", "b "}, ImageURLs{"a", "b"}},
		{"mixed any slice", []any{"a", 3.0, nil, " c"}, ImageURLs{"a", "c"}},
		{"number", 42, ImageURLs{}},
		{"object", map[string]any{"url": "a"}, ImageURLs{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeImageURLs(tt.in))
		})
	}
}

func TestImageURLs_JSON(t *testing.T) {
	for body, want := range map[string]ImageURLs{
		`{"image_urls":"https://img/1.jpg"}`: {"https://img/1.jpg"},
		`{"image_urls":["a",""," b"]}`:       {"a", "b"},
		`{"image_urls":7}`:                   {},
		`{"image_urls":null}`:                {},
	} {
		var in PropertyInput
		require.NoError(t, json.Unmarshal([]byte(body), &in), body)
		assert.Equal(t, want, in.ImageURLs, body)
	}

	out, err := json.Marshal(PropertySummary{ID: "p-1"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"image_urls":[]`)
}

func TestParseBookingStatus(t *testing.T) {
	for _, s := range []string{"pending", "confirmed", "rejected"} {
		got, ok := ParseBookingStatus(s)
		assert.True(t, ok, s)
		assert.Equal(t, BookingStatus(s), got)
	}
	for _, s := range []string{"", "cancelled", "Confirmed", " pending"} {
		_, ok := ParseBookingStatus(s)
		assert.False(t, ok, s)
	}
}

func TestNightsAndTotalPrice(t *testing.T) {
	n, err := Nights("2024-06-01", "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = Nights("2024-02-28", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "leap day")

	_, err = Nights("2024-06-03", "2024-06-03")
	assert.True(t, IsValidation(err))
	_, err = Nights("2024-13-01", "2024-06-03")
	assert.True(t, IsValidation(err))

	assert.Equal(t, 1000.0, TotalPrice(500, 2))
	assert.Equal(t, 59.97, TotalPrice(19.99, 3))
}

func TestBookingPatchValidate(t *testing.T) {
	s := func(v string) *string { return &v }

	assert.EqualError(t, (&BookingPatch{}).Validate(), "Nothing to update")
	assert.NoError(t, (&BookingPatch{CheckOutDate: s("2024-06-05")}).Validate())
	assert.Error(t, (&BookingPatch{CheckInDate: s("June 1")}).Validate())
	assert.Error(t, (&BookingPatch{CheckInDate: s("2024-06-05"), CheckOutDate: s("2024-06-01")}).Validate())

	p := &BookingPatch{CheckInDate: s(" 2024-06-01 ")}
	p.Normalize()
	assert.Equal(t, "2024-06-01", *p.CheckInDate)
}

func TestPropertyInput(t *testing.T) {
	in := &PropertyInput{Name: " Loft ", Location: " Paris ", PricePerNight: 10}
	in.Normalize()
	require.NoError(t, in.Validate())
	assert.Equal(t, "Loft", in.Name)
	assert.True(t, in.IsAvailable())

	off := false
	in.Available = &off
	assert.False(t, in.IsAvailable())
}

func TestPropertyQueryNormalize(t *testing.T) {
	q := PropertyQuery{Destination: " paris ", Limit: 500, Offset: -3}
	q.Normalize()
	assert.Equal(t, PropertyQuery{Destination: "paris", Limit: MaxPropertyLimit}, q)
	assert.True(t, q.Paged())

	all := PropertyQuery{Limit: -1, Offset: 20}
	all.Normalize()
	assert.Equal(t, PropertyQuery{Offset: 20}, all)
	assert.False(t, all.Paged(), "no limit lists every match")
}

func TestOwnershipHelpers(t *testing.T) {
	b := &Booking{UserID: "renter"}
	assert.True(t, b.IsRenter("renter"))
	assert.False(t, b.IsRenter("host"))
	assert.False(t, b.IsRenter(""))

	p := &Property{ID: "p1", UserID: "host", Name: "Loft", Description: "Quiet", Location: "Paris", PricePerNight: 80, ImageURLs: ImageURLs{" a.jpg ", ""}}
	assert.True(t, p.IsOwner("host"))
	assert.Equal(t, PropertySummary{ID: "p1", Name: "Loft", Location: "Paris", PricePerNight: 80, ImageURLs: ImageURLs{"a.jpg"}}, p.Summary())
}

func TestRegisterRequest(t *testing.T) {
	r := &RegisterRequest{Email: "  Ann@Example.COM ", Password: "secret1"}
	r.Normalize()
	require.NoError(t, r.Validate())
	assert.Equal(t, "ann@example.com", r.Email)

	assert.EqualError(t, (&RegisterRequest{}).Validate(), "email is required")
	assert.EqualError(t, (&RegisterRequest{Email: "ann"}).Validate(), "invalid email format")
	assert.EqualError(t, (&RegisterRequest{Email: "a@b.co", Password: "12345"}).Validate(), "password must be at least 6 characters")
}

func TestErrors(t *testing.T) {
	assert.True(t, errors.Is(ErrBookingNotFound, ErrNotFound))
	assert.Equal(t, "Property not found", ErrPropertyNotFound.Error())
	assert.True(t, IsValidation(ErrInvalidStatus))
	assert.False(t, IsValidation(ErrForbidden))

	u := &User{Email: "a@b.co"}
	assert.Equal(t, "a@b.co", u.DisplayName())
}
