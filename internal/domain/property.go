package domain

import (
	"encoding/json"
	"strings"
	"time"
)

type Property struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	PricePerNight float64   `json:"price_per_night"`
	Available     bool      `json:"available"`
	ImageURLs     ImageURLs `json:"image_urls"`
	CreatedAt     time.Time `json:"created_at"`
}

// PropertySummary holds the publicly listed columns of a property.
type PropertySummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Location      string    `json:"location"`
	PricePerNight float64   `json:"price_per_night"`
	ImageURLs     ImageURLs `json:"image_urls"`
}

func (p *Property) Summary() PropertySummary {
	return PropertySummary{
		ID:            p.ID,
		Name:          p.Name,
		Location:      p.Location,
		PricePerNight: p.PricePerNight,
		ImageURLs:     NormalizeImageURLs([]string(p.ImageURLs)),
	}
}

// IsOwner reports whether userID is the host of the property.
func (p *Property) IsOwner(userID string) bool {
	return p.UserID == userID
}

// ImageURLs is an ordered list of image references (data URIs or http(s) URLs).
// It decodes from a string, an array or anything else, and always encodes as an array.
type ImageURLs []string

func (u *ImageURLs) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = NormalizeImageURLs(raw)
	return nil
}

func (u ImageURLs) MarshalJSON() ([]byte, error) {
	if u == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(u))
}

// NormalizeImageURLs turns arbitrary input into a list of non-empty trimmed
// strings. Absent or unsupported input yields an empty list.
func NormalizeImageURLs(v any) ImageURLs {
	out := ImageURLs{}
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	case []string:
		for _, x := range t {
			if s := strings.TrimSpace(x); s != "" {
				out = append(out, s)
			}
		}
	case ImageURLs:
		return NormalizeImageURLs([]string(t))
	case []any:
		for _, x := range t {
			if str, ok := x.(string); ok {
				if s := strings.TrimSpace(str); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// PropertyInput is the body of property create and update requests.
type PropertyInput struct {
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	PricePerNight float64   `json:"price_per_night"`
	Available     *bool     `json:"available,omitempty"`
	ImageURLs     ImageURLs `json:"image_urls"`
}

func (in *PropertyInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.ImageURLs = NormalizeImageURLs(in.ImageURLs)
}

func (in *PropertyInput) Validate() error {
	if in.Name == "" {
		return Invalid("name is required")
	}
	if in.Location == "" {
		return Invalid("location is required")
	}
	if in.PricePerNight <= 0 {
		return Invalid("price_per_night must be a positive number")
	}
	return nil
}

// IsAvailable defaults to true when the client leaves availability out.
func (in *PropertyInput) IsAvailable() bool {
	return in.Available == nil || *in.Available
}

// PropertyQuery filters and pages the public property listing. A zero Limit
// lists every match; paging is only applied when the client asks for it.
type PropertyQuery struct {
	Destination string `url:"destination,omitempty"`
	Limit       int    `url:"limit,omitempty"`
	Offset      int    `url:"offset,omitempty"`
}

const MaxPropertyLimit = 100

func (q *PropertyQuery) Normalize() {
	q.Destination = strings.TrimSpace(q.Destination)
	if q.Limit < 0 {
		q.Limit = 0
	}
	if q.Limit > MaxPropertyLimit {
		q.Limit = MaxPropertyLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// Paged reports whether the query asks for a bounded page.
func (q *PropertyQuery) Paged() bool {
	return q.Limit > 0
}
