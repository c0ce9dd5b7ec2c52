package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tbardin/equiprent/internal/domain"
)

// validate is the shared validator instance. validator.Validate caches struct
// metadata internally and is safe for concurrent use.
var validate = validator.New()

// dateLayout is the wire format for booking dates. Bookings are accounted at
// daily granularity, so the API never accepts a finer-grained timestamp.
const dateLayout = "2006-01-02"

// bookRequest is the body of POST /api/bookings/book-package/{listingId}.
type bookRequest struct {
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// listingRequest is the body of POST /api/listings and PUT /api/listings/{id}.
// Fields mirror domain.Listing; only named fields are ever written, so a
// request cannot smuggle owner or timestamp changes through an update.
type listingRequest struct {
	Name          string   `json:"name" validate:"required"`
	Description   string   `json:"description" validate:"required"`
	EquipmentType string   `json:"equipment_type" validate:"required"`
	DailyRate     float64  `json:"daily_rate" validate:"gte=0"`
	WeeklyRate    float64  `json:"weekly_rate" validate:"gte=0"`
	MonthlyRate   float64  `json:"monthly_rate" validate:"gte=0"`
	TotalQuantity int      `json:"total_quantity" validate:"required,gt=0"`
	Condition     string   `json:"condition"`
	Manufacturer  string   `json:"manufacturer"`
	ModelYear     int      `json:"model_year"`
	Location      string   `json:"location" validate:"required"`
	RentalTerms   string   `json:"rental_terms"`
	IsAvailable   *bool    `json:"is_available"`
	ImageURLs     []string `json:"image_urls"`
}

// toDomain maps the request onto a domain.Listing. The advisory availability
// flag defaults to true when the request omits it.
func (req listingRequest) toDomain() domain.Listing {
	l := domain.Listing{
		Name:          req.Name,
		Description:   req.Description,
		EquipmentType: req.EquipmentType,
		DailyRate:     req.DailyRate,
		WeeklyRate:    req.WeeklyRate,
		MonthlyRate:   req.MonthlyRate,
		TotalQuantity: req.TotalQuantity,
		Condition:     req.Condition,
		Manufacturer:  req.Manufacturer,
		ModelYear:     req.ModelYear,
		Location:      req.Location,
		RentalTerms:   req.RentalTerms,
		IsAvailable:   true,
		ImageURLs:     req.ImageURLs,
	}
	if req.IsAvailable != nil {
		l.IsAvailable = *req.IsAvailable
	}
	return l
}

// tokenRequest is the body of POST /api/auth/token. This is development
// scaffolding standing in for the identity collaborator; it mints a token for
// any identity presented to it.
type tokenRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"required,oneof=renter admin"`
}

// paginationEnvelope is the metadata block accompanying every paged list.
type paginationEnvelope struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// listResponse is the envelope for paged collections.
type listResponse[T any] struct {
	Data       []T                `json:"data"`
	Pagination paginationEnvelope `json:"pagination"`
}

// decodeBody decodes the JSON request body into dst and runs struct
// validation. Unknown fields are rejected so typos in field names surface as
// 422s instead of silently-zero values.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid request body: %s", err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return errors.New(validationMessage(verrs))
		}
		return err
	}
	return nil
}

// validationMessage flattens validator errors into one stable, readable line.
func validationMessage(verrs validator.ValidationErrors) string {
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts[i] = fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
		case "gt", "gte":
			parts[i] = fmt.Sprintf("%s must be at least %s", strings.ToLower(fe.Field()), fe.Param())
		default:
			parts[i] = fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
		}
	}
	return strings.Join(parts, "; ")
}

// parseDate parses a wire-format date, rejecting anything but YYYY-MM-DD.
func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be formatted %s", field, dateLayout)
	}
	return t, nil
}
