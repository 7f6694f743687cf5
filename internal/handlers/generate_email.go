package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"emailwriter/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Generator drafts an email for a validated request
type Generator interface {
	Generate(ctx context.Context, req *models.GenerateEmailRequest) (string, error)
}

// generateEmailPayload mirrors GenerateEmailRequest with pointers so absent
// fields can be told apart from empty ones
type generateEmailPayload struct {
	FullBody         *string `json:"full_body"`
	SelectedText     *string `json:"selected_text"`
	ToRecipients     *string `json:"to_recipients"`
	Subject          *string `json:"subject"`
	IsReply          *bool   `json:"is_reply"`
	AdditionalPrompt *string `json:"additional_prompt"`
}

// GenerateEmailHandler drafts an email grounded on the File Search store.
// Malformed requests get 422; generation failures are reported in the body
// with status 200.
// @Summary Generate an email draft
// @Tags email
// @Accept json
// @Produce json
// @Param request body models.GenerateEmailRequest true "Generation request"
// @Success 200 {object} models.GenerateEmailResponse
// @Failure 422 {object} models.ValidationErrorResponse
// @Router /api/generate-email [post]
func GenerateEmailHandler(gen Generator, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, details := decodeGenerateEmailRequest(c.Request().Body)
		if len(details) > 0 {
			return c.JSON(http.StatusUnprocessableEntity, models.ValidationErrorResponse{Detail: details})
		}

		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		logger.Info().
			Str("request_id", requestID).
			Bool("is_reply", req.IsReply).
			Int("body_chars", len([]rune(req.FullBody))).
			Msg("Generating email")

		// An issued model call completes even if the caller goes away
		text, err := gen.Generate(context.WithoutCancel(c.Request().Context()), req)
		if err != nil {
			logger.Error().Err(err).Str("request_id", requestID).Msg("Email generation failed")
			return c.JSON(http.StatusOK, models.NewErrorResponse(err))
		}

		return c.JSON(http.StatusOK, models.NewSuccessResponse(text))
	}
}

// decodeGenerateEmailRequest parses and validates the request body.
// An empty body is treated as an empty object.
func decodeGenerateEmailRequest(body io.Reader) (*models.GenerateEmailRequest, []models.ValidationErrorDetail) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, []models.ValidationErrorDetail{{Type: "json_invalid", Loc: []string{"body"}, Msg: "JSON decode error"}}
	}
	if len(data) == 0 {
		data = []byte("{}")
	}

	var payload generateEmailPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, []models.ValidationErrorDetail{decodeErrorDetail(err)}
	}

	var details []models.ValidationErrorDetail
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"full_body", payload.FullBody},
		{"selected_text", payload.SelectedText},
	} {
		if f.value == nil {
			details = append(details, models.ValidationErrorDetail{
				Type: "missing",
				Loc:  []string{"body", f.name},
				Msg:  "Field required",
			})
		}
	}
	if len(details) > 0 {
		return nil, details
	}

	return &models.GenerateEmailRequest{
		FullBody:         *payload.FullBody,
		SelectedText:     *payload.SelectedText,
		ToRecipients:     deref(payload.ToRecipients),
		Subject:          deref(payload.Subject),
		IsReply:          payload.IsReply != nil && *payload.IsReply,
		AdditionalPrompt: deref(payload.AdditionalPrompt),
	}, nil
}

func decodeErrorDetail(err error) models.ValidationErrorDetail {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return models.ValidationErrorDetail{
				Type: "model_attributes_type",
				Loc:  []string{"body"},
				Msg:  "Input should be a valid dictionary or object to extract fields from",
			}
		}

		detail := models.ValidationErrorDetail{Loc: []string{"body", typeErr.Field}}
		if typeErr.Type != nil && typeErr.Type.Kind() == reflect.Bool {
			detail.Type, detail.Msg = "bool_type", "Input should be a valid boolean"
		} else {
			detail.Type, detail.Msg = "string_type", "Input should be a valid string"
		}
		return detail
	}

	loc := []string{"body"}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		loc = append(loc, strconv.FormatInt(syntaxErr.Offset, 10))
	}
	return models.ValidationErrorDetail{Type: "json_invalid", Loc: loc, Msg: "JSON decode error"}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
