package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Rrens/stackbot/internal/api/response"
	"github.com/Rrens/stackbot/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// ReplyResponse carries a generated reply
type ReplyResponse struct {
	Reply string `json:"reply"`
}

// decode reads a JSON body into dst and runs its validation tags.
// It writes the 400 response itself and reports whether the handler may go on.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "invalid request body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		response.BadRequest(w, validationDetail(err))
		return false
	}
	return true
}

func validationDetail(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// pathID parses the uuid in URL parameter name
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.BadRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps service errors onto status codes
func writeError(w http.ResponseWriter, err error) {
	var (
		partial  *domain.PersistenceAfterGenerationError
		gwErr    *domain.GatewayError
		storeErr *domain.StoreError
	)

	switch {
	case errors.As(err, &partial):
		response.JSON(w, http.StatusInternalServerError, response.ErrorBody{
			Error:  "reply generated but not saved",
			Detail: partial.Err.Error(),
			Reply:  partial.Reply,
		})
	case errors.Is(err, domain.ErrValidation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrConversationNotFound):
		response.NotFound(w, "conversation not found", err.Error())
	case errors.Is(err, domain.ErrMessageNotFound):
		response.NotFound(w, "message not found", err.Error())
	case errors.Is(err, domain.ErrConflict):
		response.Error(w, http.StatusConflict, "conversation was modified concurrently", err.Error())
	case errors.As(err, &gwErr):
		response.InternalError(w, "failed to generate reply", err.Error())
	case errors.As(err, &storeErr):
		response.InternalError(w, "storage failure", err.Error())
	default:
		response.InternalError(w, "internal error", err.Error())
	}
}
