package registrations

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nmrschool/webinar-backend/internal/calendar"
	"github.com/nmrschool/webinar-backend/pkg/response"
)

// RegisterRequest is the body for POST /register (JSON or urlencoded form).
type RegisterRequest struct {
	FirstName string   `json:"firstName" form:"firstName"`
	LastName  string   `json:"lastName" form:"lastName"`
	OrgType   string   `json:"orgType" form:"orgType"`
	OrgName   string   `json:"orgName" form:"orgName"`
	Role      string   `json:"role" form:"role"`
	Email     string   `json:"email" form:"email"`
	Phone     string   `json:"phone" form:"phone"`
	MoreInfo  Checkbox `json:"moreInfo" form:"moreInfo"`
}

func (r RegisterRequest) input() RegisterInput {
	return RegisterInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		OrgType:   r.OrgType,
		OrgName:   r.OrgName,
		Role:      r.Role,
		Email:     r.Email,
		Phone:     r.Phone,
		MoreInfo:  r.MoreInfo.Bool(),
	}
}

// Checkbox is a lenient boolean. HTML checkboxes post "on" and some JSON
// clients send "true" or 1 instead of a bool.
type Checkbox string

// UnmarshalJSON accepts any JSON scalar.
func (cb *Checkbox) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*cb = ""
	case bool:
		*cb = Checkbox(strconv.FormatBool(t))
	case float64:
		*cb = Checkbox(strconv.FormatFloat(t, 'f', -1, 64))
	case string:
		*cb = Checkbox(t)
	default:
		*cb = "true"
	}
	return nil
}

// Bool is false for "", "false", "0", "off" and "no", true otherwise.
func (cb Checkbox) Bool() bool {
	switch strings.ToLower(strings.TrimSpace(string(cb))) {
	case "", "false", "0", "off", "no":
		return false
	}
	return true
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	service  *Service
	store    Store
	calendar *calendar.Builder
	logger   *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(service *Service, store Store, cal *calendar.Builder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, store: store, calendar: cal, logger: logger}
}

// Mount registers the handler routes on r.
func (h *Handler) Mount(r gin.IRoutes) {
	r.POST("/register", h.Register)
	r.GET("/registrants", h.List)
	r.GET("/registrants.csv", h.ExportCSV)
	r.GET("/webinar.ics", h.Calendar)
}

// Register handles POST /register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	res, err := h.service.Register(c.Request.Context(), req.input())
	if err != nil {
		var inErr *InputError
		var cfgErr *ConfigError
		switch {
		case errors.As(err, &inErr):
			response.BadRequest(c, "firstName, lastName and email are required")
		case errors.As(err, &cfgErr):
			detail := cfgErr.Path
			if detail == "" {
				detail = cfgErr.Err.Error()
			}
			response.Internal(c, "server misconfigured", detail)
		default:
			h.logger.Error("register failed", zap.Error(err))
			response.Internal(c, "server error", err.Error())
		}
		return
	}

	if res.EmailSent {
		response.OK(c, "Registration complete. Your invitation and calendar file were emailed.")
		return
	}
	response.OK(c, "Registration complete. The confirmation email will follow.")
}

// List handles GET /registrants.
func (h *Handler) List(c *gin.Context) {
	records, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list registrants failed", zap.Error(err))
		response.Internal(c, "failed to load registrants", err.Error())
		return
	}
	response.List(c, len(records), records)
}

// ExportCSV handles GET /registrants.csv.
func (h *Handler) ExportCSV(c *gin.Context) {
	records, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list registrants failed", zap.Error(err))
		response.Internal(c, "failed to load registrants", err.Error())
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="registrants.csv"`)
	c.Status(http.StatusOK)
	if err := WriteCSV(c.Writer, records); err != nil {
		h.logger.Warn("write csv failed", zap.Error(err))
	}
}

// Calendar handles GET /webinar.ics.
func (h *Handler) Calendar(c *gin.Context) {
	c.Header("Content-Disposition", `inline; filename="`+calendar.Filename+`"`)
	c.Data(http.StatusOK, calendar.ContentType, h.calendar.Build())
}
