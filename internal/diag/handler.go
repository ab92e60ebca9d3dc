// Package diag serves liveness and configuration-presence endpoints.
package diag

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// Info is what /diag reports. It carries presence flags only, never secret values.
type Info struct {
	TemplatePath   string
	HasSMTPUser    bool
	HasSMTPPass    bool
	HasBrevoKey    bool
	MailFrom       string
	ICSURL         string
	Backends       []string
	DeliveryPolicy string
	RecordStore    string
}

// Report is the JSON body of /diag.
type Report struct {
	TplExists      bool     `json:"tplExists"`
	TplPath        string   `json:"tplPath"`
	HasSMTPUser    bool     `json:"hasSmtpUser"`
	HasSMTPPass    bool     `json:"hasSmtpPass"`
	HasBrevoKey    bool     `json:"hasBrevoKey"`
	MailFrom       *string  `json:"mailFrom"`
	ICSPublicURL   bool     `json:"icsPublicUrl"`
	Backends       []string `json:"backends"`
	DeliveryPolicy string   `json:"deliveryPolicy"`
	RecordStore    string   `json:"recordStore"`
}

// Handler handles /healthz and /diag.
type Handler struct {
	info Info
}

// NewHandler creates a diag handler.
func NewHandler(info Info) *Handler {
	return &Handler{info: info}
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Diag handles GET /diag. The template is checked on every call.
func (h *Handler) Diag(c *gin.Context) {
	r := Report{
		TplPath:        h.info.TemplatePath,
		HasSMTPUser:    h.info.HasSMTPUser,
		HasSMTPPass:    h.info.HasSMTPPass,
		HasBrevoKey:    h.info.HasBrevoKey,
		ICSPublicURL:   h.info.ICSURL != "",
		Backends:       h.info.Backends,
		DeliveryPolicy: h.info.DeliveryPolicy,
		RecordStore:    h.info.RecordStore,
	}
	if r.Backends == nil {
		r.Backends = []string{}
	}
	if h.info.MailFrom != "" {
		from := h.info.MailFrom
		r.MailFrom = &from
	}
	if st, err := os.Stat(h.info.TemplatePath); err == nil && !st.IsDir() {
		r.TplExists = true
	}
	c.JSON(http.StatusOK, r)
}
