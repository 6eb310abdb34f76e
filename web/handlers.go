package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eventhub/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// ParseTemplates parses the page, form and list templates.
func ParseTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// UI serves the server-rendered pages on top of the JSON API.
type UI struct {
	api   EventsAPI
	cache *QueryCache
	list  *EventList
	loc   *time.Location
	now   func() time.Time
	log   *zap.Logger
}

func NewUI(api EventsAPI, loc *time.Location, now func() time.Time, logger *zap.Logger) *UI {
	cache := NewQueryCache()
	return &UI{
		api:   api,
		cache: cache,
		list:  NewEventList(api, cache, logger),
		loc:   loc,
		now:   now,
		log:   logger,
	}
}

// Close detaches the list from the query cache.
func (u *UI) Close() { u.list.Close() }

type pageData struct {
	ShowForm bool
	Form     FormView
	List     ListView
}

// Register mounts "/", "/events" and "/events/list" and installs the
// templates on server.
func (u *UI) Register(server *gin.Engine, tmpl *template.Template) {
	server.SetHTMLTemplate(tmpl)
	server.GET("/", u.page)
	server.POST("/events", u.submit)
	server.GET("/events/list", u.listFragment)
}

// GET /
func (u *UI) page(c *gin.Context) {
	// 整頁載入一律重抓，其他 client 建立的 event 才看得到
	u.cache.Expire(EventsQueryKey)
	list, err := u.list.Load(WithClientIP(c.Request.Context(), c.ClientIP()))
	if err != nil {
		u.log.Error("Error loading events", zap.Error(err))
	}
	c.HTML(http.StatusOK, "page.html", pageData{
		ShowForm: c.Query("form") != "",
		Form:     FormView{Errors: map[string]string{}},
		List:     list,
	})
}

// GET /events/list
func (u *UI) listFragment(c *gin.Context) {
	c.HTML(http.StatusOK, "list", u.list.Snapshot())
}

// POST /events
func (u *UI) submit(c *gin.Context) {
	form := NewEventForm(u.api, u.cache, u.loc, u.now, u.log)
	form.SetValues(FormValues{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Date:        c.PostForm("date"),
		Time:        c.PostForm("time"),
		Location:    c.PostForm("location"),
	})

	created := false
	form.OnSuccess = func(_ models.Event) { created = true }

	ctx := WithClientIP(c.Request.Context(), c.ClientIP())
	_, err := form.Submit(ctx)
	if err == nil && created {
		// 成功：收起表單回列表
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	status := http.StatusBadGateway
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrInvalidForm):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		status = http.StatusUnprocessableEntity
	}

	list, lerr := u.list.Load(ctx)
	if lerr != nil {
		u.log.Error("Error loading events", zap.Error(lerr))
	}
	c.HTML(status, "page.html", pageData{ShowForm: true, Form: form.View(), List: list})
}
