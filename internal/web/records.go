package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"studycal/internal/ics"
	appLog "studycal/internal/log"
	"studycal/internal/model"
	"studycal/internal/transfer"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := model.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseWeekday(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("tag", func(fl validator.FieldLevel) bool {
		return model.Tag(fl.Field().String()).Valid()
	})
	return v
}

// classRequest is the add-class form.
type classRequest struct {
	Name      string   `json:"name" validate:"required"`
	Emoji     string   `json:"emoji"`
	StartTime string   `json:"startTime" validate:"required,clock"`
	EndTime   string   `json:"endTime" validate:"required,clock"`
	Days      []string `json:"days" validate:"required,min=1,dive,weekday"`
	Color     string   `json:"color"`
}

// sessionRequest is the log-study-session form. Date defaults to today and
// Tag to productive.
type sessionRequest struct {
	Subject  string `json:"subject" validate:"required"`
	Duration int    `json:"duration" validate:"gt=0"`
	Notes    string `json:"notes"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Tag      string `json:"tag" validate:"omitempty,tag"`
	ClassID  string `json:"classId"`
}

func (r *classRequest) trim() {
	r.Name = strings.TrimSpace(r.Name)
	r.StartTime = strings.TrimSpace(r.StartTime)
	r.EndTime = strings.TrimSpace(r.EndTime)
}

func (r *sessionRequest) trim() {
	r.Subject = strings.TrimSpace(r.Subject)
	r.Date = strings.TrimSpace(r.Date)
}

func (s *Server) handleListClasses(c *gin.Context) {
	c.JSON(http.StatusOK, s.planner.Classes())
}

func (s *Server) handleListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, s.planner.Sessions())
}

func (s *Server) handleAddClass(c *gin.Context) {
	var req classRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if req.Emoji == "" {
		req.Emoji = model.DefaultEmoji
	}
	if req.Color == "" {
		req.Color = model.DefaultColor
	}

	added, err := s.planner.AddClass(c.Request.Context(), model.Class{
		Name:      req.Name,
		Emoji:     req.Emoji,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Days:      req.Days,
		Color:     req.Color,
	})
	if err != nil {
		appLog.Error("add class failed", err)
		writeError(c, http.StatusInternalServerError, "failed to save class")
		return
	}
	c.JSON(http.StatusCreated, added)
}

func (s *Server) handleAddSession(c *gin.Context) {
	var req sessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if req.Date == "" {
		req.Date = s.today().Format(model.DateLayout)
	}
	tag := model.Tag(req.Tag)
	if tag == "" {
		tag = model.DefaultTag
	}

	added, err := s.planner.AddStudySession(c.Request.Context(), model.StudySession{
		Subject:  req.Subject,
		Duration: req.Duration,
		Notes:    req.Notes,
		Date:     req.Date,
		Tag:      tag,
		ClassID:  req.ClassID,
	})
	if err != nil {
		appLog.Error("add study session failed", err)
		writeError(c, http.StatusInternalServerError, "failed to save study session")
		return
	}
	c.JSON(http.StatusCreated, added)
}

func (s *Server) handleDeleteClass(c *gin.Context) {
	removed, err := s.planner.DeleteClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		appLog.Error("delete class failed", err, "id", c.Param("id"))
		writeError(c, http.StatusInternalServerError, "failed to delete class")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": removed})
}

// handleImport accepts either a multipart upload in the "file" field or the
// document as the raw request body (pasted text).
func (s *Server) handleImport(c *gin.Context) {
	data, err := readImportBody(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := s.planner.ImportReplace(c.Request.Context(), data)
	if errors.Is(err, transfer.ErrInvalidFormat) {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		appLog.Error("import failed", err)
		writeError(c, http.StatusInternalServerError, "failed to save imported data")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"classes":       len(doc.Classes),
		"studySessions": len(doc.StudySessions),
	})
}

// handleImportICS appends the weekly events of an iCalendar file as new
// classes. Existing classes are kept and every imported class gets a fresh id.
func (s *Server) handleImportICS(c *gin.Context) {
	data, err := readImportBody(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	parsed, err := ics.ParseClasses(data, s.loc)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid iCalendar data: "+err.Error())
		return
	}

	added := make([]model.Class, 0, len(parsed))
	for _, pc := range parsed {
		if pc.Emoji == "" {
			pc.Emoji = model.DefaultEmoji
		}
		if pc.Color == "" {
			pc.Color = model.DefaultColor
		}
		ac, err := s.planner.AddClass(c.Request.Context(), pc)
		if err != nil {
			appLog.Error("ics import failed", err, "added", len(added))
			writeError(c, http.StatusInternalServerError, "failed to save imported classes")
			return
		}
		added = append(added, ac)
	}
	c.JSON(http.StatusCreated, gin.H{"added": len(added), "classes": added})
}

func readImportBody(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing upload field \"file\": %w", err)
		}
		if fh.Size > maxImportBytes {
			return nil, errors.New("import file too large")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxImportBytes))
	}
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes))
	if err != nil {
		return nil, fmt.Errorf("read import body: %w", err)
	}
	return data, nil
}

// bindAndValidate decodes the JSON body into dst, trims its text fields and
// runs the form rules, writing a 400 and returning false on failure.
func bindAndValidate(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if t, ok := dst.(interface{ trim() }); ok {
		t.trim()
	}
	if err := validate.Struct(dst); err != nil {
		writeError(c, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		var m string
		switch fe.Tag() {
		case "required", "min":
			m = fe.Field() + " is required"
		case "clock":
			m = fe.Field() + " must be HH:MM"
		case "weekday":
			m = fe.Field() + " must be an English weekday name"
		case "tag":
			m = fe.Field() + " must be one of productive, revision, exam-prep, research"
		case "datetime":
			m = fe.Field() + " must be YYYY-MM-DD"
		case "gt":
			m = fe.Field() + " must be positive"
		default:
			m = fe.Field() + " is invalid"
		}
		msgs = append(msgs, m)
	}
	return strings.Join(msgs, "; ")
}
