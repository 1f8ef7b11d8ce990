package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/formbuilder/internal/model"
	"github.com/stemsi/formbuilder/internal/render"
	"github.com/stemsi/formbuilder/internal/service"
	"github.com/stemsi/formbuilder/internal/validator"
)

// PageHandler serves the HTML editor. Every form post redirects back to the
// editor, so a refresh never resubmits.
type PageHandler struct {
	questionService *service.QuestionService
	log             zerolog.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(questionService *service.QuestionService, log zerolog.Logger) *PageHandler {
	return &PageHandler{
		questionService: questionService,
		log:             log.With().Str("component", "page_handler").Logger(),
	}
}

func backToEditor(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}

// Editor godoc
// GET /
// Renders the question tree and, once submitted, the summary.
func (h *PageHandler) Editor(c *gin.Context) {
	page := render.NewPage(h.questionService.Questions(), h.questionService.Submitted())
	c.HTML(http.StatusOK, "editor.html", page)
}

// AddQuestion godoc
// POST /ui/questions
func (h *PageHandler) AddQuestion(c *gin.Context) {
	h.questionService.AddQuestion(c.Request.Context())
	backToEditor(c)
}

// SaveQuestion godoc
// POST /ui/questions/:id
// Saves the text and type fields of one row.
func (h *PageHandler) SaveQuestion(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid question id")
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.BindForm(c, &req); fields != nil {
		h.log.Debug().Interface("fields", fields).Int64("question_id", id).Msg("Rejected editor form")
		backToEditor(c)
		return
	}

	var kind *model.QuestionKind
	if req.Kind != nil {
		k, _ := model.ParseQuestionKind(*req.Kind)
		kind = &k
	}
	_, _ = h.questionService.UpdateQuestion(c.Request.Context(), id, req.Text, kind)
	backToEditor(c)
}

// AddChildQuestion godoc
// POST /ui/questions/:id/children
// Saves the row first so that a type switched to True/False in the same
// submit takes effect, then adds the child.
func (h *PageHandler) AddChildQuestion(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid question id")
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.BindForm(c, &req); fields == nil && req.Kind != nil {
		k, _ := model.ParseQuestionKind(*req.Kind)
		_, _ = h.questionService.UpdateQuestion(c.Request.Context(), id, req.Text, &k)
	}

	_, _, _ = h.questionService.AddChildQuestion(c.Request.Context(), id)
	backToEditor(c)
}

// DeleteQuestion godoc
// POST /ui/questions/:id/delete
func (h *PageHandler) DeleteQuestion(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid question id")
		return
	}
	_, _ = h.questionService.DeleteQuestion(c.Request.Context(), id)
	backToEditor(c)
}

// Submit godoc
// POST /ui/submit
func (h *PageHandler) Submit(c *gin.Context) {
	h.questionService.Submit(c.Request.Context())
	backToEditor(c)
}
