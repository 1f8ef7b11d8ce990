package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/formbuilder/internal/forest"
	"github.com/stemsi/formbuilder/internal/model"
	"github.com/stemsi/formbuilder/internal/render"
	"github.com/stemsi/formbuilder/internal/response"
	"github.com/stemsi/formbuilder/internal/service"
	"github.com/stemsi/formbuilder/internal/validator"
)

// QuestionHandler serves the JSON form API.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// questionRow is one numbered line of the flattened form.
type questionRow struct {
	Number   string             `json:"number"`
	Depth    int                `json:"depth"`
	ID       int64              `json:"id"`
	Text     string             `json:"text"`
	Kind     model.QuestionKind `json:"type"`
	ParentID *int64             `json:"parentId"`
}

func formBody(f model.Forest) gin.H {
	flat := render.Flatten(f)
	rows := make([]questionRow, len(flat))
	for i, r := range flat {
		rows[i] = questionRow{
			Number:   r.Number,
			Depth:    r.Depth,
			ID:       r.Question.ID,
			Text:     r.Question.Text,
			Kind:     r.Question.Kind,
			ParentID: r.Question.ParentID,
		}
	}
	return gin.H{"questions": f, "rows": rows}
}

func parseQuestionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// failMutation maps a tree error to its API error.
func failMutation(c *gin.Context, err error) {
	switch {
	case errors.Is(err, forest.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, forest.ErrNotTrueFalse):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNotTrueFalse)
	case errors.Is(err, forest.ErrIndexOutOfRange):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrIndexOutOfRange)
	case errors.Is(err, forest.ErrDuplicateID), errors.Is(err, forest.ErrBrokenParent):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, map[string]string{"questions": err.Error()})
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// GetForm godoc
// GET /api/v1/form
// Returns the question tree and its numbered rows.
func (h *QuestionHandler) GetForm(c *gin.Context) {
	response.Success(c, http.StatusOK, formBody(h.questionService.Questions()))
}

// AddQuestion godoc
// POST /api/v1/form/questions
// Appends an empty ShortAnswer question at the top level.
func (h *QuestionHandler) AddQuestion(c *gin.Context) {
	q, f := h.questionService.AddQuestion(c.Request.Context())
	body := formBody(f)
	body["question"] = q
	response.Success(c, http.StatusCreated, body)
}

// AddChildQuestion godoc
// POST /api/v1/form/questions/:id/children
// Appends an empty child under a True/False question.
func (h *QuestionHandler) AddChildQuestion(c *gin.Context) {
	id, ok := parseQuestionID(c)
	if !ok {
		return
	}

	q, f, err := h.questionService.AddChildQuestion(c.Request.Context(), id)
	if err != nil {
		failMutation(c, err)
		return
	}

	body := formBody(f)
	body["question"] = q
	response.Success(c, http.StatusCreated, body)
}

// UpdateQuestion godoc
// PUT /api/v1/form/questions/:id
// Replaces the text and, when given, the type of a question.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, ok := parseQuestionID(c)
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	var kind *model.QuestionKind
	if req.Kind != nil {
		k, _ := model.ParseQuestionKind(*req.Kind)
		kind = &k
	}

	f, err := h.questionService.UpdateQuestion(c.Request.Context(), id, req.Text, kind)
	if err != nil {
		failMutation(c, err)
		return
	}
	response.Success(c, http.StatusOK, formBody(f))
}

// SetText godoc
// PATCH /api/v1/form/questions/:id/text
// Replaces only the text of a question.
func (h *QuestionHandler) SetText(c *gin.Context) {
	id, ok := parseQuestionID(c)
	if !ok {
		return
	}

	var req model.SetTextRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	f, err := h.questionService.SetText(c.Request.Context(), id, req.Text)
	if err != nil {
		failMutation(c, err)
		return
	}
	response.Success(c, http.StatusOK, formBody(f))
}

// SetKind godoc
// PATCH /api/v1/form/questions/:id/kind
// Changes only the type of a question. Existing children are kept.
func (h *QuestionHandler) SetKind(c *gin.Context) {
	id, ok := parseQuestionID(c)
	if !ok {
		return
	}

	var req model.SetKindRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	kind, _ := model.ParseQuestionKind(req.Kind)

	f, err := h.questionService.SetKind(c.Request.Context(), id, kind)
	if err != nil {
		failMutation(c, err)
		return
	}
	response.Success(c, http.StatusOK, formBody(f))
}

// DeleteQuestion godoc
// DELETE /api/v1/form/questions/:id
// Removes a question together with all of its children.
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := parseQuestionID(c)
	if !ok {
		return
	}

	f, err := h.questionService.DeleteQuestion(c.Request.Context(), id)
	if err != nil {
		failMutation(c, err)
		return
	}
	response.Success(c, http.StatusOK, formBody(f))
}

// MoveQuestion godoc
// POST /api/v1/form/move
// Moves the top-level question at index from to index to.
func (h *QuestionHandler) MoveQuestion(c *gin.Context) {
	var req model.MoveQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	f, err := h.questionService.MoveQuestion(c.Request.Context(), *req.From, *req.To)
	if err != nil {
		failMutation(c, err)
		return
	}
	response.Success(c, http.StatusOK, formBody(f))
}

// ImportForm godoc
// PUT /api/v1/form
// Replaces the whole form with the posted question tree.
func (h *QuestionHandler) ImportForm(c *gin.Context) {
	var req model.ImportFormRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	f, err := h.questionService.Replace(c.Request.Context(), req.Questions)
	if err != nil {
		failMutation(c, err)
		return
	}
	response.Success(c, http.StatusOK, formBody(f))
}

// ResetForm godoc
// DELETE /api/v1/form
// Empties the form. The last submission is kept.
func (h *QuestionHandler) ResetForm(c *gin.Context) {
	response.Success(c, http.StatusOK, formBody(h.questionService.Reset(c.Request.Context())))
}

// SubmitForm godoc
// POST /api/v1/form/submit
// Freezes the current form and returns its summary.
func (h *QuestionHandler) SubmitForm(c *gin.Context) {
	sub := h.questionService.Submit(c.Request.Context())
	response.Success(c, http.StatusCreated, gin.H{
		"submission": sub,
		"summary":    render.Summary(sub.Questions),
	})
}

// GetSubmission godoc
// GET /api/v1/form/submission
// Returns the last submission and its summary.
func (h *QuestionHandler) GetSubmission(c *gin.Context) {
	sub := h.questionService.Submitted()
	if sub == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoSubmission)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"submission": sub,
		"summary":    render.Summary(sub.Questions),
	})
}
